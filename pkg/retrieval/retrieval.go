// Package retrieval implements spec §4.2's Retrieval component: bounded
// candidate generation over the Store's lexical index and recency/pinned/
// tag/session views, channel-based privacy suppression, deterministic
// scoring, and an optional vector-fusion pass — mirroring the teacher's
// service-layer shape (one Service type, one entry method, small private
// helpers per concern) rather than a single monolithic query.
package retrieval

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"time"

	"github.com/shared-memory/memoryd/pkg/config"
	"github.com/shared-memory/memoryd/pkg/embedding"
	"github.com/shared-memory/memoryd/pkg/models"
	"github.com/shared-memory/memoryd/pkg/store"
)

// sessionRecentWindow is the fixed size of the session-last-N candidate
// source. Not separately configurable in spec.md; kept equal to
// RetrievalConfig.RecencyTailWindow's default order of magnitude via the
// config value itself rather than a second hardcoded constant.
const sessionRecentWindow = 50

// Service runs Retrieve over a Store, with an optional Embedder for the
// semantic-fusion path.
type Service struct {
	store    *store.Store
	db       *stdsql.DB
	embedder embedding.Embedder
	scoring  *config.ScoringConfig
	cfg      *config.RetrievalConfig
	privacy  *config.PrivacyConfig
}

// New builds a Service. db is the raw SQL handle behind the same
// connection ent uses (database.Client.DB()), needed for the lexical
// GIN-index query ent's builder API can't express. embedder may be nil,
// in which case Retrieve runs lexical-only, per spec §4.2.
func New(st *store.Store, db *stdsql.DB, embedder embedding.Embedder, scoring *config.ScoringConfig, cfg *config.RetrievalConfig, privacy *config.PrivacyConfig) *Service {
	return &Service{store: st, db: db, embedder: embedder, scoring: scoring, cfg: cfg, privacy: privacy}
}

// Retrieve implements spec §4.2: union candidate generation capped at
// candidate_pool_max, privacy suppression, deterministic scoring with
// optional RRF vector fusion, and a cap at retrieved_chunks_max.
func (s *Service) Retrieve(ctx context.Context, req models.RetrieveRequest) (*models.RetrieveResponse, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("retrieval: tenant_id is required")
	}
	if req.Channel == "" {
		return nil, fmt.Errorf("retrieval: channel is required")
	}

	poolMax := req.CandidatePoolMax
	if poolMax <= 0 {
		poolMax = s.cfg.CandidatePoolMax
	}
	chunksMax := req.RetrievedChunksMax
	if chunksMax <= 0 {
		chunksMax = s.cfg.RetrievedChunksMax
	}

	pool, err := buildCandidatePool(ctx, s.store, s.db, poolRequest{
		tenantID:          req.TenantID,
		sessionID:         req.SessionID,
		queryText:         req.QueryText,
		tags:              req.Tags,
		candidatePoolMax:  poolMax,
		sessionWindow:     sessionRecentWindow,
		tagHeadLimit:      s.cfg.RecencyTailWindow,
		recencyTailWindow: s.cfg.RecencyTailWindow,
	})
	if err != nil {
		return nil, err
	}

	suppressed, err := suppressCandidates(ctx, s.store, s.privacy, req.TenantID, req.Channel, req.AgentID, pool.chunks)
	if err != nil {
		return nil, err
	}

	scored := scoreCandidates(suppressed, pool.lexicalScore, req.Tags, s.scoring, time.Now())
	applyVectorFusion(ctx, s.embedder, req.QueryText, scored, s.scoring)
	sortScored(scored)

	if len(scored) > chunksMax {
		scored = scored[:chunksMax]
	}

	return &models.RetrieveResponse{
		Chunks:            scored,
		CandidatePoolSize: len(suppressed),
		FileReads:         0,
		Coefficients: models.ScoringCoefficients{
			Alpha: s.scoring.Alpha,
			Beta:  s.scoring.Beta,
			Gamma: s.scoring.Gamma,
			Tau:   float64(s.scoring.RecencyTauSeconds),
			RRFK:  s.scoring.RRFK,
		},
	}, nil
}
