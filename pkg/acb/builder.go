// Package acb implements spec §4.3's Active Context Bundle Builder: the
// section-budgeted packer that turns a tenant's stored memory into a
// ready-to-prompt bundle. It is grounded on pkg/retrieval's Service shape
// (one struct, one entry method, small private helpers per pipeline step)
// and reuses pkg/retrieval, pkg/store, pkg/tokenest and pkg/simhash rather
// than re-implementing candidate generation or scoring.
package acb

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/shared-memory/memoryd/ent"
	"github.com/shared-memory/memoryd/ent/chunk"
	"github.com/shared-memory/memoryd/ent/knowledgenote"
	"github.com/shared-memory/memoryd/pkg/config"
	"github.com/shared-memory/memoryd/pkg/models"
	"github.com/shared-memory/memoryd/pkg/retrieval"
	"github.com/shared-memory/memoryd/pkg/simhash"
	"github.com/shared-memory/memoryd/pkg/store"
	"github.com/shared-memory/memoryd/pkg/tokenest"
)

const policyVersion = "acb-policy-v1"

// Section names, matching config.ACBSectionDefaults's table exactly.
const (
	sectionIdentity          = "identity"
	sectionRules             = "rules"
	sectionTaskState         = "task_state"
	sectionRelevantDecisions = "relevant_decisions"
	sectionRetrievedEvidence = "retrieved_evidence"
	sectionRecentWindow      = "recent_window"
	sectionToolState         = "tool_state"
)

// fastPathIntents are the intents spec §4.3 names as skipping the
// Retrieval call entirely: the caller is just continuing a conversation
// and doesn't need fresh evidence, only the standing sections.
var fastPathIntents = map[string]bool{
	"continue":     true,
	"simple_reply": true,
	"ack":          true,
}

// identityPoolSize and rulesTagPoolSize bound how many principles/notes
// are loaded before packing even considers the per-section budget; kept
// small since both sections are meant to carry a handful of standing
// facts, not a full history scan.
const (
	identityPoolSize     = 25
	rulesTagPoolSize     = 50
	rulesTagScanWindow   = 500
	relevantDecisionsMax = 100
	sessionRecentMax     = 50
	toolStateMax         = 20
	// dedupeSimhashThreshold is the Hamming-distance ceiling below which
	// two items are treated as near-duplicates, matching the threshold
	// pkg/recorder already uses for chunk-insert-time dedupe.
	dedupeSimhashThreshold = 3
)

// Builder assembles Active Context Bundles.
type Builder struct {
	store     *store.Store
	retrieval *retrieval.Service
	cfg       *config.ACBConfig
	privacy   *config.PrivacyConfig
}

// New builds a Builder.
func New(st *store.Store, retrievalSvc *retrieval.Service, cfg *config.ACBConfig, privacy *config.PrivacyConfig) *Builder {
	return &Builder{store: st, retrieval: retrievalSvc, cfg: cfg, privacy: privacy}
}

// candidate is the common shape every section's source material is
// reduced to before packing, so one packSection implementation serves
// principles, notes, decisions, tasks and chunks alike.
type candidate struct {
	item        models.ACBItem
	contentHash string
	simhash     uint64
}

// Build implements spec §4.3's seven-step procedure: load the mandatory
// identity and rules views, apply channel privacy suppression, gather
// bounded active-decision and task context, run Retrieval unless the
// intent fast-paths around it, greedily pack each section by descending
// score within its budget, dedupe across the whole bundle, and emit the
// result with full provenance.
func (b *Builder) Build(ctx context.Context, req models.BuildACBRequest) (*models.ACB, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("acb: tenant_id is required")
	}
	if req.Channel == "" {
		return nil, fmt.Errorf("acb: channel is required")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = b.cfg.TotalMaxTokens
	}
	reserveTokens := req.ReserveTokens
	if reserveTokens <= 0 {
		reserveTokens = b.cfg.ReserveTokens
	}
	budget := maxTokens - reserveTokens
	if budget <= 0 {
		return nil, ErrBudgetImpossible
	}

	identityCands, err := b.identityCandidates(ctx, req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	rulesCands, err := b.rulesCandidates(ctx, req.TenantID, req.Channel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var mandatoryTokens int
	for _, c := range identityCands {
		mandatoryTokens += c.item.TokenEst
	}
	for _, c := range rulesCands {
		mandatoryTokens += c.item.TokenEst
	}
	if mandatoryTokens > budget {
		return nil, ErrBudgetImpossible
	}

	taskCands, err := b.taskStateCandidates(ctx, req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	decisionCands, err := b.relevantDecisionCandidates(ctx, req.TenantID, req.QueryText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var evidenceCands, recentCands, toolCands []candidate
	var candidatePoolSize int
	var coefficients models.ScoringCoefficients
	queryTerms := retrieval.NormalizeQueryTerms(req.QueryText)

	if fastPathIntents[req.Intent] {
		// Fast path: skip Retrieval entirely and lean on standing context
		// plus a thin slice of session-recent material.
		recentCands, err = b.recentWindowCandidates(ctx, req.TenantID, req.SessionID, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	} else if b.retrieval != nil {
		resp, err := b.retrieval.Retrieve(ctx, models.RetrieveRequest{
			TenantID:  req.TenantID,
			Channel:   req.Channel,
			AgentID:   req.AgentID,
			SessionID: req.SessionID,
			QueryText: req.QueryText,
			Intent:    req.Intent,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		candidatePoolSize = resp.CandidatePoolSize
		coefficients = resp.Coefficients

		used := make(map[string]bool, len(resp.Chunks))
		for _, sc := range resp.Chunks {
			used[sc.Chunk.ID] = true
			evidenceCands = append(evidenceCands, candidate{
				item: models.ACBItem{
					Type:     "chunk",
					Text:     sc.Chunk.Text,
					Ref:      sc.Chunk.ID,
					Score:    sc.FusedScore,
					TokenEst: sc.Chunk.TokenEst,
				},
				contentHash: sc.Chunk.ContentHash,
				simhash:     sc.Chunk.Simhash,
			})
		}

		recentCands, err = b.recentWindowCandidates(ctx, req.TenantID, req.SessionID, used)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	toolCands, err = b.toolStateCandidates(ctx, req.TenantID, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	order := b.sectionProcessingOrder()
	bySection := map[string][]candidate{
		sectionIdentity:          identityCands,
		sectionRules:             rulesCands,
		sectionTaskState:         taskCands,
		sectionRelevantDecisions: decisionCands,
		sectionRetrievedEvidence: evidenceCands,
		sectionRecentWindow:      recentCands,
		sectionToolState:         toolCands,
	}

	dedupe := newDedupeState()
	var sections []models.ACBSection
	var omissions []models.ACBOmission
	remaining := budget

	for _, name := range order {
		cands := bySection[name]
		sectionCap := b.cfg.Sections[name].MaxTokens
		if sectionCap > remaining {
			sectionCap = remaining
		}

		packed, used, dropped := packSection(cands, sectionCap, dedupe)
		sections = append(sections, models.ACBSection{Name: name, Items: packed, TokenEst: used})
		remaining -= used
		if len(dropped) > 0 {
			omissions = append(omissions, dropped...)
		}
	}

	var tokenUsed int
	for _, s := range sections {
		tokenUsed += s.TokenEst
	}

	return &models.ACB{
		ACBID:        newACBID(),
		BudgetTokens: budget,
		TokenUsedEst: tokenUsed,
		Sections:     sections,
		Omissions:    omissions,
		Provenance: models.ACBProvenance{
			PolicyVersion:     policyVersion,
			Intent:            req.Intent,
			QueryTerms:        queryTerms,
			CandidatePoolSize: candidatePoolSize,
			Filters:           map[string]any{"channel": req.Channel},
			Scoring:           coefficients,
			DeterministicSeed: "none",
		},
	}, nil
}

// sectionProcessingOrder sorts section names by configured priority
// descending, falling back to spec table order on ties so reconfiguring
// priorities can't produce a nondeterministic dedupe race.
func (b *Builder) sectionProcessingOrder() []string {
	tableOrder := []string{
		sectionIdentity, sectionRules, sectionTaskState, sectionRelevantDecisions,
		sectionRetrievedEvidence, sectionRecentWindow, sectionToolState,
	}
	rank := make(map[string]int, len(tableOrder))
	for i, name := range tableOrder {
		rank[name] = i
	}

	sort.SliceStable(tableOrder, func(i, j int) bool {
		pi := b.cfg.Sections[tableOrder[i]].Priority
		pj := b.cfg.Sections[tableOrder[j]].Priority
		if pi != pj {
			return pi > pj
		}
		return rank[tableOrder[i]] < rank[tableOrder[j]]
	})
	return tableOrder
}

func newACBID() string {
	return "acb_" + uuid.New().String()
}

func (b *Builder) identityCandidates(ctx context.Context, tenantID string) ([]candidate, error) {
	principles, err := b.store.ListPrinciples(ctx, models.SemanticPrincipleFilters{TenantID: tenantID})
	if err != nil {
		return nil, err
	}
	if len(principles) > identityPoolSize {
		principles = principles[:identityPoolSize]
	}

	out := make([]candidate, 0, len(principles))
	for _, p := range principles {
		text := p.Principle
		if p.Context != "" {
			text = text + " — " + p.Context
		}
		out = append(out, candidate{
			item: models.ACBItem{
				Type:     "principle",
				Text:     text,
				Ref:      p.ID,
				Score:    p.Confidence,
				TokenEst: tokenest.Estimate(text),
			},
			contentHash: text,
		})
	}
	return out, nil
}

func (b *Builder) rulesCandidates(ctx context.Context, tenantID, channel string) ([]candidate, error) {
	// KnowledgeNote.tags is a JSON array with no containment predicate in
	// ent's builder API, so "rule"-tagged notes are found the same way
	// pkg/retrieval's tag-head candidates are: scan the tenant's most
	// recent notes in Go and filter on the tag in memory.
	scanned, err := b.store.Client().KnowledgeNote.Query().
		Where(knowledgenote.TenantID(tenantID)).
		Order(ent.Desc(knowledgenote.FieldCreatedAt)).
		Limit(rulesTagScanWindow).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("acb: scan knowledge notes: %w", err)
	}

	notes := make([]*ent.KnowledgeNote, 0, rulesTagPoolSize)
	for _, n := range scanned {
		if len(notes) >= rulesTagPoolSize {
			break
		}
		for _, tag := range n.Tags {
			if tag == "rule" {
				notes = append(notes, n)
				break
			}
		}
	}

	// Knowledge notes carry no sensitivity field of their own, so
	// suppression here only has the tag half of the channel policy to
	// work with, same as pkg/retrieval.suppressCandidates's SuppressTags
	// check.
	suppressedTags := map[string]bool{}
	if policy, ok := b.privacy.ChannelSuppression[channel]; ok {
		for _, t := range policy.SuppressTags {
			suppressedTags[t] = true
		}
	}

	out := make([]candidate, 0, len(notes))
	for i, n := range notes {
		var suppressed bool
		for _, tag := range n.Tags {
			if suppressedTags[tag] {
				suppressed = true
				break
			}
		}
		if suppressed {
			continue
		}
		out = append(out, candidate{
			item: models.ACBItem{
				Type:     "rule",
				Text:     n.Text,
				Ref:      n.ID,
				Score:    float64(len(notes) - i),
				TokenEst: tokenest.Estimate(n.Text),
			},
			contentHash: n.Text,
			simhash:     simhash.Sum64(n.Text),
		})
	}
	return out, nil
}

func (b *Builder) taskStateCandidates(ctx context.Context, tenantID string) ([]candidate, error) {
	tasks, err := b.store.ActiveTasks(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	out := make([]candidate, 0, len(tasks))
	for i, t := range tasks {
		text := t.Title
		if t.Details != "" {
			text = text + ": " + t.Details
		}
		out = append(out, candidate{
			item: models.ACBItem{
				Type:     "task",
				Text:     text,
				Ref:      t.ID,
				Score:    float64(len(tasks) - i),
				TokenEst: tokenest.Estimate(text),
			},
			contentHash: text,
		})
	}
	return out, nil
}

func (b *Builder) relevantDecisionCandidates(ctx context.Context, tenantID, queryText string) ([]candidate, error) {
	decisions, err := b.store.ActiveDecisions(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	terms := make(map[string]bool)
	for _, t := range retrieval.NormalizeQueryTerms(queryText) {
		terms[t] = true
	}

	out := make([]candidate, 0, len(decisions))
	for _, d := range decisions {
		text := d.Decision
		if d.Rationale != "" {
			text = text + " — " + d.Rationale
		}
		score := overlapScore(text, terms)
		out = append(out, candidate{
			item: models.ACBItem{
				Type:     "decision",
				Text:     text,
				Ref:      d.ID,
				Score:    score,
				TokenEst: tokenest.Estimate(text),
			},
			contentHash: text,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].item.Score > out[j].item.Score })
	if len(out) > relevantDecisionsMax {
		out = out[:relevantDecisionsMax]
	}
	return out, nil
}

// overlapScore counts how many normalized query terms appear in text,
// a minimal lexical relevance signal for decisions and tasks that never
// go through Retrieval's full scoring pipeline.
func overlapScore(text string, terms map[string]bool) float64 {
	if len(terms) == 0 {
		return 0
	}
	var hits int
	for _, t := range retrieval.NormalizeQueryTerms(text) {
		if terms[t] {
			hits++
		}
	}
	return float64(hits)
}

func (b *Builder) recentWindowCandidates(ctx context.Context, tenantID, sessionID string, exclude map[string]bool) ([]candidate, error) {
	if sessionID == "" {
		return nil, nil
	}
	chunks, err := b.store.Client().Chunk.Query().
		Where(chunk.TenantID(tenantID), chunk.SessionID(sessionID)).
		Order(ent.Desc(chunk.FieldCreatedAt)).
		Limit(sessionRecentMax).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("acb: session-recent chunks: %w", err)
	}

	out := make([]candidate, 0, len(chunks))
	for i, c := range chunks {
		if exclude[c.ID] {
			continue
		}
		out = append(out, candidate{
			item: models.ACBItem{
				Type:     "chunk",
				Text:     c.Text,
				Ref:      c.ID,
				Score:    float64(len(chunks) - i),
				TokenEst: c.TokenEst,
			},
			contentHash: c.ContentHash,
			simhash:     c.Simhash,
		})
	}
	return out, nil
}

func (b *Builder) toolStateCandidates(ctx context.Context, tenantID, sessionID string) ([]candidate, error) {
	if sessionID == "" {
		return nil, nil
	}
	chunks, err := b.store.Client().Chunk.Query().
		Where(chunk.TenantID(tenantID), chunk.SessionID(sessionID), chunk.KindEQ(chunk.KindToolResult)).
		Order(ent.Desc(chunk.FieldCreatedAt)).
		Limit(toolStateMax).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("acb: tool-state chunks: %w", err)
	}

	out := make([]candidate, 0, len(chunks))
	for i, c := range chunks {
		out = append(out, candidate{
			item: models.ACBItem{
				Type:     "chunk",
				Text:     c.Text,
				Ref:      c.ID,
				Score:    float64(len(chunks) - i),
				TokenEst: c.TokenEst,
			},
			contentHash: c.ContentHash,
			simhash:     c.Simhash,
		})
	}
	return out, nil
}
