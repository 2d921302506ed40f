package acb

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testdb "github.com/shared-memory/memoryd/test/database"

	"github.com/shared-memory/memoryd/pkg/config"
	"github.com/shared-memory/memoryd/pkg/masking"
	"github.com/shared-memory/memoryd/pkg/models"
	"github.com/shared-memory/memoryd/pkg/recorder"
	"github.com/shared-memory/memoryd/pkg/retrieval"
	"github.com/shared-memory/memoryd/pkg/store"
)

func newTestBuilder(t *testing.T) (*Builder, *recorder.Recorder, *store.Store) {
	client := testdb.NewTestClient(t)
	st := store.New(client.Client)
	rec := recorder.New(st, masking.New(""), nil, config.DefaultIngestionConfig(), config.DefaultPrivacyConfig())
	retrievalSvc := retrieval.New(st, client.DB(), nil, config.DefaultScoringConfig(), config.DefaultRetrievalConfig(), config.DefaultPrivacyConfig())
	b := New(st, retrievalSvc, config.DefaultACBConfig(), config.DefaultPrivacyConfig())
	return b, rec, st
}

func recordMessage(t *testing.T, rec *recorder.Recorder, tenantID, sessionID, text string) string {
	t.Helper()
	resp, err := rec.AppendEvent(context.Background(), models.RecordEventRequest{
		TenantID:  tenantID,
		SessionID: sessionID,
		AgentID:   "agent-1",
		Channel:   "private",
		ActorType: "agent",
		ActorID:   "agent-1",
		Kind:      "message",
		Content:   map[string]any{"text": text},
	})
	require.NoError(t, err)
	require.Len(t, resp.ChunkIDs, 1)
	return resp.ChunkIDs[0]
}

func TestBuild_ReturnsStandingSectionsForFastPathIntent(t *testing.T) {
	b, rec, st := newTestBuilder(t)
	ctx := context.Background()

	recordMessage(t, rec, "tenant-a", "sess-1", "we decided to use postgres for durable storage")
	_, err := st.CreatePrinciple(ctx, store.CreatePrincipleParams{
		TenantID:   "tenant-a",
		Principle:  "always confirm destructive actions before running them",
		Confidence: 0.8,
	})
	require.NoError(t, err)

	acbResp, err := b.Build(ctx, models.BuildACBRequest{
		TenantID:  "tenant-a",
		SessionID: "sess-1",
		AgentID:   "agent-1",
		Channel:   "private",
		Intent:    "continue",
		QueryText: "what were we doing",
	})
	require.NoError(t, err)
	require.NotNil(t, acbResp)
	assert.Equal(t, 0, acbResp.Provenance.CandidatePoolSize, "fast-path intents never call Retrieval")

	var identity *models.ACBSection
	for i := range acbResp.Sections {
		if acbResp.Sections[i].Name == sectionIdentity {
			identity = &acbResp.Sections[i]
		}
	}
	require.NotNil(t, identity)
	require.Len(t, identity.Items, 1)
	assert.Equal(t, "principle", identity.Items[0].Type)
}

func TestBuild_NonFastPathRunsRetrieval(t *testing.T) {
	b, rec, _ := newTestBuilder(t)
	ctx := context.Background()

	recordMessage(t, rec, "tenant-a", "sess-1", "we decided to use postgres for durable storage")
	recordMessage(t, rec, "tenant-a", "sess-1", "completely unrelated chatter about lunch plans")

	acbResp, err := b.Build(ctx, models.BuildACBRequest{
		TenantID:  "tenant-a",
		SessionID: "sess-1",
		AgentID:   "agent-1",
		Channel:   "private",
		QueryText: "postgres storage",
	})
	require.NoError(t, err)
	assert.Greater(t, acbResp.Provenance.CandidatePoolSize, 0)

	var evidence *models.ACBSection
	for i := range acbResp.Sections {
		if acbResp.Sections[i].Name == sectionRetrievedEvidence {
			evidence = &acbResp.Sections[i]
		}
	}
	require.NotNil(t, evidence)
	require.NotEmpty(t, evidence.Items)
	assert.True(t, strings.Contains(evidence.Items[0].Text, "postgres"))
}

func TestBuild_BudgetImpossibleWhenIdentityAndRulesExceedBudget(t *testing.T) {
	b, _, st := newTestBuilder(t)
	ctx := context.Background()

	huge := strings.Repeat("word ", 5000)
	for i := 0; i < 5; i++ {
		_, err := st.CreatePrinciple(ctx, store.CreatePrincipleParams{
			TenantID:   "tenant-a",
			Principle:  huge,
			Confidence: 0.9,
		})
		require.NoError(t, err)
	}

	_, err := b.Build(ctx, models.BuildACBRequest{
		TenantID:      "tenant-a",
		Channel:       "private",
		QueryText:     "anything",
		MaxTokens:     1000,
		ReserveTokens: 100,
	})
	assert.ErrorIs(t, err, ErrBudgetImpossible)
}

func TestBuild_DedupesNearIdenticalChunksAcrossSections(t *testing.T) {
	b, rec, _ := newTestBuilder(t)
	ctx := context.Background()

	recordMessage(t, rec, "tenant-a", "sess-1", "we decided to use postgres for durable storage of session data")
	recordMessage(t, rec, "tenant-a", "sess-1", "we decided to use postgres for durable storage of session data today")

	acbResp, err := b.Build(ctx, models.BuildACBRequest{
		TenantID:  "tenant-a",
		SessionID: "sess-1",
		AgentID:   "agent-1",
		Channel:   "private",
		QueryText: "postgres storage",
	})
	require.NoError(t, err)

	var total int
	for _, s := range acbResp.Sections {
		total += len(s.Items)
	}
	assert.Less(t, total, 2, "near-duplicate chunks across retrieved_evidence/recent_window should dedupe to at most one")

	var dedupeOmission bool
	for _, o := range acbResp.Omissions {
		if o.Reason == "dedupe" {
			dedupeOmission = true
		}
	}
	assert.True(t, dedupeOmission)
}
