package consolidator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testdb "github.com/shared-memory/memoryd/test/database"

	"github.com/shared-memory/memoryd/ent/handoff"
	"github.com/shared-memory/memoryd/pkg/config"
	"github.com/shared-memory/memoryd/pkg/masking"
	"github.com/shared-memory/memoryd/pkg/models"
	"github.com/shared-memory/memoryd/pkg/recorder"
	"github.com/shared-memory/memoryd/pkg/store"
)

func newTestConsolidator(t *testing.T) (*Service, *store.Store, *recorder.Recorder) {
	client := testdb.NewTestClient(t)
	st := store.New(client.Client)
	cfg := config.DefaultConsolidationConfig()
	rec := recorder.New(st, masking.New(""), nil, config.DefaultIngestionConfig(), config.DefaultPrivacyConfig())
	return New(st, cfg), st, rec
}

func createAgedDecision(t *testing.T, rec *recorder.Recorder, st *store.Store, tenantID string, age time.Duration) string {
	t.Helper()
	_, err := rec.AppendEvent(context.Background(), models.RecordEventRequest{
		TenantID:  tenantID,
		SessionID: "sess-1",
		AgentID:   "agent-1",
		Channel:   "private",
		ActorType: "agent",
		ActorID:   "agent-1",
		Kind:      "decision",
		Content: map[string]any{
			"scope":    "session",
			"decision": "use postgres",
			"refs":     []string{"dec_seed"},
		},
	})
	require.NoError(t, err)
	decisions, err := st.ActiveDecisions(context.Background(), tenantID)
	require.NoError(t, err)
	require.NotEmpty(t, decisions)

	var id string
	for _, d := range decisions {
		if d.Decision == "use postgres" {
			id = d.ID
		}
	}
	require.NotEmpty(t, id)

	if age > 0 {
		require.NoError(t, st.Client().Decision.UpdateOneID(id).
			SetCreatedAt(time.Now().Add(-age)).
			Exec(context.Background()))
	}
	return id
}

func createAgedHandoff(t *testing.T, st *store.Store, tenantID, becoming string, age time.Duration) string {
	t.Helper()
	h, err := st.CreateHandoff(context.Background(), models.CreateHandoffRequest{
		TenantID:    tenantID,
		SessionID:   "sess-1",
		AgentID:     "agent-1",
		Experienced: "worked through a gnarly bug",
		Becoming:    becoming,
	})
	require.NoError(t, err)

	if age > 0 {
		err := st.Client().Handoff.UpdateOneID(h.ID).
			SetCreatedAt(time.Now().Add(-age)).
			Exec(context.Background())
		require.NoError(t, err)
	}
	return h.ID
}

func TestRunOnce_HandoffsTiersFullToSummaryPastThreshold(t *testing.T) {
	svc, st, _ := newTestConsolidator(t)
	ctx := context.Background()

	id := createAgedHandoff(t, st, "tenant-a", "", 40*24*time.Hour)

	reports, err := svc.RunOnce(ctx, "tenant-a", jobHandoffs)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, jobHandoffs, reports[0].JobType.String())
	assert.Equal(t, 1, reports[0].ItemsAffected)

	h, err := st.GetHandoff(ctx, "tenant-a", id)
	require.NoError(t, err)
	assert.Equal(t, handoff.CompressionLevelSummary, h.CompressionLevel)
	require.NotNil(t, h.Summary)
	assert.NotEmpty(t, *h.Summary)
}

func TestRunOnce_HandoffsLeavesRecentFullHandoffUntouched(t *testing.T) {
	svc, st, _ := newTestConsolidator(t)
	ctx := context.Background()

	id := createAgedHandoff(t, st, "tenant-a", "", 0)

	reports, err := svc.RunOnce(ctx, "tenant-a", jobHandoffs)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 0, reports[0].ItemsAffected)

	h, err := st.GetHandoff(ctx, "tenant-a", id)
	require.NoError(t, err)
	assert.Equal(t, handoff.CompressionLevelFull, h.CompressionLevel)
}

func TestRunOnce_DecisionsArchivesPastThreshold(t *testing.T) {
	svc, st, rec := newTestConsolidator(t)
	ctx := context.Background()

	createAgedDecision(t, rec, st, "tenant-a", 90*24*time.Hour)

	reports, err := svc.RunOnce(ctx, "tenant-a", jobDecisions)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].ItemsAffected)
}

func TestRunOnce_IdentityCreatesPrincipleAtMinCount(t *testing.T) {
	svc, st, _ := newTestConsolidator(t)
	svc.cfg.IdentityConsolidationMinCount = 2
	ctx := context.Background()

	createAgedHandoff(t, st, "tenant-a", "becoming more careful about production rollouts", 0)
	createAgedHandoff(t, st, "tenant-a", "becoming more careful about production rollouts", 0)

	reports, err := svc.RunOnce(ctx, "tenant-a", jobIdentity)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].ItemsAffected)

	principles, err := st.ListPrinciples(ctx, models.SemanticPrincipleFilters{TenantID: "tenant-a"})
	require.NoError(t, err)
	require.Len(t, principles, 1)
	assert.Len(t, principles[0].SourceHandoffIds, 2)
}

func TestRunOnce_IdentityReinforcesExistingSimilarPrinciple(t *testing.T) {
	svc, st, _ := newTestConsolidator(t)
	ctx := context.Background()

	p, err := st.CreatePrinciple(ctx, store.CreatePrincipleParams{
		TenantID:         "tenant-a",
		Principle:        "becoming more careful about production rollouts",
		Confidence:       0.3,
		SourceHandoffIDs: []string{"ho_seed"},
	})
	require.NoError(t, err)

	createAgedHandoff(t, st, "tenant-a", "becoming more careful about production rollouts", 0)

	reports, err := svc.RunOnce(ctx, "tenant-a", jobIdentity)
	require.NoError(t, err)
	require.Equal(t, 1, reports[0].ItemsAffected)

	got, err := st.ListPrinciples(ctx, models.SemanticPrincipleFilters{TenantID: "tenant-a"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Greater(t, got[0].Confidence, p.Confidence)
}

func TestRunOnce_AllFansOutToThreeReports(t *testing.T) {
	svc, _, _ := newTestConsolidator(t)
	ctx := context.Background()

	reports, err := svc.RunOnce(ctx, "tenant-a", jobAll)
	require.NoError(t, err)
	assert.Len(t, reports, 3)
}

func TestRunOnce_UnknownJobTypeErrors(t *testing.T) {
	svc, _, _ := newTestConsolidator(t)
	_, err := svc.RunOnce(context.Background(), "tenant-a", "bogus")
	require.ErrorIs(t, err, ErrUnknownJobType)
}

func TestGetCompressionStats_ReflectsPriorRuns(t *testing.T) {
	svc, st, _ := newTestConsolidator(t)
	ctx := context.Background()

	createAgedHandoff(t, st, "tenant-a", "", 40*24*time.Hour)
	_, err := svc.RunOnce(ctx, "tenant-a", jobHandoffs)
	require.NoError(t, err)

	stats, err := svc.GetCompressionStats(ctx, "tenant-a")
	require.NoError(t, err)
	require.NotEmpty(t, stats.Reports)
	assert.Equal(t, 1, stats.HandoffsByTier["summary"])
}
