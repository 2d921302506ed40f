package handoff

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testdb "github.com/shared-memory/memoryd/test/database"

	"github.com/shared-memory/memoryd/ent/chunk"
	"github.com/shared-memory/memoryd/pkg/config"
	"github.com/shared-memory/memoryd/pkg/masking"
	"github.com/shared-memory/memoryd/pkg/models"
	"github.com/shared-memory/memoryd/pkg/recorder"
	"github.com/shared-memory/memoryd/pkg/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	client := testdb.NewTestClient(t)
	st := store.New(client.Client)
	rec := recorder.New(st, masking.New(""), nil, config.DefaultIngestionConfig(), config.DefaultPrivacyConfig())
	return New(st, rec, config.DefaultHandoffConfig()), st
}

func TestCreateHandoff_DerivesRetrievableChunk(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	resp, err := svc.CreateHandoff(ctx, models.CreateHandoffRequest{
		TenantID:     "tenant-a",
		SessionID:    "sess-1",
		AgentID:      "agent-1",
		Experienced:  "debugged a flaky test all afternoon",
		Significance: 0.2,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Handoff.ID)

	chunks, err := st.Client().Chunk.Query().
		Where(chunk.TenantID("tenant-a"), chunk.SessionID("sess-1")).
		All(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
}

func TestCreateHandoff_EmitsDecisionAboveThreshold(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	resp, err := svc.CreateHandoff(ctx, models.CreateHandoffRequest{
		TenantID:     "tenant-a",
		SessionID:    "sess-1",
		AgentID:      "agent-1",
		Becoming:     "becoming more careful about production rollouts",
		Significance: 0.9,
	})
	require.NoError(t, err)

	decisions, err := st.ActiveDecisions(ctx, "tenant-a")
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, "becoming more careful about production rollouts", decisions[0].Decision)
	assert.Contains(t, decisions[0].Refs, resp.Handoff.ID)
}

func TestCreateHandoff_NoDecisionBelowThreshold(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateHandoff(ctx, models.CreateHandoffRequest{
		TenantID:     "tenant-a",
		SessionID:    "sess-1",
		AgentID:      "agent-1",
		Learned:      "minor detail",
		Significance: 0.1,
	})
	require.NoError(t, err)

	decisions, err := st.ActiveDecisions(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Empty(t, decisions)
}

func TestCreateHandoff_RejectsMissingTenant(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateHandoff(context.Background(), models.CreateHandoffRequest{
		SessionID: "sess-1",
		AgentID:   "agent-1",
	})
	require.Error(t, err)
}

func TestGetWakeUp_ComposesContinuityContext(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateHandoff(ctx, models.CreateHandoffRequest{
		TenantID:     "tenant-a",
		SessionID:    "sess-1",
		AgentID:      "agent-1",
		Becoming:     "becoming more deliberate",
		Significance: 0.9,
	})
	require.NoError(t, err)

	_, err = st.CreateTask(ctx, models.CreateTaskRequest{TenantID: "tenant-a", Title: "finish the migration"})
	require.NoError(t, err)

	wake, err := svc.GetWakeUp(ctx, "tenant-a")
	require.NoError(t, err)
	require.NotNil(t, wake.LatestHandoff)
	assert.Len(t, wake.IdentityThread, 1)
	assert.Len(t, wake.ActiveDecisions, 1)
	assert.Len(t, wake.ActiveTasks, 1)
}

func TestListHandoffs_ReturnsNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateHandoff(ctx, models.CreateHandoffRequest{
		TenantID: "tenant-a", SessionID: "sess-1", AgentID: "agent-1", Experienced: "first",
	})
	require.NoError(t, err)
	_, err = svc.CreateHandoff(ctx, models.CreateHandoffRequest{
		TenantID: "tenant-a", SessionID: "sess-1", AgentID: "agent-1", Experienced: "second",
	})
	require.NoError(t, err)

	hs, err := svc.ListHandoffs(ctx, models.HandoffFilters{TenantID: "tenant-a"})
	require.NoError(t, err)
	require.Len(t, hs, 2)
	assert.Equal(t, "second", hs[0].Experienced)
}
