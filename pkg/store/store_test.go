package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testdb "github.com/shared-memory/memoryd/test/database"

	"github.com/shared-memory/memoryd/pkg/models"
)

func TestCreateEventAndChunkInTx(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()

	tx, err := client.Client.Tx(ctx)
	require.NoError(t, err)

	ev, err := CreateEventInTx(ctx, tx, models.RecordEventRequest{
		TenantID:  "tenant-a",
		SessionID: "sess-1",
		AgentID:   "agent-1",
		Channel:   "private",
		ActorType: "agent",
		ActorID:   "agent-1",
		Kind:      "message",
		Content:   map[string]any{"text": "hello"},
	}, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)

	c, err := CreateChunkInTx(ctx, tx, CreateChunkParams{
		TenantID:    "tenant-a",
		EventID:     ev.ID,
		SessionID:   "sess-1",
		Kind:        "message",
		Channel:     "private",
		TokenEst:    10,
		Text:        "hello",
		ContentHash: "hash-1",
	})
	require.NoError(t, err)
	assert.Equal(t, ev.ID, c.EventID)

	require.NoError(t, tx.Commit())

	store := New(client.Client)
	got, err := store.GetChunk(ctx, "tenant-a", c.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)
}

func TestDecision_SupersedeAndList(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()
	s := New(client.Client)

	tx, err := client.Client.Tx(ctx)
	require.NoError(t, err)
	d, err := CreateDecisionInTx(ctx, tx, "tenant-a", "sess-1", models.RecordDecisionRequest{
		Scope:    "project",
		Decision: "use postgres",
		Refs:     []string{"evt_1"},
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.NoError(t, s.SupersedeDecision(ctx, "tenant-a", d.ID))

	got, err := s.GetDecision(ctx, "tenant-a", d.ID)
	require.NoError(t, err)
	assert.Equal(t, "superseded", string(got.Status))

	active, err := s.ActiveDecisions(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestDecision_RequiresNonEmptyRefs(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()

	tx, err := client.Client.Tx(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = CreateDecisionInTx(ctx, tx, "tenant-a", "sess-1", models.RecordDecisionRequest{
		Scope:    "project",
		Decision: "use postgres",
	})
	assert.Error(t, err)
}

func TestTask_CreateAndClose(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()
	s := New(client.Client)

	tsk, err := s.CreateTask(ctx, models.CreateTaskRequest{TenantID: "tenant-a", Title: "fix bug"})
	require.NoError(t, err)

	active, err := s.ActiveTasks(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, s.UpdateTaskStatus(ctx, "tenant-a", tsk.ID, "done"))

	got, err := s.GetTask(ctx, "tenant-a", tsk.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.ClosedAt)

	active, err = s.ActiveTasks(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestHandoff_IdentityThread(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()
	s := New(client.Client)

	_, err := s.CreateHandoff(ctx, models.CreateHandoffRequest{
		TenantID:  "tenant-a",
		SessionID: "sess-1",
		AgentID:   "agent-1",
		Becoming:  "more careful about prod changes",
	})
	require.NoError(t, err)

	_, err = s.CreateHandoff(ctx, models.CreateHandoffRequest{
		TenantID:  "tenant-a",
		SessionID: "sess-2",
		AgentID:   "agent-1",
	})
	require.NoError(t, err)

	thread, err := s.IdentityThread(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Len(t, thread, 1)
	assert.Equal(t, "more careful about prod changes", thread[0].Becoming)
}

func TestCapsule_AvailableCapsulesFiltersByAudience(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()
	s := New(client.Client)

	_, err := s.CreateCapsule(ctx, models.CreateCapsuleRequest{
		TenantID:         "tenant-a",
		Scope:            "project-x",
		SubjectType:      "agent",
		SubjectID:        "agent-2",
		AuthorAgentID:    "agent-1",
		AudienceAgentIDs: []string{"agent-2"},
		TTLDays:          7,
	})
	require.NoError(t, err)

	visible, err := s.AvailableCapsules(ctx, models.AvailableCapsulesRequest{TenantID: "tenant-a", AgentID: "agent-2"})
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	notVisible, err := s.AvailableCapsules(ctx, models.AvailableCapsulesRequest{TenantID: "tenant-a", AgentID: "agent-3"})
	require.NoError(t, err)
	assert.Empty(t, notVisible)
}

func TestPrinciple_ReinforceAndDecay(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()
	s := New(client.Client)

	p, err := s.CreatePrinciple(ctx, CreatePrincipleParams{
		TenantID:         "tenant-a",
		Principle:        "prefer small PRs",
		Confidence:       0.3,
		SourceHandoffIDs: []string{"ho_1"},
	})
	require.NoError(t, err)

	require.NoError(t, s.ReinforcePrinciple(ctx, p.ID, 0.5, "ho_2"))

	list, err := s.ListPrinciples(ctx, models.SemanticPrincipleFilters{TenantID: "tenant-a"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 0.5, list[0].Confidence)
	assert.Equal(t, 2, list[0].SourceCount)

	require.NoError(t, s.DecayPrinciple(ctx, p.ID, 0.1))
	decayable, err := s.DecayablePrinciples(ctx, "tenant-a", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, decayable, 1)
}

func TestReport_RecentReports(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()
	s := New(client.Client)

	now := time.Now()
	_, err := s.CreateReport(ctx, CreateReportParams{
		TenantID:   "tenant-a",
		JobType:    "handoffs",
		StartedAt:  now,
		FinishedAt: now,
	})
	require.NoError(t, err)

	reports, err := s.RecentReports(ctx, "tenant-a", 5)
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}
