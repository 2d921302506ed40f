package recorder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testdb "github.com/shared-memory/memoryd/test/database"

	"github.com/shared-memory/memoryd/pkg/config"
	"github.com/shared-memory/memoryd/pkg/masking"
	"github.com/shared-memory/memoryd/pkg/models"
	"github.com/shared-memory/memoryd/pkg/store"
	"github.com/shared-memory/memoryd/pkg/tokenest"
)

func newTestRecorder(t *testing.T) *Recorder {
	client := testdb.NewTestClient(t)
	return New(store.New(client.Client), masking.New(""), nil, config.DefaultIngestionConfig(), config.DefaultPrivacyConfig())
}

func TestAppendEvent_Message(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	resp, err := r.AppendEvent(ctx, models.RecordEventRequest{
		TenantID:  "tenant-a",
		SessionID: "sess-1",
		AgentID:   "agent-1",
		Channel:   "private",
		ActorType: "agent",
		ActorID:   "agent-1",
		Kind:      "message",
		Content:   map[string]any{"text": "we should use postgres for this"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.EventID)
	assert.Len(t, resp.ChunkIDs, 1)
	assert.False(t, resp.Deferred)
}

func TestAppendEvent_RejectsMissingTenant(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	_, err := r.AppendEvent(ctx, models.RecordEventRequest{
		SessionID: "sess-1",
		AgentID:   "agent-1",
		Channel:   "private",
		ActorType: "agent",
		ActorID:   "agent-1",
		Kind:      "message",
		Content:   map[string]any{"text": "hello"},
	})
	assert.True(t, IsValidationError(err))
}

func TestAppendEvent_RejectsSecretSensitivity(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	_, err := r.AppendEvent(ctx, models.RecordEventRequest{
		TenantID:    "tenant-a",
		SessionID:   "sess-1",
		AgentID:     "agent-1",
		Channel:     "private",
		ActorType:   "agent",
		ActorID:     "agent-1",
		Kind:        "message",
		Sensitivity: "secret",
		Content:     map[string]any{"text": "whatever"},
	})
	assert.ErrorIs(t, err, ErrPolicyRejected)
}

func TestAppendEvent_ToolResultOverflowsToArtifact(t *testing.T) {
	r := newTestRecorder(t)
	r.ingestion.MaxBytesPerToolResultEvent = 16
	ctx := context.Background()

	resp, err := r.AppendEvent(ctx, models.RecordEventRequest{
		TenantID:  "tenant-a",
		SessionID: "sess-1",
		AgentID:   "agent-1",
		Channel:   "private",
		ActorType: "tool",
		ActorID:   "grep",
		Kind:      "tool_result",
		Content:   map[string]any{"text": "this output is definitely longer than sixteen bytes"},
	})
	require.NoError(t, err)
	require.Len(t, resp.ChunkIDs, 1)

	ev, err := r.store.GetEvent(ctx, "tenant-a", resp.EventID)
	require.NoError(t, err)
	content := ev.Content
	assert.Equal(t, true, content["truncated"])
	assert.NotEmpty(t, content["artifact_id"])
}

func TestAppendEvent_DecisionSupersedesPredecessor(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	_, err := r.AppendEvent(ctx, models.RecordEventRequest{
		TenantID:  "tenant-a",
		SessionID: "sess-1",
		AgentID:   "agent-1",
		Channel:   "private",
		ActorType: "agent",
		ActorID:   "agent-1",
		Kind:      "decision",
		Content: map[string]any{
			"scope":    "project",
			"decision": "use postgres",
			"refs":     []string{"evt_seed"},
		},
	})
	require.NoError(t, err)

	decisions, err := r.store.ListDecisions(ctx, models.DecisionFilters{TenantID: "tenant-a"})
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	firstDecisionID := decisions[0].ID

	_, err = r.AppendEvent(ctx, models.RecordEventRequest{
		TenantID:  "tenant-a",
		SessionID: "sess-1",
		AgentID:   "agent-1",
		Channel:   "private",
		ActorType: "agent",
		ActorID:   "agent-1",
		Kind:      "decision",
		Content: map[string]any{
			"scope":    "project",
			"decision": "use mysql instead",
			"refs":     []string{firstDecisionID},
		},
	})
	require.NoError(t, err)

	active, err := r.store.ActiveDecisions(ctx, "tenant-a")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.NotEqual(t, firstDecisionID, active[0].ID)

	superseded, err := r.store.GetDecision(ctx, "tenant-a", firstDecisionID)
	require.NoError(t, err)
	assert.Equal(t, "superseded", string(superseded.Status))
}

func TestAppendEvent_TaskUpdateCreatesTask(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	_, err := r.AppendEvent(ctx, models.RecordEventRequest{
		TenantID:  "tenant-a",
		SessionID: "sess-1",
		AgentID:   "agent-1",
		Channel:   "private",
		ActorType: "agent",
		ActorID:   "agent-1",
		Kind:      "task_update",
		Content:   map[string]any{"title": "migrate schema"},
	})
	require.NoError(t, err)

	active, err := r.store.ActiveTasks(ctx, "tenant-a")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "migrate schema", active[0].Title)
}

func TestDeriveChunks_LongTextSplitsWithinBounds(t *testing.T) {
	var text string
	for i := 0; i < 200; i++ {
		text += "This is a reasonably long sentence that adds tokens.\n\n"
	}

	chunks := deriveChunks(text, 20, 80)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, tokenest.Estimate(c), 80)
	}
}

func TestScoreImportance_PinnedAlwaysMax(t *testing.T) {
	assert.Equal(t, 1.0, scoreImportance("message", nil, true))
}

func TestScoreImportance_DecisionOutweighsMessage(t *testing.T) {
	assert.Greater(t, scoreImportance("decision", nil, false), scoreImportance("message", nil, false))
}
