package capsule

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

func newTestService(t *testing.T) (*Service, *store.Store, *recorder.Recorder) {
	client := testdb.NewTestClient(t)
	st := store.New(client.Client)
	rec := recorder.New(st, masking.New(""), nil, config.DefaultIngestionConfig(), config.DefaultPrivacyConfig())
	return New(st), st, rec
}

func recordAgentActivity(t *testing.T, rec *recorder.Recorder, tenantID, agentID string) {
	t.Helper()
	_, err := rec.AppendEvent(context.Background(), models.RecordEventRequest{
		TenantID:  tenantID,
		SessionID: "sess-1",
		AgentID:   agentID,
		Channel:   "private",
		ActorType: "agent",
		ActorID:   agentID,
		Kind:      "message",
		Content:   map[string]any{"text": "hello from " + agentID},
	})
	require.NoError(t, err)
}

func TestCreateCapsule_RejectsUnknownAudienceAgent(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()

	recordAgentActivity(t, rec, "tenant-a", "agent-1")

	_, err := svc.CreateCapsule(ctx, models.CreateCapsuleRequest{
		TenantID:         "tenant-a",
		Scope:            "session",
		SubjectType:      "session",
		SubjectID:        "sess-1",
		AuthorAgentID:    "agent-1",
		AudienceAgentIDs: []string{"agent-ghost"},
		TTLDays:          7,
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateCapsule_RejectsUnknownChunkRef(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()

	recordAgentActivity(t, rec, "tenant-a", "agent-1")
	recordAgentActivity(t, rec, "tenant-a", "agent-2")

	_, err := svc.CreateCapsule(ctx, models.CreateCapsuleRequest{
		TenantID:         "tenant-a",
		Scope:            "session",
		SubjectType:      "session",
		SubjectID:        "sess-1",
		AuthorAgentID:    "agent-1",
		AudienceAgentIDs: []string{"agent-2"},
		ChunkRefs:        []string{"chk_does_not_exist"},
		TTLDays:          7,
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateCapsule_SucceedsWithValidRefs(t *testing.T) {
	svc, st, rec := newTestService(t)
	ctx := context.Background()

	recordAgentActivity(t, rec, "tenant-a", "agent-1")
	recordAgentActivity(t, rec, "tenant-a", "agent-2")

	chunks, err := st.Client().Chunk.Query().Where(chunk.TenantID("tenant-a")).All(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	resp, err := svc.CreateCapsule(ctx, models.CreateCapsuleRequest{
		TenantID:         "tenant-a",
		Scope:            "session",
		SubjectType:      "session",
		SubjectID:        "sess-1",
		AuthorAgentID:    "agent-1",
		AudienceAgentIDs: []string{"agent-2"},
		ChunkRefs:        []string{chunks[0].ID},
		TTLDays:          7,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Capsule.ID)
}

func TestGetAvailableCapsules_FiltersByAudience(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()

	recordAgentActivity(t, rec, "tenant-a", "agent-1")
	recordAgentActivity(t, rec, "tenant-a", "agent-2")
	recordAgentActivity(t, rec, "tenant-a", "agent-3")

	_, err := svc.CreateCapsule(ctx, models.CreateCapsuleRequest{
		TenantID:         "tenant-a",
		Scope:            "session",
		SubjectType:      "session",
		SubjectID:        "sess-1",
		AuthorAgentID:    "agent-1",
		AudienceAgentIDs: []string{"agent-2"},
		TTLDays:          7,
	})
	require.NoError(t, err)

	visible, err := svc.GetAvailableCapsules(ctx, models.AvailableCapsulesRequest{TenantID: "tenant-a", AgentID: "agent-2"})
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	notVisible, err := svc.GetAvailableCapsules(ctx, models.AvailableCapsulesRequest{TenantID: "tenant-a", AgentID: "agent-3"})
	require.NoError(t, err)
	assert.Empty(t, notVisible)
}

func TestRevokeCapsule_MarksInactive(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()

	recordAgentActivity(t, rec, "tenant-a", "agent-1")
	recordAgentActivity(t, rec, "tenant-a", "agent-2")

	resp, err := svc.CreateCapsule(ctx, models.CreateCapsuleRequest{
		TenantID:         "tenant-a",
		Scope:            "session",
		SubjectType:      "session",
		SubjectID:        "sess-1",
		AuthorAgentID:    "agent-1",
		AudienceAgentIDs: []string{"agent-2"},
		TTLDays:          7,
	})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeCapsule(ctx, models.RevokeCapsuleRequest{TenantID: "tenant-a", CapsuleID: resp.Capsule.ID}))

	visible, err := svc.GetAvailableCapsules(ctx, models.AvailableCapsulesRequest{TenantID: "tenant-a", AgentID: "agent-2"})
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestRevokeCapsule_UnknownIDIsValidationError(t *testing.T) {
	svc, _, _ := newTestService(t)
	err := svc.RevokeCapsule(context.Background(), models.RevokeCapsuleRequest{TenantID: "tenant-a", CapsuleID: "cap_missing"})
	require.ErrorIs(t, err, ErrValidation)
}
