package memoryedit

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

func recordChunk(t *testing.T, rec *recorder.Recorder, st *store.Store, tenantID string) string {
	t.Helper()
	ctx := context.Background()
	_, err := rec.AppendEvent(ctx, models.RecordEventRequest{
		TenantID:  tenantID,
		SessionID: "sess-1",
		AgentID:   "agent-1",
		Channel:   "private",
		ActorType: "agent",
		ActorID:   "agent-1",
		Kind:      "message",
		Content:   map[string]any{"text": "the deploy key lives in vault"},
	})
	require.NoError(t, err)

	chunks, err := st.Client().Chunk.Query().Where(chunk.TenantID(tenantID)).All(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	return chunks[0].ID
}

func TestPropose_RejectsUnsupportedOpTargetCombination(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Propose(context.Background(), models.ProposeMemoryEditRequest{
		TenantID:   "tenant-a",
		Op:         "attenuate",
		TargetType: "capsule",
		TargetID:   "cap_1",
		Reason:     "test",
		ProposedBy: "human",
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestPropose_RejectsMissingPatchField(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Propose(context.Background(), models.ProposeMemoryEditRequest{
		TenantID:   "tenant-a",
		Op:         "block",
		TargetType: "chunk",
		TargetID:   "chk_1",
		Reason:     "test",
		ProposedBy: "human",
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestApprove_QuarantineSetsChunkSecretSensitivity(t *testing.T) {
	svc, st, rec := newTestService(t)
	ctx := context.Background()
	chunkID := recordChunk(t, rec, st, "tenant-a")

	edit, err := svc.Propose(ctx, models.ProposeMemoryEditRequest{
		TenantID:   "tenant-a",
		Op:         "quarantine",
		TargetType: "chunk",
		TargetID:   chunkID,
		Reason:     "leaked secret",
		ProposedBy: "human",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Approve(ctx, models.ResolveMemoryEditRequest{TenantID: "tenant-a", EditID: edit.ID}))

	c, err := st.GetChunk(ctx, "tenant-a", chunkID)
	require.NoError(t, err)
	assert.Equal(t, chunk.SensitivitySecret, c.Sensitivity)
}

func TestApprove_AmendReplacesChunkText(t *testing.T) {
	svc, st, rec := newTestService(t)
	ctx := context.Background()
	chunkID := recordChunk(t, rec, st, "tenant-a")

	patch := "the deploy key lives in the secrets manager"
	edit, err := svc.Propose(ctx, models.ProposeMemoryEditRequest{
		TenantID:   "tenant-a",
		Op:         "amend",
		TargetType: "chunk",
		TargetID:   chunkID,
		Reason:     "correction",
		ProposedBy: "agent",
		PatchText:  &patch,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, models.ResolveMemoryEditRequest{TenantID: "tenant-a", EditID: edit.ID}))

	c, err := st.GetChunk(ctx, "tenant-a", chunkID)
	require.NoError(t, err)
	assert.Equal(t, patch, c.Text)
}

func TestApprove_TwiceFailsOnSecondCall(t *testing.T) {
	svc, st, rec := newTestService(t)
	ctx := context.Background()
	chunkID := recordChunk(t, rec, st, "tenant-a")

	edit, err := svc.Propose(ctx, models.ProposeMemoryEditRequest{
		TenantID:   "tenant-a",
		Op:         "retract",
		TargetType: "chunk",
		TargetID:   chunkID,
		Reason:     "no longer valid",
		ProposedBy: "human",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Approve(ctx, models.ResolveMemoryEditRequest{TenantID: "tenant-a", EditID: edit.ID}))
	require.Error(t, svc.Approve(ctx, models.ResolveMemoryEditRequest{TenantID: "tenant-a", EditID: edit.ID}))
}

func TestReject_LeavesTargetUntouched(t *testing.T) {
	svc, st, rec := newTestService(t)
	ctx := context.Background()
	chunkID := recordChunk(t, rec, st, "tenant-a")

	edit, err := svc.Propose(ctx, models.ProposeMemoryEditRequest{
		TenantID:   "tenant-a",
		Op:         "quarantine",
		TargetType: "chunk",
		TargetID:   chunkID,
		Reason:     "disputed",
		ProposedBy: "human",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Reject(ctx, models.ResolveMemoryEditRequest{TenantID: "tenant-a", EditID: edit.ID}))

	c, err := st.GetChunk(ctx, "tenant-a", chunkID)
	require.NoError(t, err)
	assert.Equal(t, chunk.SensitivityNone, c.Sensitivity)
}
