package retrieval

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testdb "github.com/shared-memory/memoryd/test/database"

	"github.com/shared-memory/memoryd/pkg/config"
	"github.com/shared-memory/memoryd/pkg/embedding"
	"github.com/shared-memory/memoryd/pkg/masking"
	"github.com/shared-memory/memoryd/pkg/models"
	"github.com/shared-memory/memoryd/pkg/recorder"
	"github.com/shared-memory/memoryd/pkg/store"
)

func newTestService(t *testing.T, embedder embedding.Embedder) (*Service, *recorder.Recorder, *store.Store) {
	client := testdb.NewTestClient(t)
	st := store.New(client.Client)
	rec := recorder.New(st, masking.New(""), nil, config.DefaultIngestionConfig(), config.DefaultPrivacyConfig())
	svc := New(st, client.DB(), embedder, config.DefaultScoringConfig(), config.DefaultRetrievalConfig(), config.DefaultPrivacyConfig())
	return svc, rec, st
}

func recordMessage(t *testing.T, rec *recorder.Recorder, tenantID, sessionID, channel, text string, tags []string) string {
	t.Helper()
	resp, err := rec.AppendEvent(context.Background(), models.RecordEventRequest{
		TenantID:  tenantID,
		SessionID: sessionID,
		AgentID:   "agent-1",
		Channel:   channel,
		ActorType: "agent",
		ActorID:   "agent-1",
		Kind:      "message",
		Tags:      tags,
		Content:   map[string]any{"text": text},
	})
	require.NoError(t, err)
	require.Len(t, resp.ChunkIDs, 1)
	return resp.ChunkIDs[0]
}

func TestRetrieve_LexicalMatchRanksAboveUnrelated(t *testing.T) {
	svc, rec, _ := newTestService(t, nil)
	ctx := context.Background()

	match := recordMessage(t, rec, "tenant-a", "sess-1", "private", "we decided to use postgres for durable storage", nil)
	recordMessage(t, rec, "tenant-a", "sess-1", "private", "completely unrelated chatter about lunch plans", nil)

	resp, err := svc.Retrieve(ctx, models.RetrieveRequest{
		TenantID:  "tenant-a",
		Channel:   "private",
		AgentID:   "agent-1",
		SessionID: "sess-1",
		QueryText: "postgres storage",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Chunks)
	assert.Equal(t, match, resp.Chunks[0].Chunk.ID)
	assert.Greater(t, resp.Chunks[0].LexicalScore, 0.0)
}

func TestRetrieve_SuppressesDisallowedSensitivityForChannel(t *testing.T) {
	svc, rec, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := rec.AppendEvent(ctx, models.RecordEventRequest{
		TenantID:    "tenant-a",
		SessionID:   "sess-1",
		AgentID:     "agent-1",
		Channel:     "private",
		ActorType:   "agent",
		ActorID:     "agent-1",
		Kind:        "message",
		Sensitivity: "high",
		Content:     map[string]any{"text": "sensitive architecture notes about postgres"},
	})
	require.NoError(t, err)

	resp, err := svc.Retrieve(ctx, models.RetrieveRequest{
		TenantID:  "tenant-a",
		Channel:   "public",
		AgentID:   "agent-1",
		SessionID: "sess-1",
		QueryText: "postgres architecture",
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Chunks)
}

func TestRetrieve_PinnedChunkAlwaysInPool(t *testing.T) {
	svc, rec, st := newTestService(t, nil)
	ctx := context.Background()

	id := recordMessage(t, rec, "tenant-a", "sess-1", "private", "totally unrelated to the query terms below", nil)
	require.NoError(t, st.SetChunkPinned(ctx, "tenant-a", id, true))

	resp, err := svc.Retrieve(ctx, models.RetrieveRequest{
		TenantID:  "tenant-a",
		Channel:   "private",
		AgentID:   "agent-1",
		SessionID: "sess-1",
		QueryText: "something else entirely",
	})
	require.NoError(t, err)
	var found bool
	for _, c := range resp.Chunks {
		if c.Chunk.ID == id {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRetrieve_VectorFusionBoostsSemanticMatch(t *testing.T) {
	svc, rec, st := newTestService(t, embedding.NewLocal())
	ctx := context.Background()

	id := recordMessage(t, rec, "tenant-a", "sess-1", "private", "some message", nil)
	vec, err := embedding.NewLocal().Embed(ctx, "some message")
	require.NoError(t, err)

	raw := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(f))
	}
	require.NoError(t, st.SetChunkEmbedding(ctx, id, raw))

	resp, err := svc.Retrieve(ctx, models.RetrieveRequest{
		TenantID:  "tenant-a",
		Channel:   "private",
		AgentID:   "agent-1",
		SessionID: "sess-1",
		QueryText: "some message",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Chunks)
	assert.Equal(t, id, resp.Chunks[0].Chunk.ID)
	assert.Greater(t, resp.Chunks[0].VectorScore, 0.0)
}

