package daemon

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shared-memory/memoryd/pkg/models"
)

func mustParams(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestExportThread_JSONIncludesRecordedEvent(t *testing.T) {
	s := newTestServer(t, "")
	ctx := context.Background()

	_, err := s.recorder.AppendEvent(ctx, models.RecordEventRequest{
		TenantID:  "tenant-a",
		SessionID: "sess-1",
		AgentID:   "agent-1",
		Channel:   "private",
		ActorType: "agent",
		ActorID:   "agent-1",
		Kind:      "message",
		Content:   map[string]any{"text": "first message in the thread"},
	})
	require.NoError(t, err)

	result, err := s.rpcExportThread(ctx, mustParams(t, models.ExportThreadRequest{
		TenantID:  "tenant-a",
		SessionID: "sess-1",
		Format:    "json",
	}))
	require.NoError(t, err)

	bundle, ok := result.(*models.ExportBundle)
	require.True(t, ok)
	assert.Len(t, bundle.Events, 1)
}

func TestExportThread_MarkdownRendersAsString(t *testing.T) {
	s := newTestServer(t, "")
	ctx := context.Background()

	result, err := s.rpcExportThread(ctx, mustParams(t, models.ExportThreadRequest{
		TenantID:  "tenant-a",
		SessionID: "sess-1",
		Format:    "markdown",
	}))
	require.NoError(t, err)

	doc, ok := result.(string)
	require.True(t, ok)
	assert.Contains(t, doc, "# Memory export: tenant-a")
}

func TestExportThread_UnknownFormatIsValidationError(t *testing.T) {
	s := newTestServer(t, "")
	_, err := s.rpcExportThread(context.Background(), mustParams(t, models.ExportThreadRequest{
		TenantID:  "tenant-a",
		SessionID: "sess-1",
		Format:    "pdf",
	}))
	require.Error(t, err)
	assert.Equal(t, codeValidationError, errorCode(err))
}

func TestExportAll_IncludesEveryEntityType(t *testing.T) {
	s := newTestServer(t, "")
	ctx := context.Background()

	_, err := s.recorder.AppendEvent(ctx, models.RecordEventRequest{
		TenantID:  "tenant-b",
		SessionID: "sess-1",
		AgentID:   "agent-1",
		Channel:   "private",
		ActorType: "agent",
		ActorID:   "agent-1",
		Kind:      "message",
		Content:   map[string]any{"text": "export me"},
	})
	require.NoError(t, err)

	result, err := s.rpcExportAll(ctx, mustParams(t, models.ExportAllRequest{TenantID: "tenant-b", Format: "json"}))
	require.NoError(t, err)

	bundle, ok := result.(*models.ExportBundle)
	require.True(t, ok)
	assert.Len(t, bundle.Events, 1)
	assert.Len(t, bundle.Chunks, 1)
}
