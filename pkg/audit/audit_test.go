package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testdb "github.com/shared-memory/memoryd/test/database"

	"github.com/shared-memory/memoryd/pkg/models"
)

func TestRecord_InsertsRow(t *testing.T) {
	client := testdb.NewTestClient(t)
	logger := New(client.Client)

	err := logger.Record(context.Background(), models.RecordAuditEntry{
		TenantID:  "tenant-a",
		EventType: "record_event",
		Action:    "create",
		Outcome:   OutcomeSuccess,
		ActorType: "agent",
		ActorID:   "agent-1",
	})
	require.NoError(t, err)

	rows, err := client.Client.AuditLog.Query().All(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "tenant-a", rows[0].TenantID)
	assert.Equal(t, OutcomeSuccess, rows[0].Outcome)
}

func TestRecord_WithResourceAndDetails(t *testing.T) {
	client := testdb.NewTestClient(t)
	logger := New(client.Client)

	err := logger.Record(context.Background(), models.RecordAuditEntry{
		TenantID:     "tenant-a",
		EventType:    "get_wake_up",
		Action:       "read",
		Outcome:      OutcomeDenied,
		ResourceType: "handoff",
		ResourceID:   "hnd_123",
		ActorType:    "agent",
		ActorID:      "agent-2",
		Details:      map[string]any{"reason": "channel_suppressed"},
	})
	require.NoError(t, err)

	row, err := client.Client.AuditLog.Query().Only(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "handoff", *row.ResourceType)
	assert.Equal(t, "hnd_123", *row.ResourceID)
	assert.Equal(t, "channel_suppressed", row.Details["reason"])
}

func TestRecord_MissingRequiredFieldFails(t *testing.T) {
	client := testdb.NewTestClient(t)
	logger := New(client.Client)

	err := logger.Record(context.Background(), models.RecordAuditEntry{
		EventType: "record_event",
		Action:    "create",
		Outcome:   OutcomeSuccess,
		ActorType: "agent",
		ActorID:   "agent-1",
	})
	assert.Error(t, err)

	count, err := client.Client.AuditLog.Query().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
