// Package audit writes one immutable AuditLog row per security-relevant
// request outcome: every write and every denied/failed operation the
// daemon handles.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shared-memory/memoryd/ent"
	"github.com/shared-memory/memoryd/pkg/models"
)

// Logger appends AuditLog rows through the same ent Tx/Create idiom used
// throughout the daemon's write paths.
type Logger struct {
	client *ent.Client
}

// New builds a Logger over client.
func New(client *ent.Client) *Logger {
	return &Logger{client: client}
}

// Record inserts one AuditLog row for entry. It never returns
// ErrNotFound-style sentinel errors to the caller: a failure to persist
// the audit record of an otherwise-successful request is itself logged by
// the caller via its own error handling, not retried here.
func (l *Logger) Record(ctx context.Context, entry models.RecordAuditEntry) error {
	if entry.TenantID == "" {
		return fmt.Errorf("audit: tenant_id is required")
	}
	if entry.EventType == "" {
		return fmt.Errorf("audit: event_type is required")
	}
	if entry.Action == "" {
		return fmt.Errorf("audit: action is required")
	}
	if entry.Outcome == "" {
		return fmt.Errorf("audit: outcome is required")
	}
	if entry.ActorType == "" {
		return fmt.Errorf("audit: actor_type is required")
	}
	if entry.ActorID == "" {
		return fmt.Errorf("audit: actor_id is required")
	}

	tx, err := l.client.Tx(ctx)
	if err != nil {
		return fmt.Errorf("audit: begin transaction: %w", err)
	}
	defer tx.Rollback()

	builder := tx.AuditLog.Create().
		SetID("aud_" + uuid.New().String()).
		SetTenantID(entry.TenantID).
		SetEventType(entry.EventType).
		SetAction(entry.Action).
		SetOutcome(entry.Outcome).
		SetActorType(entry.ActorType).
		SetActorID(entry.ActorID).
		SetCreatedAt(time.Now())

	if entry.ResourceType != "" {
		builder.SetResourceType(entry.ResourceType)
	}
	if entry.ResourceID != "" {
		builder.SetResourceID(entry.ResourceID)
	}
	if entry.Details != nil {
		builder.SetDetails(entry.Details)
	}

	if _, err := builder.Save(ctx); err != nil {
		return fmt.Errorf("audit: save entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("audit: commit: %w", err)
	}
	return nil
}

// Outcome constants cover the taxonomy this daemon writes; callers may
// pass any other non-empty string for operation-specific outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
	OutcomeFailed  = "failed"
)
