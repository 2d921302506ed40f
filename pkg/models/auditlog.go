package models

import "github.com/shared-memory/memoryd/ent"

// RecordAuditEntry is the internal payload used by pkg/audit to append a
// security-relevant event. Never exposed directly on the tool surface.
type RecordAuditEntry struct {
	TenantID     string         `json:"tenant_id"`
	EventType    string         `json:"event_type"`
	Action       string         `json:"action"`
	Outcome      string         `json:"outcome"`
	ResourceType string         `json:"resource_type,omitempty"`
	ResourceID   string         `json:"resource_id,omitempty"`
	ActorType    string         `json:"actor_type"`
	ActorID      string         `json:"actor_id"`
	Details      map[string]any `json:"details,omitempty"`
}

// AuditLogResponse wraps an AuditLog for operator inspection reads.
type AuditLogResponse struct {
	*ent.AuditLog
}
