package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AuditLog holds the schema definition for the AuditLog entity.
// Append-only record of security-relevant events.
type AuditLog struct {
	ent.Schema
}

// Fields of the AuditLog.
func (AuditLog) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("audit_id").
			Unique().
			Immutable(),
		field.String("tenant_id").
			Immutable(),
		field.String("event_type").
			Immutable(),
		field.String("action").
			Immutable(),
		field.String("outcome").
			Immutable(),
		field.String("resource_type").
			Optional().
			Nillable(),
		field.String("resource_id").
			Optional().
			Nillable(),
		field.String("actor_type").
			Immutable(),
		field.String("actor_id").
			Immutable(),
		field.JSON("details", map[string]any{}).
			Optional(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the AuditLog.
func (AuditLog) Edges() []ent.Edge {
	return nil
}

// Indexes of the AuditLog.
func (AuditLog) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "created_at"),
		index.Fields("event_type"),
	}
}
