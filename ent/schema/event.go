package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Event holds the schema definition for the Event entity.
// Ground truth of an interaction step; append-only, never mutated.
type Event struct {
	ent.Schema
}

// Fields of the Event.
func (Event) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("event_id").
			Unique().
			Immutable().
			Comment("ULID-like, monotonic per tenant-day, prefix evt_"),
		field.String("tenant_id").
			Immutable(),
		field.String("session_id").
			Immutable(),
		field.String("agent_id").
			Immutable(),
		field.Enum("channel").
			Values("private", "public", "team", "agent").
			Immutable(),
		field.Enum("actor_type").
			Values("human", "agent", "tool").
			Immutable(),
		field.String("actor_id").
			Immutable(),
		field.Enum("kind").
			Values("message", "tool_call", "tool_result", "decision", "task_update", "artifact_ref").
			Immutable(),
		field.Enum("sensitivity").
			Values("none", "low", "high", "secret").
			Default("none").
			Immutable(),
		field.JSON("tags", []string{}).
			Optional().
			Immutable(),
		field.JSON("content", map[string]any{}).
			Comment("Structured payload; excerpted for tool results").
			Immutable(),
		field.JSON("refs", []string{}).
			Optional().
			Immutable().
			Comment("Event/chunk ids this event cites"),
		field.String("content_hash").
			Immutable(),
		field.Int("token_est").
			Immutable().
			Comment("Deterministic tokenizer-approximation"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("deleted_at").
			Optional().
			Nillable().
			Comment("Set only by retention/GDPR operations"),
	}
}

// Edges of the Event.
func (Event) Edges() []ent.Edge {
	return nil
}

// Indexes of the Event.
func (Event) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "created_at"),
		index.Fields("tenant_id", "session_id", "created_at"),
		index.Fields("tenant_id", "kind"),
		index.Fields("content_hash"),
		index.Fields("deleted_at").
			Annotations(entsql.IndexWhere("deleted_at IS NOT NULL")),
	}
}

// Annotations of the Event.
// GIN trigram index over content_hash lookups is unnecessary; chunk text carries
// the GIN tsvector index used for lexical retrieval (see pkg/database/migrations.go).
func (Event) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}
