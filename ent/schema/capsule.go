package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Capsule holds the schema definition for the Capsule entity.
// A curated, audience-scoped, TTL-bounded share packet of
// chunks/decisions/artifacts.
type Capsule struct {
	ent.Schema
}

// Fields of the Capsule.
func (Capsule) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("capsule_id").
			Unique().
			Immutable().
			Comment("prefix cap_"),
		field.String("tenant_id").
			Immutable(),
		field.String("scope").
			Comment("Free-form scope label, e.g. project/feature"),
		field.String("subject_type"),
		field.String("subject_id"),
		field.String("author_agent_id").
			Immutable(),
		field.JSON("audience_agent_ids", []string{}),
		field.JSON("chunk_refs", []string{}).
			Optional(),
		field.JSON("decision_refs", []string{}).
			Optional(),
		field.JSON("artifact_refs", []string{}).
			Optional(),
		field.JSON("risks", []string{}).
			Optional(),
		field.Int("ttl_days"),
		field.Enum("status").
			Values("active", "revoked").
			Default("active"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("expires_at"),
		field.Time("revoked_at").
			Optional().
			Nillable(),
	}
}

// Edges of the Capsule.
func (Capsule) Edges() []ent.Edge {
	return nil
}

// Indexes of the Capsule.
func (Capsule) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "status", "expires_at"),
		index.Fields("tenant_id", "subject_type", "subject_id"),
	}
}
