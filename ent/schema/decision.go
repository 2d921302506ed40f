package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Decision holds the schema definition for the Decision entity.
// A first-class, traceable choice. Never hard-deleted.
type Decision struct {
	ent.Schema
}

// Fields of the Decision.
func (Decision) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("decision_id").
			Unique().
			Immutable().
			Comment("prefix dec_"),
		field.String("tenant_id").
			Immutable(),
		field.String("session_id").
			Optional(),
		field.Enum("status").
			Values("active", "superseded").
			Default("active"),
		field.Enum("scope").
			Values("project", "user", "global").
			Default("project"),
		field.Text("decision").
			Comment("The decision text"),
		field.Text("rationale").
			Optional(),
		field.JSON("constraints", []string{}).
			Optional(),
		field.JSON("alternatives", []string{}).
			Optional(),
		field.JSON("consequences", []string{}).
			Optional(),
		field.JSON("refs", []string{}).
			Comment("Non-empty; supporting event/chunk ids and, when superseding, the predecessor id"),
		field.Bool("pinned").
			Default(false).
			Comment("Excluded from archival while pinned"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("superseded_at").
			Optional().
			Nillable(),
		field.Time("archived_at").
			Optional().
			Nillable().
			Comment("Set by the Consolidator's decision-archival job"),
	}
}

// Edges of the Decision.
func (Decision) Edges() []ent.Edge {
	return nil
}

// Indexes of the Decision.
func (Decision) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "status", "created_at"),
		index.Fields("tenant_id", "scope"),
	}
}
