package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Handoff holds the schema definition for the Handoff entity.
// Structured post-session continuity record. Handoffs whose `becoming`
// is non-empty form the identity thread.
type Handoff struct {
	ent.Schema
}

// Fields of the Handoff.
func (Handoff) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("handoff_id").
			Unique().
			Immutable().
			Comment("prefix ho_"),
		field.String("tenant_id").
			Immutable(),
		field.String("session_id").
			Immutable(),
		field.String("agent_id").
			Immutable(),
		field.Text("experienced").
			Optional(),
		field.Text("noticed").
			Optional(),
		field.Text("learned").
			Optional(),
		field.Text("story").
			Optional(),
		field.Text("becoming").
			Optional().
			Comment("Non-empty marks this handoff as part of the identity thread"),
		field.Text("remember").
			Optional(),
		field.Float("significance").
			Default(0).
			Comment("In [0, 1]"),
		field.JSON("tags", []string{}).
			Optional(),
		field.JSON("with_whom", []string{}).
			Optional(),
		field.Enum("compression_level").
			Values("full", "summary", "quick_ref", "integrated").
			Default("full"),
		field.Text("summary").
			Optional().
			Nillable().
			Comment("~500 tokens; populated once tiered past the summary threshold"),
		field.Text("quick_ref").
			Optional().
			Nillable().
			Comment("~100 tokens; populated once tiered past the quick_ref threshold"),
		field.JSON("source_refs", []string{}).
			Optional().
			Comment("Refs the compact tiers point back to — summary/quick_ref with empty refs is ignored by the ACB Builder"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("consolidated_at").
			Optional().
			Nillable(),
	}
}

// Edges of the Handoff.
func (Handoff) Edges() []ent.Edge {
	return nil
}

// Indexes of the Handoff.
func (Handoff) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "created_at"),
		index.Fields("tenant_id", "agent_id", "created_at"),
		index.Fields("tenant_id", "compression_level"),
		index.Fields("tenant_id", "becoming").
			Annotations(entsql.IndexWhere("becoming IS NOT NULL AND becoming <> ''")),
	}
}
