package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// SemanticPrinciple holds the schema definition for the SemanticPrinciple entity.
// Timeless extracted knowledge; confidence grows monotonically with
// reinforcement and decays over unused time.
type SemanticPrinciple struct {
	ent.Schema
}

// Fields of the SemanticPrinciple.
func (SemanticPrinciple) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("principle_id").
			Unique().
			Immutable().
			Comment("prefix sp_"),
		field.String("tenant_id").
			Immutable(),
		field.Text("principle"),
		field.Text("context").
			Optional(),
		field.String("category").
			Optional(),
		field.Float("confidence").
			Default(0.3).
			Comment("In [0, 1]; floored at 0.1 by decay"),
		field.JSON("source_handoff_ids", []string{}),
		field.Int("source_count").
			Default(1),
		field.Time("last_reinforced_at").
			Default(time.Now),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the SemanticPrinciple.
func (SemanticPrinciple) Edges() []ent.Edge {
	return nil
}

// Indexes of the SemanticPrinciple.
func (SemanticPrinciple) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "last_reinforced_at"),
		index.Fields("tenant_id", "category"),
	}
}
