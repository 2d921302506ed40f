package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// MemoryEdit holds the schema definition for the MemoryEdit entity.
// An explicit surgical operation on existing memory: retract, amend,
// quarantine, attenuate, or block. Always reason-stamped and auditable.
type MemoryEdit struct {
	ent.Schema
}

// Fields of the MemoryEdit.
func (MemoryEdit) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("edit_id").
			Unique().
			Immutable().
			Comment("prefix med_"),
		field.String("tenant_id").
			Immutable(),
		field.Enum("op").
			Values("retract", "amend", "quarantine", "attenuate", "block").
			Immutable(),
		field.String("target_type").
			Immutable().
			Comment("chunk | decision | capsule"),
		field.String("target_id").
			Immutable(),
		field.Text("reason"),
		field.Enum("proposed_by").
			Values("human", "agent").
			Immutable(),
		field.Enum("status").
			Values("pending", "approved", "rejected").
			Default("pending"),
		field.Text("patch_text").
			Optional().
			Nillable(),
		field.Float("patch_importance").
			Optional().
			Nillable(),
		field.Float("patch_importance_delta").
			Optional().
			Nillable(),
		field.String("patch_channel").
			Optional().
			Nillable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("resolved_at").
			Optional().
			Nillable(),
	}
}

// Edges of the MemoryEdit.
func (MemoryEdit) Edges() []ent.Edge {
	return nil
}

// Indexes of the MemoryEdit.
func (MemoryEdit) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "status", "created_at"),
		index.Fields("target_type", "target_id"),
	}
}
