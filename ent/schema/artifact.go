package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Artifact holds the schema definition for the Artifact entity.
// Out-of-band storage for oversized tool output or blobs.
type Artifact struct {
	ent.Schema
}

// Fields of the Artifact.
func (Artifact) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("artifact_id").
			Unique().
			Immutable().
			Comment("prefix art_"),
		field.String("tenant_id").
			Immutable(),
		field.String("kind").
			Immutable(),
		field.Bytes("bytes").
			Optional().
			Nillable(),
		field.String("uri").
			Optional().
			Nillable().
			Comment("External storage location when not inlined"),
		field.JSON("metadata", map[string]any{}).
			Optional(),
		field.JSON("refs", []string{}).
			Optional(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the Artifact.
func (Artifact) Edges() []ent.Edge {
	return nil
}

// Indexes of the Artifact.
func (Artifact) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "created_at"),
	}
}
