package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// KnowledgeNote holds the schema definition for the KnowledgeNote entity.
// Human- or agent-curated note, shared in the same retrieval pool as
// chunks when tagged appropriately.
type KnowledgeNote struct {
	ent.Schema
}

// Fields of the KnowledgeNote.
func (KnowledgeNote) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("note_id").
			Unique().
			Immutable().
			Comment("prefix kn_"),
		field.String("tenant_id").
			Immutable(),
		field.String("agent_id").
			Optional(),
		field.Enum("channel").
			Values("private", "public", "team", "agent").
			Default("private"),
		field.Text("text"),
		field.JSON("tags", []string{}).
			Optional(),
		field.JSON("with_whom", []string{}).
			Optional(),
		field.Bytes("embedding").
			Optional().
			Nillable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the KnowledgeNote.
func (KnowledgeNote) Edges() []ent.Edge {
	return nil
}

// Indexes of the KnowledgeNote.
func (KnowledgeNote) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "created_at"),
	}
}

// Annotations of the KnowledgeNote.
// GIN tsvector index over `text` created by migration hook, same as Chunk.
func (KnowledgeNote) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}
