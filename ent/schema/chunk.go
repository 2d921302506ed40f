package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Chunk holds the schema definition for the Chunk entity.
// A retrieval unit derived from an event — usually one per event.
type Chunk struct {
	ent.Schema
}

// Fields of the Chunk.
func (Chunk) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("chunk_id").
			Unique().
			Immutable().
			Comment("prefix chk_"),
		field.String("tenant_id").
			Immutable(),
		field.String("event_id").
			Immutable().
			Comment("Owning event; chunk.tenant_id must equal event(event_id).tenant_id"),
		field.String("session_id").
			Immutable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Enum("kind").
			Values("message", "tool_call", "tool_result", "decision", "task_update", "artifact_ref").
			Immutable(),
		field.Enum("channel").
			Values("private", "public", "team", "agent").
			Immutable(),
		field.Enum("sensitivity").
			Values("none", "low", "high", "secret").
			Default("none"),
		field.JSON("tags", []string{}).
			Optional(),
		field.Int("token_est").
			Comment("> 0, bounded to [chunk_min_tokens, chunk_max_tokens]"),
		field.Float("importance").
			Default(0).
			Comment("Clamped to [0, 1]"),
		field.Bool("pinned").
			Default(false),
		field.Text("text").
			Comment("Bounded excerpt, e.g. <= 800 tokens"),
		field.String("content_hash").
			Comment("Used for exact-match dedupe"),
		field.Uint64("simhash").
			Optional().
			Comment("64-bit SimHash fingerprint for near-duplicate dedupe"),
		field.Bytes("embedding").
			Optional().
			Nillable().
			Comment("Little-endian float32, 1024 dims when present; backfilled async"),
	}
}

// Edges of the Chunk.
func (Chunk) Edges() []ent.Edge {
	return nil
}

// Indexes of the Chunk.
func (Chunk) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "created_at"),
		index.Fields("tenant_id", "session_id", "created_at"),
		index.Fields("event_id"),
		index.Fields("content_hash"),
		index.Fields("tenant_id", "pinned").
			Annotations(entsql.IndexWhere("pinned = true")),
	}
}

// Annotations of the Chunk.
// The GIN tsvector index over `text` (lexical retrieval substrate) is created
// by a migration hook in pkg/database/migrations.go, not expressed here —
// ent has no native tsvector field type.
func (Chunk) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}
