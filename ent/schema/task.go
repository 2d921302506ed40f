package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Task holds the schema definition for the Task entity.
// Continues across sessions; closed explicitly.
type Task struct {
	ent.Schema
}

// Fields of the Task.
func (Task) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("task_id").
			Unique().
			Immutable().
			Comment("prefix tsk_"),
		field.String("tenant_id").
			Immutable(),
		field.String("session_id").
			Optional(),
		field.Enum("status").
			Values("open", "doing", "done").
			Default("open"),
		field.String("title"),
		field.Text("details").
			Optional(),
		field.JSON("refs", []string{}).
			Optional().
			Comment("Supporting event ids"),
		field.String("owner_agent_id").
			Optional().
			Nillable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
		field.Time("closed_at").
			Optional().
			Nillable(),
	}
}

// Edges of the Task.
func (Task) Edges() []ent.Edge {
	return nil
}

// Indexes of the Task.
func (Task) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "status", "updated_at"),
		index.Fields("tenant_id", "owner_agent_id"),
	}
}
