package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ConsolidationReport holds the schema definition for the ConsolidationReport
// entity. Every Consolidator job run writes one, including failures, for
// observability via get_compression_stats.
type ConsolidationReport struct {
	ent.Schema
}

// Fields of the ConsolidationReport.
func (ConsolidationReport) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("report_id").
			Unique().
			Immutable(),
		field.String("tenant_id").
			Immutable(),
		field.Enum("job_type").
			Values("identity", "handoffs", "decisions", "all").
			Immutable(),
		field.Int("items_processed").
			Default(0),
		field.Int("items_affected").
			Default(0),
		field.Int("tokens_saved").
			Default(0),
		field.JSON("details", map[string]any{}).
			Optional(),
		field.String("error").
			Optional().
			Nillable(),
		field.Time("started_at").
			Immutable(),
		field.Time("finished_at"),
	}
}

// Edges of the ConsolidationReport.
func (ConsolidationReport) Edges() []ent.Edge {
	return nil
}

// Indexes of the ConsolidationReport.
func (ConsolidationReport) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "started_at"),
		index.Fields("job_type"),
	}
}
