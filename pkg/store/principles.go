package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shared-memory/memoryd/ent"
	"github.com/shared-memory/memoryd/ent/semanticprinciple"
	"github.com/shared-memory/memoryd/pkg/models"
)

// CreatePrincipleParams is the insert shape for a principle extracted by
// pkg/consolidator's identity-thread pass; not part of the tool-surface
// DTOs since principles are never created directly by a caller.
type CreatePrincipleParams struct {
	TenantID         string
	Principle        string
	Context          string
	Category         string
	Confidence       float64
	SourceHandoffIDs []string
}

// CreatePrinciple inserts a newly extracted principle.
func (s *Store) CreatePrinciple(ctx context.Context, p CreatePrincipleParams) (*ent.SemanticPrinciple, error) {
	if err := requireField("tenant_id", p.TenantID); err != nil {
		return nil, err
	}
	if err := requireField("principle", p.Principle); err != nil {
		return nil, err
	}

	builder := s.client.SemanticPrinciple.Create().
		SetID(newID("sp")).
		SetTenantID(p.TenantID).
		SetPrinciple(p.Principle).
		SetConfidence(p.Confidence).
		SetSourceHandoffIds(p.SourceHandoffIDs).
		SetSourceCount(len(p.SourceHandoffIDs))

	if p.Context != "" {
		builder = builder.SetContext(p.Context)
	}
	if p.Category != "" {
		builder = builder.SetCategory(p.Category)
	}

	sp, err := builder.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: create principle: %w", err)
	}
	return sp, nil
}

// ReinforcePrinciple grows confidence (caller computes the new value per
// the consolidator's monotonic-growth rule) and bumps last_reinforced_at,
// recording one more source handoff and incrementing source_count.
func (s *Store) ReinforcePrinciple(ctx context.Context, id string, newConfidence float64, sourceHandoffID string) error {
	p, err := s.client.SemanticPrinciple.Get(ctx, id)
	if err != nil {
		return translateNotFound(err)
	}

	sources := append(append([]string{}, p.SourceHandoffIds...), sourceHandoffID)

	_, err = s.client.SemanticPrinciple.UpdateOne(p).
		SetConfidence(newConfidence).
		SetSourceHandoffIds(sources).
		SetSourceCount(len(sources)).
		SetLastReinforcedAt(time.Now()).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("store: reinforce principle: %w", err)
	}
	return nil
}

// DecayPrinciple lowers confidence per the consolidator's decay schedule,
// floored by the caller at 0.1.
func (s *Store) DecayPrinciple(ctx context.Context, id string, newConfidence float64) error {
	n, err := s.client.SemanticPrinciple.Update().
		Where(semanticprinciple.IDEQ(id)).
		SetConfidence(newConfidence).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("store: decay principle: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPrinciples returns principles matching filters, most recently
// reinforced first.
func (s *Store) ListPrinciples(ctx context.Context, filters models.SemanticPrincipleFilters) ([]*ent.SemanticPrinciple, error) {
	if err := requireField("tenant_id", filters.TenantID); err != nil {
		return nil, err
	}

	q := s.client.SemanticPrinciple.Query().Where(semanticprinciple.TenantID(filters.TenantID))
	if filters.Category != "" {
		q = q.Where(semanticprinciple.Category(filters.Category))
	}
	if filters.MinConfidence > 0 {
		q = q.Where(semanticprinciple.ConfidenceGTE(filters.MinConfidence))
	}

	ps, err := q.Order(ent.Desc(semanticprinciple.FieldLastReinforcedAt)).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list principles: %w", err)
	}
	return ps, nil
}

// DecayablePrinciples returns principles not reinforced since cutoff, for
// the Consolidator's decay sweep.
func (s *Store) DecayablePrinciples(ctx context.Context, tenantID string, cutoff time.Time) ([]*ent.SemanticPrinciple, error) {
	ps, err := s.client.SemanticPrinciple.Query().
		Where(semanticprinciple.TenantID(tenantID), semanticprinciple.LastReinforcedAtLT(cutoff)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list decayable principles: %w", err)
	}
	return ps, nil
}

// CountPrinciples returns the total principle count for a tenant, for
// get_compression_stats.
func (s *Store) CountPrinciples(ctx context.Context, tenantID string) (int, error) {
	n, err := s.client.SemanticPrinciple.Query().Where(semanticprinciple.TenantID(tenantID)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("store: count principles: %w", err)
	}
	return n, nil
}
