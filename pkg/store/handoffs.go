package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shared-memory/memoryd/ent"
	"github.com/shared-memory/memoryd/ent/handoff"
	"github.com/shared-memory/memoryd/pkg/models"
)

// CreateHandoff inserts a new full-tier Handoff row.
func (s *Store) CreateHandoff(ctx context.Context, req models.CreateHandoffRequest) (*ent.Handoff, error) {
	if err := requireField("tenant_id", req.TenantID); err != nil {
		return nil, err
	}
	if err := requireField("session_id", req.SessionID); err != nil {
		return nil, err
	}
	if err := requireField("agent_id", req.AgentID); err != nil {
		return nil, err
	}

	tx, err := s.client.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback()

	builder := tx.Handoff.Create().
		SetID(newID("ho")).
		SetTenantID(req.TenantID).
		SetSessionID(req.SessionID).
		SetAgentID(req.AgentID).
		SetSignificance(req.Significance).
		SetTags(req.Tags).
		SetWithWhom(req.WithWhom)

	if req.Experienced != "" {
		builder = builder.SetExperienced(req.Experienced)
	}
	if req.Noticed != "" {
		builder = builder.SetNoticed(req.Noticed)
	}
	if req.Learned != "" {
		builder = builder.SetLearned(req.Learned)
	}
	if req.Story != "" {
		builder = builder.SetStory(req.Story)
	}
	if req.Becoming != "" {
		builder = builder.SetBecoming(req.Becoming)
	}
	if req.Remember != "" {
		builder = builder.SetRemember(req.Remember)
	}

	h, err := builder.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: create handoff: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return h, nil
}

// GetHandoff fetches a single handoff by id, scoped to tenant.
func (s *Store) GetHandoff(ctx context.Context, tenantID, id string) (*ent.Handoff, error) {
	h, err := s.client.Handoff.Query().
		Where(handoff.IDEQ(id), handoff.TenantID(tenantID)).
		Only(ctx)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return h, nil
}

// ListHandoffs returns handoffs matching filters, newest first, bounded
// by filters.Limit (default 50).
func (s *Store) ListHandoffs(ctx context.Context, filters models.HandoffFilters) ([]*ent.Handoff, error) {
	if err := requireField("tenant_id", filters.TenantID); err != nil {
		return nil, err
	}

	q := s.client.Handoff.Query().Where(handoff.TenantID(filters.TenantID))
	if filters.AgentID != "" {
		q = q.Where(handoff.AgentID(filters.AgentID))
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	hs, err := q.Order(ent.Desc(handoff.FieldCreatedAt)).Limit(limit).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list handoffs: %w", err)
	}
	return hs, nil
}

// LatestHandoff returns the most recent handoff for a tenant, or
// ErrNotFound if none exist yet.
func (s *Store) LatestHandoff(ctx context.Context, tenantID string) (*ent.Handoff, error) {
	h, err := s.client.Handoff.Query().
		Where(handoff.TenantID(tenantID)).
		Order(ent.Desc(handoff.FieldCreatedAt)).
		First(ctx)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return h, nil
}

// IdentityThread returns every handoff whose becoming field is non-empty,
// oldest first, forming the continuity-of-self narrative for get_wake_up.
func (s *Store) IdentityThread(ctx context.Context, tenantID string) ([]*ent.Handoff, error) {
	hs, err := s.client.Handoff.Query().
		Where(handoff.TenantID(tenantID), handoff.BecomingNEQ("")).
		Order(ent.Asc(handoff.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list identity thread: %w", err)
	}
	return hs, nil
}

// TierHandoff updates a handoff's compression_level and the compact-tier
// text/source-refs produced by the Consolidator, stamping consolidated_at.
func (s *Store) TierHandoff(ctx context.Context, id, level, summary, quickRef string, sourceRefs []string) error {
	update := s.client.Handoff.Update().
		Where(handoff.IDEQ(id)).
		SetCompressionLevel(handoff.CompressionLevel(level)).
		SetSourceRefs(sourceRefs).
		SetConsolidatedAt(time.Now())

	if summary != "" {
		update = update.SetSummary(summary)
	}
	if quickRef != "" {
		update = update.SetQuickRef(quickRef)
	}

	n, err := update.Save(ctx)
	if err != nil {
		return fmt.Errorf("store: tier handoff: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// HandoffsOlderThan returns handoffs at compressionLevel created before
// cutoff, for the Consolidator's tiering sweep.
func (s *Store) HandoffsOlderThan(ctx context.Context, tenantID, compressionLevel string, cutoff time.Time) ([]*ent.Handoff, error) {
	hs, err := s.client.Handoff.Query().
		Where(
			handoff.TenantID(tenantID),
			handoff.CompressionLevelEQ(handoff.CompressionLevel(compressionLevel)),
			handoff.CreatedAtLT(cutoff),
		).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list handoffs older than cutoff: %w", err)
	}
	return hs, nil
}

// HandoffsByTier counts handoffs per compression_level for a tenant, for
// get_compression_stats.
func (s *Store) HandoffsByTier(ctx context.Context, tenantID string) (map[string]int, error) {
	counts := map[string]int{}
	for _, level := range []handoff.CompressionLevel{
		handoff.CompressionLevelFull,
		handoff.CompressionLevelSummary,
		handoff.CompressionLevelQuickRef,
		handoff.CompressionLevelIntegrated,
	} {
		n, err := s.client.Handoff.Query().
			Where(handoff.TenantID(tenantID), handoff.CompressionLevelEQ(level)).
			Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("store: count handoffs by tier: %w", err)
		}
		counts[string(level)] = n
	}
	return counts, nil
}
