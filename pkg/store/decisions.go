package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shared-memory/memoryd/ent"
	"github.com/shared-memory/memoryd/ent/decision"
	"github.com/shared-memory/memoryd/pkg/models"
)

// CreateDecisionInTx inserts one Decision row within the recorder's open
// transaction. If req.Refs names a predecessor id with status active,
// the predecessor is superseded in the same transaction.
func CreateDecisionInTx(ctx context.Context, tx *ent.Tx, tenantID, sessionID string, req models.RecordDecisionRequest) (*ent.Decision, error) {
	if err := requireField("tenant_id", tenantID); err != nil {
		return nil, err
	}
	if err := requireField("scope", req.Scope); err != nil {
		return nil, err
	}
	if len(req.Refs) == 0 {
		return nil, fmt.Errorf("store: decision refs must be non-empty")
	}

	builder := tx.Decision.Create().
		SetID(newID("dec")).
		SetTenantID(tenantID).
		SetScope(decision.Scope(req.Scope)).
		SetDecision(req.Decision).
		SetConstraints(req.Constraints).
		SetAlternatives(req.Alternatives).
		SetConsequences(req.Consequences).
		SetRefs(req.Refs)

	if sessionID != "" {
		builder = builder.SetSessionID(sessionID)
	}
	if req.Rationale != "" {
		builder = builder.SetRationale(req.Rationale)
	}

	d, err := builder.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: create decision: %w", err)
	}
	return d, nil
}

// SupersedeDecision marks an active decision as superseded.
func (s *Store) SupersedeDecision(ctx context.Context, tenantID, id string) error {
	n, err := s.client.Decision.Update().
		Where(decision.IDEQ(id), decision.TenantID(tenantID), decision.StatusEQ(decision.StatusActive)).
		SetStatus(decision.StatusSuperseded).
		SetSupersededAt(time.Now()).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("store: supersede decision: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SupersedeDecisionInTx is SupersedeDecision run within the recorder's
// open transaction (spec §4.1 step 8): writing a superseding decision and
// flipping its predecessor's status happen atomically.
func SupersedeDecisionInTx(ctx context.Context, tx *ent.Tx, tenantID, id string) error {
	n, err := tx.Decision.Update().
		Where(decision.IDEQ(id), decision.TenantID(tenantID), decision.StatusEQ(decision.StatusActive)).
		SetStatus(decision.StatusSuperseded).
		SetSupersededAt(time.Now()).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("store: supersede decision: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ArchiveDecision marks a decision archived; called only by the
// Consolidator's decision-archival job, never pinned decisions.
func (s *Store) ArchiveDecision(ctx context.Context, id string) error {
	n, err := s.client.Decision.Update().
		Where(decision.IDEQ(id), decision.PinnedEQ(false)).
		SetArchivedAt(time.Now()).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("store: archive decision: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetDecisionText overwrites a decision's text, the effect of a
// MemoryEdit "amend" operation with a patch_text.
func (s *Store) SetDecisionText(ctx context.Context, tenantID, id, text string) error {
	n, err := s.client.Decision.Update().
		Where(decision.IDEQ(id), decision.TenantID(tenantID)).
		SetDecision(text).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("store: set decision text: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetDecision fetches a single decision by id, scoped to tenant.
func (s *Store) GetDecision(ctx context.Context, tenantID, id string) (*ent.Decision, error) {
	d, err := s.client.Decision.Query().
		Where(decision.IDEQ(id), decision.TenantID(tenantID)).
		Only(ctx)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return d, nil
}

// ListDecisions returns decisions matching filters, newest first.
func (s *Store) ListDecisions(ctx context.Context, filters models.DecisionFilters) ([]*ent.Decision, error) {
	if err := requireField("tenant_id", filters.TenantID); err != nil {
		return nil, err
	}

	q := s.client.Decision.Query().Where(decision.TenantID(filters.TenantID))
	if filters.Scope != "" {
		q = q.Where(decision.ScopeEQ(decision.Scope(filters.Scope)))
	}
	if filters.Status != "" {
		q = q.Where(decision.StatusEQ(decision.Status(filters.Status)))
	}

	ds, err := q.Order(ent.Desc(decision.FieldCreatedAt)).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list decisions: %w", err)
	}
	return ds, nil
}

// ActiveDecisions returns every active decision for a tenant, for
// get_wake_up's continuity context.
func (s *Store) ActiveDecisions(ctx context.Context, tenantID string) ([]*ent.Decision, error) {
	return s.ListDecisions(ctx, models.DecisionFilters{TenantID: tenantID, Status: string(decision.StatusActive)})
}

// ArchivableDecisions returns unpinned, unarchived decisions older than
// olderThan for the Consolidator's archival sweep.
func (s *Store) ArchivableDecisions(ctx context.Context, tenantID string, olderThan time.Time) ([]*ent.Decision, error) {
	ds, err := s.client.Decision.Query().
		Where(
			decision.TenantID(tenantID),
			decision.PinnedEQ(false),
			decision.ArchivedAtIsNil(),
			decision.CreatedAtLT(olderThan),
		).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list archivable decisions: %w", err)
	}
	return ds, nil
}
