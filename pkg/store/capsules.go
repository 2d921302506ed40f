package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shared-memory/memoryd/ent"
	"github.com/shared-memory/memoryd/ent/capsule"
	"github.com/shared-memory/memoryd/pkg/models"
)

// CreateCapsule inserts a new Capsule row with its expiry derived from
// TTLDays.
func (s *Store) CreateCapsule(ctx context.Context, req models.CreateCapsuleRequest) (*ent.Capsule, error) {
	if err := requireField("tenant_id", req.TenantID); err != nil {
		return nil, err
	}
	if err := requireField("scope", req.Scope); err != nil {
		return nil, err
	}
	if err := requireField("subject_type", req.SubjectType); err != nil {
		return nil, err
	}
	if err := requireField("subject_id", req.SubjectID); err != nil {
		return nil, err
	}
	if err := requireField("author_agent_id", req.AuthorAgentID); err != nil {
		return nil, err
	}
	if len(req.AudienceAgentIDs) == 0 {
		return nil, fmt.Errorf("store: capsule requires at least one audience agent")
	}
	if req.TTLDays <= 0 {
		return nil, fmt.Errorf("store: capsule ttl_days must be positive")
	}

	c, err := s.client.Capsule.Create().
		SetID(newID("cap")).
		SetTenantID(req.TenantID).
		SetScope(req.Scope).
		SetSubjectType(req.SubjectType).
		SetSubjectID(req.SubjectID).
		SetAuthorAgentID(req.AuthorAgentID).
		SetAudienceAgentIds(req.AudienceAgentIDs).
		SetChunkRefs(req.ChunkRefs).
		SetDecisionRefs(req.DecisionRefs).
		SetArtifactRefs(req.ArtifactRefs).
		SetRisks(req.Risks).
		SetTTLDays(req.TTLDays).
		SetExpiresAt(time.Now().AddDate(0, 0, req.TTLDays)).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: create capsule: %w", err)
	}
	return c, nil
}

// GetCapsule fetches a single capsule by id, scoped to tenant.
func (s *Store) GetCapsule(ctx context.Context, tenantID, id string) (*ent.Capsule, error) {
	c, err := s.client.Capsule.Query().
		Where(capsule.IDEQ(id), capsule.TenantID(tenantID)).
		Only(ctx)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return c, nil
}

// AvailableCapsules returns active, unexpired capsules visible to
// agentID, optionally narrowed to a subject.
func (s *Store) AvailableCapsules(ctx context.Context, req models.AvailableCapsulesRequest) ([]*ent.Capsule, error) {
	if err := requireField("tenant_id", req.TenantID); err != nil {
		return nil, err
	}
	if err := requireField("agent_id", req.AgentID); err != nil {
		return nil, err
	}

	q := s.client.Capsule.Query().
		Where(
			capsule.TenantID(req.TenantID),
			capsule.StatusEQ(capsule.StatusActive),
			capsule.ExpiresAtGT(time.Now()),
		)
	if req.SubjectType != "" {
		q = q.Where(capsule.SubjectType(req.SubjectType))
	}
	if req.SubjectID != "" {
		q = q.Where(capsule.SubjectID(req.SubjectID))
	}

	all, err := q.Order(ent.Desc(capsule.FieldCreatedAt)).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list available capsules: %w", err)
	}

	visible := make([]*ent.Capsule, 0, len(all))
	for _, c := range all {
		for _, a := range c.AudienceAgentIds {
			if a == req.AgentID {
				visible = append(visible, c)
				break
			}
		}
	}
	return visible, nil
}

// RestrictedChunkIDs returns the set of chunk ids named in chunk_refs by
// any active, unexpired capsule for the tenant, regardless of audience.
// pkg/retrieval uses this to know which candidate chunks need an
// audience check at all — most chunks are never referenced by a capsule
// and pass through untouched.
func (s *Store) RestrictedChunkIDs(ctx context.Context, tenantID string) (map[string]bool, error) {
	if err := requireField("tenant_id", tenantID); err != nil {
		return nil, err
	}

	caps, err := s.client.Capsule.Query().
		Where(
			capsule.TenantID(tenantID),
			capsule.StatusEQ(capsule.StatusActive),
			capsule.ExpiresAtGT(time.Now()),
		).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list capsules for restriction set: %w", err)
	}

	restricted := make(map[string]bool)
	for _, c := range caps {
		for _, id := range c.ChunkRefs {
			restricted[id] = true
		}
	}
	return restricted, nil
}

// RevokeCapsule marks a capsule revoked.
func (s *Store) RevokeCapsule(ctx context.Context, tenantID, id string) error {
	n, err := s.client.Capsule.Update().
		Where(capsule.IDEQ(id), capsule.TenantID(tenantID), capsule.StatusEQ(capsule.StatusActive)).
		SetStatus(capsule.StatusRevoked).
		SetRevokedAt(time.Now()).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("store: revoke capsule: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
