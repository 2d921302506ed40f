// Package capsule implements spec §4.5's audience-scoped context sharing
// contract: create_capsule, get_available_capsules, and revoke_capsule.
// Its validate-then-write shape is grounded on the same teacher pattern
// pkg/handoff follows (SessionService.CreateSession); here the validation
// step is the bulk of the work, since a capsule's chunk/decision/artifact
// refs and audience must all resolve to rows that actually exist in the
// capsule's own tenant.
package capsule

import (
	"context"
	"errors"
	"fmt"

	"github.com/shared-memory/memoryd/pkg/models"
	"github.com/shared-memory/memoryd/pkg/store"
)

// Service implements create_capsule, get_available_capsules, and
// revoke_capsule.
type Service struct {
	store *store.Store
}

// New builds a Service.
func New(st *store.Store) *Service {
	return &Service{store: st}
}

// CreateCapsule validates every chunk_refs/decision_refs/artifact_refs
// entry exists in the tenant, validates the audience names real agents
// (ones that have recorded at least one event in the tenant — the closest
// thing to an agent registry this schema has, resolving the Open Question
// of what "a real agent in the tenant" means), then inserts the Capsule
// row.
func (s *Service) CreateCapsule(ctx context.Context, req models.CreateCapsuleRequest) (*models.CapsuleResponse, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant_id is required", ErrValidation)
	}
	if len(req.AudienceAgentIDs) == 0 {
		return nil, fmt.Errorf("%w: audience_agent_ids must be non-empty", ErrValidation)
	}

	if err := s.validateAudience(ctx, req.TenantID, req.AudienceAgentIDs); err != nil {
		return nil, err
	}
	if err := s.validateChunkRefs(ctx, req.TenantID, req.ChunkRefs); err != nil {
		return nil, err
	}
	if err := s.validateDecisionRefs(ctx, req.TenantID, req.DecisionRefs); err != nil {
		return nil, err
	}
	if err := s.validateArtifactRefs(ctx, req.TenantID, req.ArtifactRefs); err != nil {
		return nil, err
	}

	c, err := s.store.CreateCapsule(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("capsule: create: %w", err)
	}
	return &models.CapsuleResponse{Capsule: c}, nil
}

func (s *Service) validateAudience(ctx context.Context, tenantID string, audience []string) error {
	known, err := s.store.DistinctAgentIDs(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("capsule: list known agents: %w", err)
	}
	knownSet := make(map[string]bool, len(known))
	for _, id := range known {
		knownSet[id] = true
	}
	for _, id := range audience {
		if !knownSet[id] {
			return fmt.Errorf("%w: audience agent %q has no recorded activity in this tenant", ErrValidation, id)
		}
	}
	return nil
}

func (s *Service) validateChunkRefs(ctx context.Context, tenantID string, refs []string) error {
	for _, id := range refs {
		if _, err := s.store.GetChunk(ctx, tenantID, id); err != nil {
			return notFoundAsValidation(err, "chunk_refs", id)
		}
	}
	return nil
}

func (s *Service) validateDecisionRefs(ctx context.Context, tenantID string, refs []string) error {
	for _, id := range refs {
		if _, err := s.store.GetDecision(ctx, tenantID, id); err != nil {
			return notFoundAsValidation(err, "decision_refs", id)
		}
	}
	return nil
}

func (s *Service) validateArtifactRefs(ctx context.Context, tenantID string, refs []string) error {
	for _, id := range refs {
		if _, err := s.store.GetArtifact(ctx, tenantID, id); err != nil {
			return notFoundAsValidation(err, "artifact_refs", id)
		}
	}
	return nil
}

func notFoundAsValidation(err error, field, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s references unknown id %q", ErrValidation, field, id)
	}
	return fmt.Errorf("capsule: %s lookup: %w", field, err)
}

// GetAvailableCapsules implements get_available_capsules: a thin wrapper
// over the Store's audience-filtered query.
func (s *Service) GetAvailableCapsules(ctx context.Context, req models.AvailableCapsulesRequest) ([]*models.CapsuleResponse, error) {
	caps, err := s.store.AvailableCapsules(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("capsule: list available: %w", err)
	}
	out := make([]*models.CapsuleResponse, 0, len(caps))
	for _, c := range caps {
		out = append(out, &models.CapsuleResponse{Capsule: c})
	}
	return out, nil
}

// RevokeCapsule implements revoke_capsule: a thin wrapper over the Store.
func (s *Service) RevokeCapsule(ctx context.Context, req models.RevokeCapsuleRequest) error {
	if err := s.store.RevokeCapsule(ctx, req.TenantID, req.CapsuleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: capsule %q is not active", ErrValidation, req.CapsuleID)
		}
		return fmt.Errorf("capsule: revoke: %w", err)
	}
	return nil
}
