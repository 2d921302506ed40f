package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shared-memory/memoryd/ent"
	"github.com/shared-memory/memoryd/ent/memoryedit"
	"github.com/shared-memory/memoryd/pkg/models"
)

// ProposeMemoryEdit inserts a new pending MemoryEdit row.
func (s *Store) ProposeMemoryEdit(ctx context.Context, req models.ProposeMemoryEditRequest) (*ent.MemoryEdit, error) {
	if err := requireField("tenant_id", req.TenantID); err != nil {
		return nil, err
	}
	if err := requireField("op", req.Op); err != nil {
		return nil, err
	}
	if err := requireField("target_type", req.TargetType); err != nil {
		return nil, err
	}
	if err := requireField("target_id", req.TargetID); err != nil {
		return nil, err
	}
	if err := requireField("reason", req.Reason); err != nil {
		return nil, err
	}
	if err := requireField("proposed_by", req.ProposedBy); err != nil {
		return nil, err
	}

	builder := s.client.MemoryEdit.Create().
		SetID(newID("med")).
		SetTenantID(req.TenantID).
		SetOp(memoryedit.Op(req.Op)).
		SetTargetType(req.TargetType).
		SetTargetID(req.TargetID).
		SetReason(req.Reason).
		SetProposedBy(memoryedit.ProposedBy(req.ProposedBy))

	if req.PatchText != nil {
		builder = builder.SetPatchText(*req.PatchText)
	}
	if req.PatchImportance != nil {
		builder = builder.SetPatchImportance(*req.PatchImportance)
	}
	if req.PatchImportanceDelta != nil {
		builder = builder.SetPatchImportanceDelta(*req.PatchImportanceDelta)
	}
	if req.PatchChannel != nil {
		builder = builder.SetPatchChannel(*req.PatchChannel)
	}

	e, err := builder.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: propose memory edit: %w", err)
	}
	return e, nil
}

// GetMemoryEdit fetches a single memory edit by id, scoped to tenant.
func (s *Store) GetMemoryEdit(ctx context.Context, tenantID, id string) (*ent.MemoryEdit, error) {
	e, err := s.client.MemoryEdit.Query().
		Where(memoryedit.IDEQ(id), memoryedit.TenantID(tenantID)).
		Only(ctx)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return e, nil
}

// ResolveMemoryEdit transitions a pending edit to approved or rejected.
func (s *Store) ResolveMemoryEdit(ctx context.Context, tenantID, id, status string) error {
	n, err := s.client.MemoryEdit.Update().
		Where(memoryedit.IDEQ(id), memoryedit.TenantID(tenantID), memoryedit.StatusEQ(memoryedit.StatusPending)).
		SetStatus(memoryedit.Status(status)).
		SetResolvedAt(time.Now()).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("store: resolve memory edit: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
