// Package memoryedit implements spec §4's "memory surgery" tools —
// propose_memory_edit, approve_memory_edit, reject_memory_edit — the
// explicit, reason-stamped retract/amend/quarantine/attenuate/block
// operations on existing chunks, decisions, and capsules named in the
// MemoryEdit schema.
//
// Its two-phase propose-then-resolve shape follows SessionService's
// create/transition split: Propose only validates and inserts a pending
// row (mirroring pkg/store's ProposeMemoryEdit); approval is a second
// call that actually mutates the target, so a human or agent reviewer
// always sits between a surgical request and its effect.
package memoryedit

import (
	"context"
	"fmt"

	"github.com/shared-memory/memoryd/ent"
	"github.com/shared-memory/memoryd/ent/chunk"
	"github.com/shared-memory/memoryd/ent/memoryedit"
	"github.com/shared-memory/memoryd/pkg/models"
	"github.com/shared-memory/memoryd/pkg/store"
)

// Service implements propose_memory_edit, approve_memory_edit, and
// reject_memory_edit.
type Service struct {
	store *store.Store
}

// New builds a Service.
func New(st *store.Store) *Service {
	return &Service{store: st}
}

// Propose validates the op/target_type/patch-field combination and
// inserts a pending MemoryEdit row.
func (s *Service) Propose(ctx context.Context, req models.ProposeMemoryEditRequest) (*models.MemoryEditResponse, error) {
	if err := validateOpTarget(req.Op, req.TargetType); err != nil {
		return nil, err
	}
	if err := validatePatch(req); err != nil {
		return nil, err
	}

	e, err := s.store.ProposeMemoryEdit(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("memoryedit: propose: %w", err)
	}
	return &models.MemoryEditResponse{MemoryEdit: e}, nil
}

// Approve applies the edit's patch to its target, then marks the edit
// approved. The target mutation and the resolution are two separate
// writes (no row spans Chunk/Decision/Capsule/MemoryEdit tables), so a
// mutation failure leaves the edit pending for a retry rather than
// silently marking it resolved.
func (s *Service) Approve(ctx context.Context, req models.ResolveMemoryEditRequest) error {
	e, err := s.store.GetMemoryEdit(ctx, req.TenantID, req.EditID)
	if err != nil {
		return fmt.Errorf("memoryedit: approve: %w", err)
	}
	if e.Status != memoryedit.StatusPending {
		return fmt.Errorf("%w: edit %q is not pending", ErrValidation, req.EditID)
	}

	if err := s.apply(ctx, req.TenantID, e); err != nil {
		return fmt.Errorf("memoryedit: apply: %w", err)
	}
	if err := s.store.ResolveMemoryEdit(ctx, req.TenantID, req.EditID, string(memoryedit.StatusApproved)); err != nil {
		return fmt.Errorf("memoryedit: resolve: %w", err)
	}
	return nil
}

// Reject marks a pending edit rejected without touching its target.
func (s *Service) Reject(ctx context.Context, req models.ResolveMemoryEditRequest) error {
	if err := s.store.ResolveMemoryEdit(ctx, req.TenantID, req.EditID, string(memoryedit.StatusRejected)); err != nil {
		return fmt.Errorf("memoryedit: reject: %w", err)
	}
	return nil
}

// apply carries out the surgical operation e.Op against e.TargetType,
// the table from the package doc: retract/quarantine reach every target
// type, amend and attenuate are chunk/decision-only (attenuate needs an
// importance field neither capsule nor... decision has), and block only
// makes sense against a chunk's per-channel visibility.
func (s *Service) apply(ctx context.Context, tenantID string, e *ent.MemoryEdit) error {
	switch e.Op {
	case memoryedit.OpRetract:
		switch e.TargetType {
		case "chunk":
			return s.store.SetChunkPinned(ctx, tenantID, e.TargetID, false)
		case "decision":
			return s.store.SupersedeDecision(ctx, tenantID, e.TargetID)
		case "capsule":
			return s.store.RevokeCapsule(ctx, tenantID, e.TargetID)
		}
	case memoryedit.OpQuarantine:
		switch e.TargetType {
		case "chunk":
			return s.store.SetChunkSensitivity(ctx, tenantID, e.TargetID, string(chunk.SensitivitySecret))
		case "decision":
			return s.store.ArchiveDecision(ctx, e.TargetID)
		case "capsule":
			return s.store.RevokeCapsule(ctx, tenantID, e.TargetID)
		}
	case memoryedit.OpAmend:
		switch e.TargetType {
		case "chunk":
			if e.PatchText != nil {
				if err := s.store.SetChunkText(ctx, tenantID, e.TargetID, *e.PatchText); err != nil {
					return err
				}
			}
			if e.PatchImportance != nil {
				if err := s.store.SetChunkImportance(ctx, tenantID, e.TargetID, *e.PatchImportance); err != nil {
					return err
				}
			}
			return nil
		case "decision":
			if e.PatchText != nil {
				return s.store.SetDecisionText(ctx, tenantID, e.TargetID, *e.PatchText)
			}
			return nil
		}
	case memoryedit.OpAttenuate:
		if e.TargetType == "chunk" && e.PatchImportanceDelta != nil {
			return s.store.AdjustChunkImportance(ctx, tenantID, e.TargetID, *e.PatchImportanceDelta)
		}
	case memoryedit.OpBlock:
		if e.TargetType == "chunk" && e.PatchChannel != nil {
			return s.store.AddChunkBlockedTag(ctx, tenantID, e.TargetID, *e.PatchChannel)
		}
	}
	return fmt.Errorf("%w: op %q is not supported against target type %q", ErrValidation, e.Op, e.TargetType)
}
