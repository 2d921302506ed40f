package models

import "github.com/shared-memory/memoryd/ent"

// ProposeMemoryEditRequest is the payload for propose_memory_edit. Patch
// fields are validated per-op: amend needs PatchText or PatchImportance,
// attenuate needs PatchImportanceDelta, block needs PatchChannel.
type ProposeMemoryEditRequest struct {
	TenantID             string   `json:"tenant_id"`
	Op                   string   `json:"op"`
	TargetType           string   `json:"target_type"`
	TargetID             string   `json:"target_id"`
	Reason               string   `json:"reason"`
	ProposedBy           string   `json:"proposed_by"`
	PatchText            *string  `json:"patch_text,omitempty"`
	PatchImportance      *float64 `json:"patch_importance,omitempty"`
	PatchImportanceDelta *float64 `json:"patch_importance_delta,omitempty"`
	PatchChannel         *string  `json:"patch_channel,omitempty"`
}

// ResolveMemoryEditRequest is the payload for approve_memory_edit and
// reject_memory_edit.
type ResolveMemoryEditRequest struct {
	TenantID string `json:"tenant_id"`
	EditID   string `json:"edit_id"`
}

// MemoryEditResponse wraps a MemoryEdit for single-record reads.
type MemoryEditResponse struct {
	*ent.MemoryEdit
}
