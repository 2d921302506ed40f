package memoryedit

import (
	"fmt"

	"github.com/shared-memory/memoryd/pkg/models"
)

// opTargetSupport mirrors the table enforced by apply(): which
// target_type values each op can land on.
var opTargetSupport = map[string]map[string]bool{
	"retract":    {"chunk": true, "decision": true, "capsule": true},
	"quarantine": {"chunk": true, "decision": true, "capsule": true},
	"amend":      {"chunk": true, "decision": true},
	"attenuate":  {"chunk": true},
	"block":      {"chunk": true},
}

func validateOpTarget(op, targetType string) error {
	targets, ok := opTargetSupport[op]
	if !ok {
		return fmt.Errorf("%w: %q is not a recognised memory-edit op", ErrValidation, op)
	}
	if !targets[targetType] {
		return fmt.Errorf("%w: op %q does not apply to target_type %q", ErrValidation, op, targetType)
	}
	return nil
}

// validatePatch enforces the per-op patch-field requirement documented on
// ProposeMemoryEditRequest: amend needs patch_text or patch_importance,
// attenuate needs patch_importance_delta, block needs patch_channel.
// retract and quarantine take no patch field.
func validatePatch(req models.ProposeMemoryEditRequest) error {
	switch req.Op {
	case "amend":
		if req.PatchText == nil && req.PatchImportance == nil {
			return fmt.Errorf("%w: amend requires patch_text or patch_importance", ErrValidation)
		}
	case "attenuate":
		if req.PatchImportanceDelta == nil {
			return fmt.Errorf("%w: attenuate requires patch_importance_delta", ErrValidation)
		}
	case "block":
		if req.PatchChannel == nil {
			return fmt.Errorf("%w: block requires patch_channel", ErrValidation)
		}
	}
	return nil
}
