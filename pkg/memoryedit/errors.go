package memoryedit

import "errors"

// ErrValidation is returned when propose_memory_edit names an op/target
// combination the surgery table doesn't support, or omits the patch field
// that op requires.
var ErrValidation = errors.New("memoryedit: validation error")
