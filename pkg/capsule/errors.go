package capsule

import "errors"

// ErrValidation is returned when create_capsule fails schema validation or
// names a reference (chunk, decision, artifact, or agent) the tenant does
// not actually have.
var ErrValidation = errors.New("capsule: validation error")
