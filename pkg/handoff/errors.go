package handoff

import "errors"

// ErrValidation is returned when create_handoff is missing a required field.
var ErrValidation = errors.New("handoff: validation error")
