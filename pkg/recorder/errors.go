package recorder

import (
	"errors"
	"fmt"
)

// Sentinel errors for AppendEvent's five failure modes (spec §4.1),
// mirroring the teacher's services package: a small set of package-level
// sentinels plus a field-carrying ValidationError, checked with
// errors.Is/errors.As rather than string matching.
var (
	// ErrPolicyRejected is returned when content matches a never-store
	// pattern (kind=secret, or a masking policy configured to reject
	// rather than redact) and the write is refused outright.
	ErrPolicyRejected = errors.New("recorder: rejected by privacy policy")

	// ErrTenantMismatch is returned when a ref or derived row would cross
	// a tenant boundary.
	ErrTenantMismatch = errors.New("recorder: cross-tenant reference")

	// ErrOversizePayload is returned when a tool result exceeds the
	// configured bound and normalization/artifact spillover cannot make
	// it fit.
	ErrOversizePayload = errors.New("recorder: payload exceeds configured bound")

	// ErrStoreUnavailable is returned when the underlying Store could not
	// be reached; AppendEvent falls back to the WAL in this case instead
	// of propagating the error, so callers generally see this only via
	// Deferred=true rather than as a returned error.
	ErrStoreUnavailable = errors.New("recorder: store unavailable")
)

// ValidationError reports a single bad field on a record_event request,
// grounded on the teacher's services.ValidationError.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("recorder: validation error on field '%s': %s", e.Field, e.Message)
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
