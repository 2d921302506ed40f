package acb

import "errors"

// Sentinel errors for Build's failure modes (spec §4.3), mirroring
// pkg/recorder's small-set-of-sentinels-plus-errors.Is pattern rather than
// string matching.
var (
	// ErrBudgetImpossible is returned when the mandatory identity and rules
	// sections alone cannot fit within max_tokens - reserve_tokens, before
	// any of the optional sections are even considered.
	ErrBudgetImpossible = errors.New("acb: identity and rules sections alone exceed the token budget")

	// ErrStoreUnavailable is returned when a Store read needed to assemble
	// the bundle fails.
	ErrStoreUnavailable = errors.New("acb: store unavailable")

	// ErrTenantMismatch is returned when the request's tenant does not
	// match the session or agent it names.
	ErrTenantMismatch = errors.New("acb: cross-tenant reference")
)
