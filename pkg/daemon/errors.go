package daemon

import (
	"context"
	"errors"
	"net/http"

	"github.com/shared-memory/memoryd/pkg/acb"
	"github.com/shared-memory/memoryd/pkg/capsule"
	"github.com/shared-memory/memoryd/pkg/consolidator"
	"github.com/shared-memory/memoryd/pkg/handoff"
	"github.com/shared-memory/memoryd/pkg/memoryedit"
	"github.com/shared-memory/memoryd/pkg/recorder"
	"github.com/shared-memory/memoryd/pkg/store"
)

// errDecodeParams is returned when an rpc method's params blob doesn't
// unmarshal into its expected request type.
var errDecodeParams = errors.New("daemon: invalid params")

// Error code taxonomy from spec §7. "forbidden" is reserved for a future
// authorization layer beyond the bearer-token gate; no service in this
// tree produces it yet. "partial_result" is deliberately absent here —
// it is not an error, it's a 200 response with Omissions populated.
const (
	codeValidationError  = "validation_error"
	codeTenantMismatch   = "tenant_mismatch"
	codePolicyRejected   = "policy_rejected"
	codeForbidden        = "forbidden"
	codeOversizePayload  = "oversize_payload"
	codeNotFound         = "not_found"
	codeBudgetImpossible = "budget_impossible"
	codeDeadlineExceeded = "deadline_exceeded"
	codeStoreUnavailable = "store_unavailable"
	codeFatalInternal    = "fatal_internal"
)

// errorCode classifies err against every sentinel the service layer
// exposes, following the same errors.Is/errors.As chain as pkg/api's
// mapServiceError rather than string matching.
func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return codeDeadlineExceeded
	case errors.Is(err, recorder.ErrTenantMismatch), errors.Is(err, acb.ErrTenantMismatch):
		return codeTenantMismatch
	case errors.Is(err, recorder.ErrPolicyRejected):
		return codePolicyRejected
	case errors.Is(err, recorder.ErrOversizePayload):
		return codeOversizePayload
	case errors.Is(err, store.ErrNotFound):
		return codeNotFound
	case errors.Is(err, acb.ErrBudgetImpossible):
		return codeBudgetImpossible
	case errors.Is(err, recorder.ErrStoreUnavailable), errors.Is(err, acb.ErrStoreUnavailable):
		return codeStoreUnavailable
	case errors.Is(err, errDecodeParams),
		recorder.IsValidationError(err),
		errors.Is(err, handoff.ErrValidation),
		errors.Is(err, capsule.ErrValidation),
		errors.Is(err, memoryedit.ErrValidation),
		errors.Is(err, consolidator.ErrUnknownJobType):
		return codeValidationError
	default:
		return codeFatalInternal
	}
}

// httpStatusFor maps one of the above codes to the status spec §7's
// table assigns it.
func httpStatusFor(code string) int {
	switch code {
	case codeValidationError:
		return http.StatusBadRequest
	case codeTenantMismatch, codePolicyRejected, codeForbidden:
		return http.StatusForbidden
	case codeOversizePayload:
		return http.StatusRequestEntityTooLarge
	case codeNotFound:
		return http.StatusNotFound
	case codeBudgetImpossible:
		return http.StatusUnprocessableEntity
	case codeDeadlineExceeded:
		return http.StatusGatewayTimeout
	case codeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
