package daemon

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shared-memory/memoryd/pkg/acb"
	"github.com/shared-memory/memoryd/pkg/capsule"
	"github.com/shared-memory/memoryd/pkg/consolidator"
	"github.com/shared-memory/memoryd/pkg/handoff"
	"github.com/shared-memory/memoryd/pkg/memoryedit"
	"github.com/shared-memory/memoryd/pkg/recorder"
	"github.com/shared-memory/memoryd/pkg/store"
)

func TestErrorCode_MapsEverySentinelToItsTaxonomyEntry(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"deadline", context.DeadlineExceeded, codeDeadlineExceeded},
		{"recorder tenant mismatch", recorder.ErrTenantMismatch, codeTenantMismatch},
		{"acb tenant mismatch", acb.ErrTenantMismatch, codeTenantMismatch},
		{"policy rejected", recorder.ErrPolicyRejected, codePolicyRejected},
		{"oversize payload", recorder.ErrOversizePayload, codeOversizePayload},
		{"not found", store.ErrNotFound, codeNotFound},
		{"budget impossible", acb.ErrBudgetImpossible, codeBudgetImpossible},
		{"recorder store unavailable", recorder.ErrStoreUnavailable, codeStoreUnavailable},
		{"acb store unavailable", acb.ErrStoreUnavailable, codeStoreUnavailable},
		{"handoff validation", handoff.ErrValidation, codeValidationError},
		{"capsule validation", capsule.ErrValidation, codeValidationError},
		{"memoryedit validation", memoryedit.ErrValidation, codeValidationError},
		{"unknown job type", consolidator.ErrUnknownJobType, codeValidationError},
		{"decode params", errDecodeParams, codeValidationError},
		{"unrecognised error", fmt.Errorf("boom"), codeFatalInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, errorCode(tc.err))
		})
	}
}

func TestErrorCode_WrapsWithFmtErrorfStillMatch(t *testing.T) {
	wrapped := fmt.Errorf("memoryedit: approve: %w", memoryedit.ErrValidation)
	assert.Equal(t, codeValidationError, errorCode(wrapped))
}

func TestHTTPStatusFor_CoversEveryCode(t *testing.T) {
	cases := map[string]int{
		codeValidationError:  http.StatusBadRequest,
		codeTenantMismatch:   http.StatusForbidden,
		codePolicyRejected:   http.StatusForbidden,
		codeForbidden:        http.StatusForbidden,
		codeOversizePayload:  http.StatusRequestEntityTooLarge,
		codeNotFound:         http.StatusNotFound,
		codeBudgetImpossible: http.StatusUnprocessableEntity,
		codeDeadlineExceeded: http.StatusGatewayTimeout,
		codeStoreUnavailable: http.StatusServiceUnavailable,
		codeFatalInternal:    http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, httpStatusFor(code), code)
	}
}
