package daemon

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// healthResponse mirrors pkg/api/handler_health.go's shape: an overall
// status plus a per-dependency breakdown, degrading rather than failing
// hard when one check comes back unhealthy.
type healthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]healthCheck `json:"checks"`
}

type healthCheck struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// handleHealth never requires the bearer token: it is the one route an
// orchestrator's liveness probe hits before it has a credential to send.
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]healthCheck{
		"store": s.checkStore(ctx),
		"wal":   s.checkWAL(),
	}

	status := "ok"
	for _, check := range checks {
		if check.Status != "ok" {
			status = "degraded"
		}
	}

	// A degraded dependency still serves traffic; only this handler
	// panicking should fail the liveness probe, so the status code stays
	// 200 regardless of per-check outcome.
	c.JSON(http.StatusOK, healthResponse{Status: status, Checks: checks})
}

func (s *Server) checkStore(ctx context.Context) healthCheck {
	if _, err := s.store.DistinctTenantIDs(ctx); err != nil {
		return healthCheck{Status: "error", Detail: err.Error()}
	}
	return healthCheck{Status: "ok"}
}

func (s *Server) checkWAL() healthCheck {
	if s.wal == nil {
		return healthCheck{Status: "ok", Detail: "disabled"}
	}
	return healthCheck{Status: "ok"}
}
