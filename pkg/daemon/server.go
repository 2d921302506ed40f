// Package daemon implements the memory service's single HTTP entrypoint:
// POST /rpc dispatches spec.md's tool surface through a JSON-RPC-style
// envelope, GET /health reports store health, and
// GET /api/v1/artifacts/:id streams artifact bytes above the inline
// threshold. Every route is wired through Gin, the framework actually
// present in go.mod (pkg/api's Echo-based server.go never made it past
// an abandoned rewrite), borrowing pkg/api/handlers.go's
// func(*gin.Context) handler shape and pkg/api/server.go's
// construct-then-ValidateWiring idiom.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shared-memory/memoryd/pkg/acb"
	"github.com/shared-memory/memoryd/pkg/audit"
	"github.com/shared-memory/memoryd/pkg/capsule"
	"github.com/shared-memory/memoryd/pkg/config"
	"github.com/shared-memory/memoryd/pkg/consolidator"
	"github.com/shared-memory/memoryd/pkg/handoff"
	"github.com/shared-memory/memoryd/pkg/memoryedit"
	"github.com/shared-memory/memoryd/pkg/recorder"
	"github.com/shared-memory/memoryd/pkg/retrieval"
	"github.com/shared-memory/memoryd/pkg/store"
	"github.com/shared-memory/memoryd/pkg/wal"
)

// Server is the daemon's single HTTP entrypoint, fronting every service
// that backs spec §6.1's tool surface.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	cfg        *config.DaemonConfig

	store        *store.Store
	recorder     *recorder.Recorder
	retrieval    *retrieval.Service
	acb          *acb.Builder
	consolidator *consolidator.Service
	handoff      *handoff.Service
	capsule      *capsule.Service
	memoryedit   *memoryedit.Service
	audit        *audit.Logger
	wal          *wal.WAL
}

// New builds a Server and wires its routes. Every dependency must already
// be constructed; New never opens a database connection or a WAL file
// itself — that belongs to cmd/memoryd's startup sequence.
func New(
	cfg *config.DaemonConfig,
	st *store.Store,
	rec *recorder.Recorder,
	ret *retrieval.Service,
	acbSvc *acb.Builder,
	cons *consolidator.Service,
	ho *handoff.Service,
	cps *capsule.Service,
	me *memoryedit.Service,
	auditLogger *audit.Logger,
	w *wal.WAL,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:       engine,
		cfg:          cfg,
		store:        st,
		recorder:     rec,
		retrieval:    ret,
		acb:          acbSvc,
		consolidator: cons,
		handoff:      ho,
		capsule:      cps,
		memoryedit:   me,
		audit:        auditLogger,
		wal:          w,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.handleHealth)

	authed := s.engine.Group("")
	authed.Use(s.bearerAuth())
	authed.POST("/rpc", s.handleRPC)
	authed.GET("/api/v1/artifacts/:id", s.handleArtifactDownload)
}

// Handler exposes the underlying http.Handler for tests and for a caller
// that wants to host it behind its own http.Server (e.g. for TLS
// termination cmd/memoryd doesn't otherwise configure).
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ValidateWiring reports every required dependency New was not given,
// mirroring pkg/api/server.go's construct-then-validate idiom even though
// this Server's constructor already requires every argument — it is the
// cheap safety net against a future caller passing a typed nil.
func (s *Server) ValidateWiring() error {
	var missing []string
	if s.store == nil {
		missing = append(missing, "store")
	}
	if s.recorder == nil {
		missing = append(missing, "recorder")
	}
	if s.retrieval == nil {
		missing = append(missing, "retrieval")
	}
	if s.acb == nil {
		missing = append(missing, "acb")
	}
	if s.consolidator == nil {
		missing = append(missing, "consolidator")
	}
	if s.handoff == nil {
		missing = append(missing, "handoff")
	}
	if s.capsule == nil {
		missing = append(missing, "capsule")
	}
	if s.memoryedit == nil {
		missing = append(missing, "memoryedit")
	}
	if s.audit == nil {
		missing = append(missing, "audit")
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("daemon: server wiring incomplete: %s not set", strings.Join(missing, ", "))
}

// Start runs the HTTP server until ctx is cancelled or ListenAndServe
// fails for a reason other than a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("daemon: listening", "addr", s.cfg.ListenAddr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("daemon: listen: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("daemon: shutting down")
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
