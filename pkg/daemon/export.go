package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"text/template"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shared-memory/memoryd/pkg/models"
)

// rpcExportThread implements export_thread: one session's full recorded
// history, rendered as the JSON bundle or as a single markdown document.
func (s *Server) rpcExportThread(ctx context.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[models.ExportThreadRequest](raw)
	if err != nil {
		return nil, err
	}

	events, err := s.store.ListEvents(ctx, models.EventFilters{TenantID: req.TenantID, SessionID: req.SessionID})
	if err != nil {
		return nil, err
	}
	chunks, err := s.store.ChunksBySession(ctx, req.TenantID, req.SessionID)
	if err != nil {
		return nil, err
	}
	decisions, err := s.sessionDecisions(ctx, req.TenantID, req.SessionID)
	if err != nil {
		return nil, err
	}
	handoffs, err := s.store.ListHandoffs(ctx, models.HandoffFilters{TenantID: req.TenantID})
	if err != nil {
		return nil, err
	}

	bundle := &models.ExportBundle{
		TenantID:    req.TenantID,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Decisions:   decisions,
	}
	for _, e := range events {
		bundle.Events = append(bundle.Events, &models.EventResponse{Event: e})
	}
	for _, c := range chunks {
		bundle.Chunks = append(bundle.Chunks, &models.ChunkResponse{Chunk: c})
	}
	for _, h := range handoffs {
		if h.SessionID == req.SessionID {
			bundle.Handoffs = append(bundle.Handoffs, &models.HandoffResponse{Handoff: h})
		}
	}

	return renderExport(bundle, req.Format)
}

// rpcExportAll implements export_all: every entity owned by a tenant.
// Each entity type is one bounded read; once the per-call file-read cap
// trips, the remaining entity types are recorded as an omission rather
// than silently dropped.
func (s *Server) rpcExportAll(ctx context.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[models.ExportAllRequest](raw)
	if err != nil {
		return nil, err
	}

	var omitted []string
	readOrSkip := func(name string, fn func() error) {
		if !chargeFileRead(ctx) {
			omitted = append(omitted, name)
			return
		}
		if err := fn(); err != nil {
			omitted = append(omitted, fmt.Sprintf("%s (error: %v)", name, err))
		}
	}

	var (
		events    []*models.EventResponse
		chunks    []*models.ChunkResponse
		decisions []*models.DecisionResponse
		tasks     []*models.TaskResponse
		handoffs  []*models.HandoffResponse
		notes     []*models.KnowledgeNoteResponse
	)

	readOrSkip("events", func() error {
		rows, err := s.store.ListEvents(ctx, models.EventFilters{TenantID: req.TenantID})
		if err != nil {
			return err
		}
		for _, r := range rows {
			events = append(events, &models.EventResponse{Event: r})
		}
		return nil
	})
	readOrSkip("chunks", func() error {
		rows, err := s.store.ChunksByTenant(ctx, req.TenantID)
		if err != nil {
			return err
		}
		for _, r := range rows {
			chunks = append(chunks, &models.ChunkResponse{Chunk: r})
		}
		return nil
	})
	readOrSkip("decisions", func() error {
		rows, err := s.store.ListDecisions(ctx, models.DecisionFilters{TenantID: req.TenantID})
		if err != nil {
			return err
		}
		for _, r := range rows {
			decisions = append(decisions, &models.DecisionResponse{Decision: r})
		}
		return nil
	})
	readOrSkip("tasks", func() error {
		rows, err := s.store.ListTasks(ctx, models.TaskFilters{TenantID: req.TenantID})
		if err != nil {
			return err
		}
		for _, r := range rows {
			tasks = append(tasks, &models.TaskResponse{Task: r})
		}
		return nil
	})
	readOrSkip("handoffs", func() error {
		rows, err := s.store.ListHandoffs(ctx, models.HandoffFilters{TenantID: req.TenantID})
		if err != nil {
			return err
		}
		for _, r := range rows {
			handoffs = append(handoffs, &models.HandoffResponse{Handoff: r})
		}
		return nil
	})
	readOrSkip("notes", func() error {
		rows, err := s.store.GetKnowledgeNotes(ctx, models.KnowledgeNoteFilters{TenantID: req.TenantID})
		if err != nil {
			return err
		}
		for _, r := range rows {
			notes = append(notes, &models.KnowledgeNoteResponse{KnowledgeNote: r})
		}
		return nil
	})

	bundle := &models.ExportBundle{
		TenantID:    req.TenantID,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Events:      events,
		Chunks:      chunks,
		Decisions:   decisions,
		Tasks:       tasks,
		Handoffs:    handoffs,
		Notes:       notes,
	}

	result, err := renderExport(bundle, req.Format)
	if err != nil {
		return nil, err
	}
	if len(omitted) == 0 {
		return result, nil
	}
	return exportWithOmissions{Export: result, Omissions: omitted}, nil
}

// exportWithOmissions wraps an export_all result that tripped its
// file-read bound partway through, per spec §4.6's "never silent
// truncation" rule.
type exportWithOmissions struct {
	Export    any      `json:"export"`
	Omissions []string `json:"omissions"`
}

func (s *Server) sessionDecisions(ctx context.Context, tenantID, sessionID string) ([]*models.DecisionResponse, error) {
	all, err := s.store.ListDecisions(ctx, models.DecisionFilters{TenantID: tenantID})
	if err != nil {
		return nil, err
	}
	var out []*models.DecisionResponse
	for _, d := range all {
		if d.SessionID == sessionID {
			out = append(out, &models.DecisionResponse{Decision: d})
		}
	}
	return out, nil
}

// exportMarkdownTemplate renders an ExportBundle as a single readable
// document, grounded on the teacher's convention of rendering a response
// DTO rather than an ent row directly.
var exportMarkdownTemplate = template.Must(template.New("export").Parse(`# Memory export: {{.TenantID}}
generated: {{.GeneratedAt}}

## Events ({{len .Events}})
{{range .Events}}- [{{.Kind}}] {{.ActorType}}/{{.ActorID}} in {{.Channel}}
{{end}}
## Decisions ({{len .Decisions}})
{{range .Decisions}}- ({{.Status}}) {{.Decision}}
{{end}}
## Tasks ({{len .Tasks}})
{{range .Tasks}}- [{{.Status}}] {{.Title}}
{{end}}
## Handoffs ({{len .Handoffs}})
{{range .Handoffs}}- {{.Becoming}}
{{end}}
## Knowledge notes ({{len .Notes}})
{{range .Notes}}- {{.Text}}
{{end}}`))

func renderExport(bundle *models.ExportBundle, format string) (any, error) {
	switch format {
	case "", "json":
		return bundle, nil
	case "markdown":
		var buf bytes.Buffer
		if err := exportMarkdownTemplate.Execute(&buf, bundle); err != nil {
			return nil, fmt.Errorf("daemon: render markdown export: %w", err)
		}
		return buf.String(), nil
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", errDecodeParams, format)
	}
}

// handleArtifactDownload implements GET /api/v1/artifacts/:id: the raw
// byte stream for an artifact too large to inline in an rpc response.
func (s *Server) handleArtifactDownload(c *gin.Context) {
	tenantID := c.Query("tenant_id")
	a, err := s.store.GetArtifact(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		code := errorCode(err)
		c.JSON(httpStatusFor(code), gin.H{"error": err.Error()})
		return
	}
	if len(a.Bytes) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact has no inline bytes; see its uri field"})
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", a.Bytes)
}
