package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shared-memory/memoryd/pkg/audit"
	"github.com/shared-memory/memoryd/pkg/models"
)

// rpcRequest is spec §6.2's envelope: every method-specific params blob
// carries at least tenant_id, with session_id/agent_id/channel present
// where the operation needs them.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// envelopeCommon is decoded from every params blob to bind the
// per-request context and audit entry before the method-specific
// handler decodes the same bytes into its own request struct.
type envelopeCommon struct {
	TenantID  string `json:"tenant_id"`
	SessionID string `json:"session_id"`
	AgentID   string `json:"agent_id"`
	Channel   string `json:"channel"`
}

type methodFunc func(ctx context.Context, raw json.RawMessage) (any, error)

// methods returns the dispatch table for spec §6.1's tool surface. Built
// fresh per call rather than as a package var so each entry closes over
// this *Server without an explicit receiver-threading boilerplate.
func (s *Server) methods() map[string]methodFunc {
	return map[string]methodFunc{
		"record_event":             s.rpcRecordEvent,
		"build_acb":                s.rpcBuildACB,
		"get_artifact":             s.rpcGetArtifact,
		"create_handoff":           s.rpcCreateHandoff,
		"get_wake_up":              s.rpcGetWakeUp,
		"list_handoffs":            s.rpcListHandoffs,
		"list_semantic_principles": s.rpcListSemanticPrinciples,
		"create_knowledge_note":    s.rpcCreateKnowledgeNote,
		"get_knowledge_notes":      s.rpcGetKnowledgeNotes,
		"create_capsule":           s.rpcCreateCapsule,
		"get_available_capsules":   s.rpcGetAvailableCapsules,
		"revoke_capsule":           s.rpcRevokeCapsule,
		"propose_memory_edit":      s.rpcProposeMemoryEdit,
		"approve_memory_edit":      s.rpcApproveMemoryEdit,
		"reject_memory_edit":       s.rpcRejectMemoryEdit,
		"get_compression_stats":    s.rpcGetCompressionStats,
		"trigger_consolidation":    s.rpcTriggerConsolidation,
		"export_thread":            s.rpcExportThread,
		"export_all":               s.rpcExportAll,
	}
}

// handleRPC implements spec §4.6's per-request pipeline steps 2-4: bind a
// bounded context, dispatch by method, and emit one audit log entry with
// the outcome. Step 1 (bearer-token auth) already ran in bearerAuth.
func (s *Server) handleRPC(c *gin.Context) {
	var req rpcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, rpcResponse{JSONRPC: "2.0", Error: &rpcError{
			Code:    codeValidationError,
			Message: fmt.Sprintf("malformed rpc envelope: %v", err),
		}})
		return
	}

	handler, ok := s.methods()[req.Method]
	if !ok {
		c.JSON(http.StatusBadRequest, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{
			Code:    codeValidationError,
			Message: fmt.Sprintf("unknown method %q", req.Method),
		}})
		return
	}

	var common envelopeCommon
	_ = json.Unmarshal(req.Params, &common)

	ctx, cancel := withBounds(c.Request.Context(), s.cfg.DefaultDeadline, s.cfg.MaxFileReadsPerCall, s.cfg.MaxBytesReadPerCall)
	defer cancel()

	result, err := handler(ctx, req.Params)
	s.recordAudit(c.Request.Context(), common, req.Method, err)

	if err != nil {
		code := errorCode(err)
		c.JSON(httpStatusFor(code), rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{
			Code:    code,
			Message: err.Error(),
		}})
		return
	}

	c.JSON(http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result})
}

// recordAudit writes one AuditLog row per request outcome. A failure to
// persist the audit entry itself is logged but never turned into the
// caller's response error — the RPC already succeeded or failed on its
// own terms by the time this runs.
func (s *Server) recordAudit(ctx context.Context, common envelopeCommon, method string, rpcErr error) {
	outcome := audit.OutcomeSuccess
	if rpcErr != nil {
		switch errorCode(rpcErr) {
		case codeTenantMismatch, codePolicyRejected, codeForbidden:
			outcome = audit.OutcomeDenied
		default:
			outcome = audit.OutcomeFailed
		}
	}

	actorType := "agent"
	actorID := common.AgentID
	if actorID == "" {
		actorID = "unknown"
	}

	entry := models.RecordAuditEntry{
		TenantID:  common.TenantID,
		EventType: method,
		Action:    "call",
		Outcome:   outcome,
		ActorType: actorType,
		ActorID:   actorID,
	}
	if rpcErr != nil {
		entry.Details = map[string]any{"error": rpcErr.Error()}
	}

	if err := s.audit.Record(ctx, entry); err != nil {
		slog.Error("daemon: audit log write failed", "method", method, "error", err)
	}
}

func decodeParams[T any](raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: malformed params: %v", errDecodeParams, err)
	}
	return v, nil
}

func (s *Server) rpcRecordEvent(ctx context.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[models.RecordEventRequest](raw)
	if err != nil {
		return nil, err
	}
	return s.recorder.AppendEvent(ctx, req)
}

func (s *Server) rpcBuildACB(ctx context.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[models.BuildACBRequest](raw)
	if err != nil {
		return nil, err
	}
	return s.acb.Build(ctx, req)
}

// getArtifactParams is get_artifact's params shape; it has no dedicated
// request DTO in pkg/models since it is a two-field lookup.
type getArtifactParams struct {
	TenantID   string `json:"tenant_id"`
	ArtifactID string `json:"artifact_id"`
}

// artifactSummary is get_artifact's result: metadata and a presence flag
// rather than the raw bytes, which are fetched separately through
// GET /api/v1/artifacts/:id once a caller knows it wants them.
type artifactSummary struct {
	ID        string         `json:"id"`
	TenantID  string         `json:"tenant_id"`
	Kind      string         `json:"kind"`
	URI       string         `json:"uri,omitempty"`
	HasBytes  bool           `json:"has_bytes"`
	SizeBytes int            `json:"size_bytes,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Refs      []string       `json:"refs,omitempty"`
}

func (s *Server) rpcGetArtifact(ctx context.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[getArtifactParams](raw)
	if err != nil {
		return nil, err
	}
	a, err := s.store.GetArtifact(ctx, req.TenantID, req.ArtifactID)
	if err != nil {
		return nil, err
	}
	return &artifactSummary{
		ID:        a.ID,
		TenantID:  a.TenantID,
		Kind:      a.Kind,
		URI:       a.URI,
		HasBytes:  len(a.Bytes) > 0,
		SizeBytes: len(a.Bytes),
		Metadata:  a.Metadata,
		Refs:      a.Refs,
	}, nil
}

func (s *Server) rpcCreateHandoff(ctx context.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[models.CreateHandoffRequest](raw)
	if err != nil {
		return nil, err
	}
	return s.handoff.CreateHandoff(ctx, req)
}

type getWakeUpParams struct {
	TenantID string `json:"tenant_id"`
}

func (s *Server) rpcGetWakeUp(ctx context.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[getWakeUpParams](raw)
	if err != nil {
		return nil, err
	}
	return s.handoff.GetWakeUp(ctx, req.TenantID)
}

func (s *Server) rpcListHandoffs(ctx context.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[models.HandoffFilters](raw)
	if err != nil {
		return nil, err
	}
	return s.handoff.ListHandoffs(ctx, req)
}

func (s *Server) rpcListSemanticPrinciples(ctx context.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[models.SemanticPrincipleFilters](raw)
	if err != nil {
		return nil, err
	}
	principles, err := s.store.ListPrinciples(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make([]*models.SemanticPrincipleResponse, 0, len(principles))
	for _, p := range principles {
		out = append(out, &models.SemanticPrincipleResponse{SemanticPrinciple: p})
	}
	return out, nil
}

func (s *Server) rpcCreateKnowledgeNote(ctx context.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[models.CreateKnowledgeNoteRequest](raw)
	if err != nil {
		return nil, err
	}
	note, err := s.store.CreateKnowledgeNote(ctx, req)
	if err != nil {
		return nil, err
	}
	return &models.KnowledgeNoteResponse{KnowledgeNote: note}, nil
}

func (s *Server) rpcGetKnowledgeNotes(ctx context.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[models.KnowledgeNoteFilters](raw)
	if err != nil {
		return nil, err
	}
	notes, err := s.store.GetKnowledgeNotes(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make([]*models.KnowledgeNoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, &models.KnowledgeNoteResponse{KnowledgeNote: n})
	}
	return out, nil
}

func (s *Server) rpcCreateCapsule(ctx context.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[models.CreateCapsuleRequest](raw)
	if err != nil {
		return nil, err
	}
	return s.capsule.CreateCapsule(ctx, req)
}

func (s *Server) rpcGetAvailableCapsules(ctx context.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[models.AvailableCapsulesRequest](raw)
	if err != nil {
		return nil, err
	}
	return s.capsule.GetAvailableCapsules(ctx, req)
}

func (s *Server) rpcRevokeCapsule(ctx context.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[models.RevokeCapsuleRequest](raw)
	if err != nil {
		return nil, err
	}
	return nil, s.capsule.RevokeCapsule(ctx, req)
}

func (s *Server) rpcProposeMemoryEdit(ctx context.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[models.ProposeMemoryEditRequest](raw)
	if err != nil {
		return nil, err
	}
	return s.memoryedit.Propose(ctx, req)
}

func (s *Server) rpcApproveMemoryEdit(ctx context.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[models.ResolveMemoryEditRequest](raw)
	if err != nil {
		return nil, err
	}
	return nil, s.memoryedit.Approve(ctx, req)
}

func (s *Server) rpcRejectMemoryEdit(ctx context.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[models.ResolveMemoryEditRequest](raw)
	if err != nil {
		return nil, err
	}
	return nil, s.memoryedit.Reject(ctx, req)
}

type compressionStatsParams struct {
	TenantID string `json:"tenant_id"`
}

func (s *Server) rpcGetCompressionStats(ctx context.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[compressionStatsParams](raw)
	if err != nil {
		return nil, err
	}
	return s.consolidator.GetCompressionStats(ctx, req.TenantID)
}

func (s *Server) rpcTriggerConsolidation(ctx context.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[models.TriggerConsolidationRequest](raw)
	if err != nil {
		return nil, err
	}
	reports, err := s.consolidator.RunOnce(ctx, req.TenantID, req.JobType)
	if err != nil {
		return nil, err
	}
	out := make([]*models.ConsolidationReportResponse, 0, len(reports))
	for _, r := range reports {
		out = append(out, &models.ConsolidationReportResponse{ConsolidationReport: r})
	}
	return out, nil
}
