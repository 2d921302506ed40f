// Package recorder implements spec §4.1's record_event contract: the
// single entry point through which every event, and the chunks/decisions/
// tasks derived from it, enters the Store. AppendEvent runs its eight
// steps in the fixed order spec.md prescribes and writes all of them in
// one transaction, mirroring the teacher's SessionService.CreateSession
// (a multi-row Tx/Create/Save/Commit sequence) rather than a sequence of
// independently-committed writes.
package recorder

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shared-memory/memoryd/ent"
	"github.com/shared-memory/memoryd/pkg/config"
	"github.com/shared-memory/memoryd/pkg/masking"
	"github.com/shared-memory/memoryd/pkg/models"
	"github.com/shared-memory/memoryd/pkg/simhash"
	"github.com/shared-memory/memoryd/pkg/store"
	"github.com/shared-memory/memoryd/pkg/tokenest"
	"github.com/shared-memory/memoryd/pkg/wal"
)

// validKinds is the Event.kind enum from the ent schema, checked during
// step 1 so a bad kind fails validation instead of the ent builder.
var validKinds = map[string]bool{
	"message":      true,
	"tool_call":    true,
	"tool_result":  true,
	"decision":     true,
	"task_update":  true,
	"artifact_ref": true,
}

var validChannels = map[string]bool{"private": true, "public": true, "team": true, "agent": true}
var validActorTypes = map[string]bool{"human": true, "agent": true, "tool": true}

// Recorder owns the record_event write path.
type Recorder struct {
	store     *store.Store
	masking   *masking.Service
	wal       *wal.WAL
	ingestion *config.IngestionConfig
	privacy   *config.PrivacyConfig
}

// New builds a Recorder. wal may be nil, in which case a Store outage
// during AppendEvent returns ErrStoreUnavailable instead of deferring.
func New(st *store.Store, maskingSvc *masking.Service, w *wal.WAL, ingestion *config.IngestionConfig, privacy *config.PrivacyConfig) *Recorder {
	return &Recorder{store: st, masking: maskingSvc, wal: w, ingestion: ingestion, privacy: privacy}
}

// AppendEvent runs spec §4.1's eight ordered steps and returns the
// inserted event id plus the ids of every chunk derived from it.
func (r *Recorder) AppendEvent(ctx context.Context, req models.RecordEventRequest) (*models.RecordEventResponse, error) {
	// Step 1: schema validation.
	if err := r.validate(req); err != nil {
		return nil, err
	}

	contentText, err := contentToText(req.Content)
	if err != nil {
		return nil, newValidationError("content", err.Error())
	}

	// Step 2: sensitivity classification.
	sensitivity := req.Sensitivity
	if sensitivity == "" {
		sensitivity = string(r.masking.ClassifySensitivity(contentText))
	}
	if r.isNeverStore(sensitivity) {
		return nil, fmt.Errorf("%w: sensitivity %q is never stored", ErrPolicyRejected, sensitivity)
	}
	if sensitivity == "high" {
		contentText = r.masking.Redact(contentText)
		if text, ok := req.Content["text"].(string); ok {
			req.Content["text"] = r.masking.Redact(text)
		}
	}
	req.Sensitivity = sensitivity

	// Step 3: tool-output normalization.
	var overflow []byte
	if req.Kind == "tool_result" {
		normalized, spill, err := normalizeToolResult(req.Content, r.ingestion.MaxBytesPerToolResultEvent)
		if err != nil {
			return nil, newValidationError("content", err.Error())
		}
		overflow = spill
		req.Content = normalized.toMap()
		contentText = normalized.ExcerptText
	}

	// Step 4: token estimation.
	tokenEst := tokenest.Estimate(contentText)

	// Step 5: chunk derivation.
	chunkTexts := deriveChunks(contentText, r.ingestion.ChunkMinTokens, r.ingestion.ChunkMaxTokens)
	if len(chunkTexts) == 0 {
		chunkTexts = []string{contentText}
	}

	// Step 6: importance heuristic (pinning is never set by record_event
	// itself; it is applied later via a memory edit).
	importance := scoreImportance(req.Kind, req.Tags, false)

	resp, err := r.writeTx(ctx, req, overflow, chunkTexts, tokenEst, importance)
	if err != nil {
		if r.wal == nil || !isStoreUnavailable(err) {
			return nil, err
		}
		return r.deferToWAL(req)
	}
	return resp, nil
}

// writeTx performs step 7 (and step 8 when applicable): one transaction
// inserting the event, its chunks, any overflow artifact, and the
// decision/task row a decision or task_update event carries.
func (r *Recorder) writeTx(ctx context.Context, req models.RecordEventRequest, overflow []byte, chunkTexts []string, tokenEst int, importance float64) (*models.RecordEventResponse, error) {
	client := r.store.Client()
	tx, err := client.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	var artifactID string
	if len(overflow) > 0 {
		a, err := store.CreateArtifactInTx(ctx, tx, models.CreateArtifactRequest{
			TenantID: req.TenantID,
			Kind:     "tool_result_overflow",
			Bytes:    overflow,
			Metadata: map[string]any{"event_kind": req.Kind},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		artifactID = a.ID
		if req.Content == nil {
			req.Content = map[string]any{}
		}
		req.Content["artifact_id"] = artifactID
	}

	ev, err := store.CreateEventInTx(ctx, tx, req, tokenEst)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	chunkIDs := make([]string, 0, len(chunkTexts))
	for _, text := range chunkTexts {
		hash := contentHash(text)
		c, err := store.CreateChunkInTx(ctx, tx, store.CreateChunkParams{
			TenantID:    req.TenantID,
			EventID:     ev.ID,
			SessionID:   req.SessionID,
			Kind:        req.Kind,
			Channel:     req.Channel,
			Sensitivity: req.Sensitivity,
			Tags:        req.Tags,
			TokenEst:    tokenest.Estimate(text),
			Importance:  importance,
			Text:        text,
			ContentHash: hash,
			SimHash:     simhash.Sum64(text),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		chunkIDs = append(chunkIDs, c.ID)
	}

	// Step 8 (decision kind): insert the decision row, superseding its
	// predecessor in the same transaction when refs name an active one.
	if req.Kind == "decision" {
		if err := r.writeDecision(ctx, tx, req); err != nil {
			return nil, err
		}
	}

	// task_update kind: create or update the referenced task.
	if req.Kind == "task_update" {
		if err := r.writeTaskUpdate(ctx, tx, req); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &models.RecordEventResponse{EventID: ev.ID, ChunkIDs: chunkIDs, Deferred: false}, nil
}

func (r *Recorder) writeDecision(ctx context.Context, tx *ent.Tx, req models.RecordEventRequest) error {
	var decReq models.RecordDecisionRequest
	if err := decodeContent(req.Content, &decReq); err != nil {
		return newValidationError("content", err.Error())
	}
	if len(decReq.Refs) == 0 {
		return newValidationError("refs", "decision requires at least one ref")
	}

	d, err := store.CreateDecisionInTx(ctx, tx, req.TenantID, req.SessionID, decReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	for _, refID := range decReq.Refs {
		if refID == d.ID {
			continue
		}
		if err := store.SupersedeDecisionInTx(ctx, tx, req.TenantID, refID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}
	return nil
}

func (r *Recorder) writeTaskUpdate(ctx context.Context, tx *ent.Tx, req models.RecordEventRequest) error {
	var payload models.TaskUpdatePayload
	if err := decodeContent(req.Content, &payload); err != nil {
		return newValidationError("content", err.Error())
	}

	if payload.TaskID == "" {
		_, err := store.CreateTaskInTx(ctx, tx, models.CreateTaskRequest{
			TenantID:     req.TenantID,
			Title:        payload.Title,
			Details:      payload.Details,
			Refs:         payload.Refs,
			OwnerAgentID: payload.OwnerAgentID,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return nil
	}

	if _, err := store.UpdateTaskInTx(ctx, tx, req.TenantID, payload.TaskID, payload.Status, payload.Details); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// deferToWAL persists req to the write-ahead log when the Store could not
// be reached, per spec §4.6's durability fallback. The caller sees a
// successful response with Deferred=true and no event/chunk ids yet —
// those are assigned when the WAL is replayed.
func (r *Recorder) deferToWAL(req models.RecordEventRequest) (*models.RecordEventResponse, error) {
	if err := r.wal.Append("record_event", req); err != nil {
		return nil, fmt.Errorf("recorder: append to wal: %w", err)
	}
	slog.Warn("store unavailable, deferred record_event to wal", "tenant_id", req.TenantID, "kind", req.Kind)
	return &models.RecordEventResponse{Deferred: true}, nil
}

func (r *Recorder) validate(req models.RecordEventRequest) error {
	if req.TenantID == "" {
		return newValidationError("tenant_id", "required")
	}
	if req.SessionID == "" {
		return newValidationError("session_id", "required")
	}
	if req.AgentID == "" {
		return newValidationError("agent_id", "required")
	}
	if req.ActorID == "" {
		return newValidationError("actor_id", "required")
	}
	if !validChannels[req.Channel] {
		return newValidationError("channel", fmt.Sprintf("invalid channel %q", req.Channel))
	}
	if !validActorTypes[req.ActorType] {
		return newValidationError("actor_type", fmt.Sprintf("invalid actor_type %q", req.ActorType))
	}
	if !validKinds[req.Kind] {
		return newValidationError("kind", fmt.Sprintf("invalid kind %q", req.Kind))
	}
	if req.Content == nil {
		return newValidationError("content", "required")
	}
	return nil
}

func (r *Recorder) isNeverStore(sensitivity string) bool {
	for _, s := range r.privacy.NeverStoreKinds {
		if s == sensitivity {
			return true
		}
	}
	return false
}

func isStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

func contentToText(content map[string]any) (string, error) {
	if text, ok := content["text"].(string); ok {
		return text, nil
	}
	b, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("marshal content: %w", err)
	}
	return string(b), nil
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", sum)
}

func decodeContent(content map[string]any, dst any) error {
	b, err := json.Marshal(content)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
