// Package handoff implements spec §4.5's session-continuity contract:
// create_handoff, get_wake_up, and list_handoffs. Its validate ->
// Store-write -> derived-row shape is grounded on the teacher's
// SessionService.CreateSession (pkg/services/session_service.go),
// generalized from a single aggregate-root insert to a handoff row plus
// the two rows it can derive: standard chunks (so the handoff is itself
// retrievable) and, above a configured significance bar, a decision row.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shared-memory/memoryd/pkg/config"
	"github.com/shared-memory/memoryd/pkg/models"
	"github.com/shared-memory/memoryd/pkg/recorder"
	"github.com/shared-memory/memoryd/pkg/store"
)

// Service implements create_handoff, get_wake_up, and list_handoffs.
type Service struct {
	store    *store.Store
	recorder *recorder.Recorder
	cfg      *config.HandoffConfig
}

// New builds a Service.
func New(st *store.Store, rec *recorder.Recorder, cfg *config.HandoffConfig) *Service {
	return &Service{store: st, recorder: rec, cfg: cfg}
}

// CreateHandoff validates req, inserts the Handoff row, derives the
// standard message chunks that make the handoff retrievable through
// ordinary Retrieval, and — only when req.Significance clears the
// configured threshold — emits a companion decision event so the
// identity thread is not polluted by every routine handoff.
func (s *Service) CreateHandoff(ctx context.Context, req models.CreateHandoffRequest) (*models.HandoffResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	h, err := s.store.CreateHandoff(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("handoff: create: %w", err)
	}

	narrative := narrativeText(req)
	if narrative != "" {
		if _, err := s.recorder.AppendEvent(ctx, models.RecordEventRequest{
			TenantID:  req.TenantID,
			SessionID: req.SessionID,
			AgentID:   req.AgentID,
			Channel:   "private",
			ActorType: "agent",
			ActorID:   req.AgentID,
			Kind:      "message",
			Tags:      append(append([]string{}, req.Tags...), "handoff"),
			Refs:      []string{h.ID},
			Content:   map[string]any{"text": narrative},
		}); err != nil {
			return nil, fmt.Errorf("handoff: derive chunks: %w", err)
		}
	}

	if req.Significance >= s.cfg.DecisionSignificanceThreshold {
		if err := s.emitDecision(ctx, req, h.ID); err != nil {
			return nil, fmt.Errorf("handoff: emit decision: %w", err)
		}
	}

	return &models.HandoffResponse{Handoff: h}, nil
}

func (s *Service) emitDecision(ctx context.Context, req models.CreateHandoffRequest, handoffID string) error {
	decisionText := req.Becoming
	if decisionText == "" {
		decisionText = req.Learned
	}
	if decisionText == "" {
		decisionText = fmt.Sprintf("significant handoff %s recorded without an explicit decision text", handoffID)
	}

	_, err := s.recorder.AppendEvent(ctx, models.RecordEventRequest{
		TenantID:  req.TenantID,
		SessionID: req.SessionID,
		AgentID:   req.AgentID,
		Channel:   "private",
		ActorType: "agent",
		ActorID:   req.AgentID,
		Kind:      "decision",
		Tags:      req.Tags,
		Content: map[string]any{
			"scope":    "session",
			"decision": decisionText,
			"refs":     []string{handoffID},
		},
	})
	return err
}

// GetWakeUp implements get_wake_up: the most recent handoff, the identity
// thread, active decisions, and active tasks — enough continuity context
// for the next session to start coherently.
func (s *Service) GetWakeUp(ctx context.Context, tenantID string) (*models.WakeUpResponse, error) {
	latest, err := s.store.LatestHandoff(ctx, tenantID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("handoff: latest: %w", err)
	}

	thread, err := s.store.IdentityThread(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("handoff: identity thread: %w", err)
	}

	decisions, err := s.store.ActiveDecisions(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("handoff: active decisions: %w", err)
	}

	tasks, err := s.store.ActiveTasks(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("handoff: active tasks: %w", err)
	}

	return &models.WakeUpResponse{
		LatestHandoff:   latest,
		IdentityThread:  thread,
		ActiveDecisions: decisions,
		ActiveTasks:     tasks,
	}, nil
}

// ListHandoffs implements list_handoffs: a thin wrapper over the Store.
func (s *Service) ListHandoffs(ctx context.Context, filters models.HandoffFilters) ([]*models.HandoffResponse, error) {
	hs, err := s.store.ListHandoffs(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("handoff: list: %w", err)
	}
	out := make([]*models.HandoffResponse, 0, len(hs))
	for _, h := range hs {
		out = append(out, &models.HandoffResponse{Handoff: h})
	}
	return out, nil
}

func validate(req models.CreateHandoffRequest) error {
	if req.TenantID == "" {
		return fmt.Errorf("%w: tenant_id is required", ErrValidation)
	}
	if req.SessionID == "" {
		return fmt.Errorf("%w: session_id is required", ErrValidation)
	}
	if req.AgentID == "" {
		return fmt.Errorf("%w: agent_id is required", ErrValidation)
	}
	if req.Significance < 0 || req.Significance > 1 {
		return fmt.Errorf("%w: significance must be within [0,1]", ErrValidation)
	}
	return nil
}

// narrativeText joins the handoff's free-text fields into one retrievable
// passage, the same non-empty-join shape the Consolidator's
// handoffSourceText uses over the stored row.
func narrativeText(req models.CreateHandoffRequest) string {
	parts := []string{req.Experienced, req.Noticed, req.Learned, req.Story, req.Becoming, req.Remember}
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ". ")
}
