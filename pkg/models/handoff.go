package models

import "github.com/shared-memory/memoryd/ent"

// CreateHandoffRequest is the payload for create_handoff.
type CreateHandoffRequest struct {
	TenantID     string   `json:"tenant_id"`
	SessionID    string   `json:"session_id"`
	AgentID      string   `json:"agent_id"`
	Experienced  string   `json:"experienced,omitempty"`
	Noticed      string   `json:"noticed,omitempty"`
	Learned      string   `json:"learned,omitempty"`
	Story        string   `json:"story,omitempty"`
	Becoming     string   `json:"becoming,omitempty"`
	Remember     string   `json:"remember,omitempty"`
	Significance float64  `json:"significance"`
	Tags         []string `json:"tags,omitempty"`
	WithWhom     []string `json:"with_whom,omitempty"`
}

// HandoffResponse wraps a Handoff for single-record reads.
type HandoffResponse struct {
	*ent.Handoff
}

// WakeUpResponse is returned by get_wake_up: enough continuity context for
// the next session to start coherently.
type WakeUpResponse struct {
	LatestHandoff   *ent.Handoff    `json:"latest_handoff,omitempty"`
	IdentityThread  []*ent.Handoff  `json:"identity_thread"`
	ActiveDecisions []*ent.Decision `json:"active_decisions"`
	ActiveTasks     []*ent.Task     `json:"active_tasks"`
}

// HandoffFilters narrows list_handoffs to a tenant and optionally an agent.
type HandoffFilters struct {
	TenantID string `json:"tenant_id"`
	AgentID  string `json:"agent_id,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}
