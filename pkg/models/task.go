package models

import "github.com/shared-memory/memoryd/ent"

// CreateTaskRequest contains fields for creating a task.
type CreateTaskRequest struct {
	TenantID     string   `json:"tenant_id"`
	Title        string   `json:"title"`
	Details      string   `json:"details,omitempty"`
	Refs         []string `json:"refs,omitempty"`
	OwnerAgentID string   `json:"owner_agent_id,omitempty"`
}

// TaskUpdatePayload is the task-specific content carried on a
// record_event whose kind is "task_update". An empty TaskID means the
// event introduces a new task; a non-empty TaskID updates one already in
// the Store.
type TaskUpdatePayload struct {
	TaskID       string   `json:"task_id,omitempty"`
	Title        string   `json:"title,omitempty"`
	Details      string   `json:"details,omitempty"`
	Status       string   `json:"status,omitempty"`
	Refs         []string `json:"refs,omitempty"`
	OwnerAgentID string   `json:"owner_agent_id,omitempty"`
}

// TaskResponse wraps a Task for single-record reads.
type TaskResponse struct {
	*ent.Task
}

// TaskFilters narrows task listing to a tenant and status.
type TaskFilters struct {
	TenantID     string `json:"tenant_id"`
	Status       string `json:"status,omitempty"`
	OwnerAgentID string `json:"owner_agent_id,omitempty"`
}
