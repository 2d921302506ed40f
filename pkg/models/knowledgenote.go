package models

import "github.com/shared-memory/memoryd/ent"

// CreateKnowledgeNoteRequest is the payload for create_knowledge_note.
type CreateKnowledgeNoteRequest struct {
	TenantID string   `json:"tenant_id"`
	AgentID  string   `json:"agent_id,omitempty"`
	Channel  string   `json:"channel,omitempty"`
	Text     string   `json:"text"`
	Tags     []string `json:"tags,omitempty"`
	WithWhom []string `json:"with_whom,omitempty"`
}

// KnowledgeNoteResponse wraps a KnowledgeNote for single-record reads.
type KnowledgeNoteResponse struct {
	*ent.KnowledgeNote
}

// KnowledgeNoteFilters narrows get_knowledge_notes.
type KnowledgeNoteFilters struct {
	TenantID string `json:"tenant_id"`
	AgentID  string `json:"agent_id,omitempty"`
	Channel  string `json:"channel,omitempty"`
}
