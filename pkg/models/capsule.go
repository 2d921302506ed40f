package models

import "github.com/shared-memory/memoryd/ent"

// CreateCapsuleRequest is the payload for create_capsule.
type CreateCapsuleRequest struct {
	TenantID         string   `json:"tenant_id"`
	Scope            string   `json:"scope"`
	SubjectType      string   `json:"subject_type"`
	SubjectID        string   `json:"subject_id"`
	AuthorAgentID    string   `json:"author_agent_id"`
	AudienceAgentIDs []string `json:"audience_agent_ids"`
	ChunkRefs        []string `json:"chunk_refs,omitempty"`
	DecisionRefs     []string `json:"decision_refs,omitempty"`
	ArtifactRefs     []string `json:"artifact_refs,omitempty"`
	Risks            []string `json:"risks,omitempty"`
	TTLDays          int      `json:"ttl_days"`
}

// CapsuleResponse wraps a Capsule for single-record reads.
type CapsuleResponse struct {
	*ent.Capsule
}

// AvailableCapsulesRequest is the payload for get_available_capsules.
type AvailableCapsulesRequest struct {
	TenantID    string `json:"tenant_id"`
	AgentID     string `json:"agent_id"`
	SubjectType string `json:"subject_type,omitempty"`
	SubjectID   string `json:"subject_id,omitempty"`
}

// RevokeCapsuleRequest is the payload for revoke_capsule.
type RevokeCapsuleRequest struct {
	TenantID  string `json:"tenant_id"`
	CapsuleID string `json:"capsule_id"`
}
