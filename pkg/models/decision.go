package models

import "github.com/shared-memory/memoryd/ent"

// RecordDecisionRequest is the payload carried on a record_event whose kind
// is "decision". Superseding a prior decision is expressed by Refs including
// the predecessor's id.
type RecordDecisionRequest struct {
	TenantID     string   `json:"tenant_id"`
	Scope        string   `json:"scope"`
	Decision     string   `json:"decision"`
	Rationale    string   `json:"rationale,omitempty"`
	Constraints  []string `json:"constraints,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
	Consequences []string `json:"consequences,omitempty"`
	Refs         []string `json:"refs"`
}

// DecisionResponse wraps a Decision for single-record reads.
type DecisionResponse struct {
	*ent.Decision
}

// DecisionFilters narrows decision listing to a tenant and status.
type DecisionFilters struct {
	TenantID string `json:"tenant_id"`
	Scope    string `json:"scope,omitempty"`
	Status   string `json:"status,omitempty"`
}
