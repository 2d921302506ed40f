package models

import "github.com/shared-memory/memoryd/ent"

// SemanticPrincipleResponse wraps a SemanticPrinciple for list reads.
type SemanticPrincipleResponse struct {
	*ent.SemanticPrinciple
}

// SemanticPrincipleFilters narrows list_semantic_principles.
type SemanticPrincipleFilters struct {
	TenantID      string  `json:"tenant_id"`
	Category      string  `json:"category,omitempty"`
	MinConfidence float64 `json:"min_confidence,omitempty"`
}
