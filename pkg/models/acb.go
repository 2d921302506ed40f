package models

// BuildACBRequest is the input to pkg/acb.Builder.Build.
type BuildACBRequest struct {
	TenantID      string `json:"tenant_id"`
	SessionID     string `json:"session_id"`
	AgentID       string `json:"agent_id"`
	Channel       string `json:"channel"`
	Intent        string `json:"intent,omitempty"`
	QueryText     string `json:"query_text"`
	MaxTokens     int    `json:"max_tokens,omitempty"`
	ReserveTokens int    `json:"reserve_tokens,omitempty"`
}

// ACBItem is one packed entry within an ACBSection. Text carries the actual
// excerpt so callers never need a second round-trip; Refs names the source
// record(s) it was derived from.
type ACBItem struct {
	Type     string   `json:"type"`
	Text     string   `json:"text,omitempty"`
	Ref      string   `json:"ref,omitempty"`
	Refs     []string `json:"refs,omitempty"`
	Score    float64  `json:"score,omitempty"`
	TokenEst int      `json:"token_est"`
}

// ACBSection is one named, budgeted slice of the bundle.
type ACBSection struct {
	Name     string    `json:"name"`
	Items    []ACBItem `json:"items"`
	TokenEst int       `json:"token_est"`
}

// ACBOmission records one candidate that was dropped and why, so callers
// and operators can audit what the Builder chose not to include.
type ACBOmission struct {
	Reason     string   `json:"reason"`
	Candidates []string `json:"candidates"`
}

// ACBProvenance captures everything needed to explain and reproduce a
// bundle: the policy in force, how the query was interpreted, and what was
// searched.
type ACBProvenance struct {
	PolicyVersion     string              `json:"policy_version"`
	Intent            string              `json:"intent"`
	QueryTerms        []string            `json:"query_terms"`
	CandidatePoolSize int                 `json:"candidate_pool_size"`
	Filters           map[string]any      `json:"filters,omitempty"`
	Scoring           ScoringCoefficients `json:"scoring"`
	DeterministicSeed string              `json:"deterministic_seed"`
}

// ACB is the Active Context Bundle returned by build_acb.
type ACB struct {
	ACBID        string        `json:"acb_id"`
	BudgetTokens int           `json:"budget_tokens"`
	TokenUsedEst int           `json:"token_used_est"`
	Sections     []ACBSection  `json:"sections"`
	Omissions    []ACBOmission `json:"omissions"`
	Provenance   ACBProvenance `json:"provenance"`
}
