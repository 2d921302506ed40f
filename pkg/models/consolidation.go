package models

import "github.com/shared-memory/memoryd/ent"

// TriggerConsolidationRequest is the payload for an on-demand consolidate
// call; the same job types run on the Consolidator's own schedule.
type TriggerConsolidationRequest struct {
	TenantID string `json:"tenant_id"`
	JobType  string `json:"job_type"`
}

// ConsolidationReportResponse wraps a ConsolidationReport.
type ConsolidationReportResponse struct {
	*ent.ConsolidationReport
}

// CompressionStatsResponse is returned by get_compression_stats: a summary
// of recent consolidation activity for a tenant.
type CompressionStatsResponse struct {
	Reports         []*ent.ConsolidationReport `json:"reports"`
	HandoffsByTier  map[string]int             `json:"handoffs_by_tier"`
	ActiveDecisions int                        `json:"active_decisions"`
	Principles      int                        `json:"principles"`
}
