package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shared-memory/memoryd/ent"
	"github.com/shared-memory/memoryd/ent/consolidationreport"
)

// CreateReportParams is the insert shape for a Consolidator job-run
// report; written for every run, including failures.
type CreateReportParams struct {
	TenantID       string
	JobType        string
	ItemsProcessed int
	ItemsAffected  int
	TokensSaved    int
	Details        map[string]any
	Error          string
	StartedAt      time.Time
	FinishedAt     time.Time
}

// CreateReport inserts one ConsolidationReport row.
func (s *Store) CreateReport(ctx context.Context, p CreateReportParams) (*ent.ConsolidationReport, error) {
	if err := requireField("tenant_id", p.TenantID); err != nil {
		return nil, err
	}
	if err := requireField("job_type", p.JobType); err != nil {
		return nil, err
	}

	builder := s.client.ConsolidationReport.Create().
		SetID(newID("rpt")).
		SetTenantID(p.TenantID).
		SetJobType(consolidationreport.JobType(p.JobType)).
		SetItemsProcessed(p.ItemsProcessed).
		SetItemsAffected(p.ItemsAffected).
		SetTokensSaved(p.TokensSaved).
		SetDetails(p.Details).
		SetStartedAt(p.StartedAt).
		SetFinishedAt(p.FinishedAt)

	if p.Error != "" {
		builder = builder.SetError(p.Error)
	}

	r, err := builder.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: create consolidation report: %w", err)
	}
	return r, nil
}

// RecentReports returns up to limit reports for a tenant, newest first,
// for get_compression_stats.
func (s *Store) RecentReports(ctx context.Context, tenantID string, limit int) ([]*ent.ConsolidationReport, error) {
	if limit <= 0 {
		limit = 20
	}

	rs, err := s.client.ConsolidationReport.Query().
		Where(consolidationreport.TenantID(tenantID)).
		Order(ent.Desc(consolidationreport.FieldStartedAt)).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list consolidation reports: %w", err)
	}
	return rs, nil
}
