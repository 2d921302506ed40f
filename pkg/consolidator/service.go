// Package consolidator implements spec §4.4's background compression
// pipeline: handoff tiering (full -> summary -> quick_ref -> integrated),
// decision archival, and identity-thread principle extraction/decay. Its
// lifecycle is grounded on the teacher's pkg/cleanup.Service — a ticker-
// driven background worker with Start/Stop and a run loop that fires once
// immediately and then on every tick — generalized from cleanup's fixed
// per-pod retention sweep to a per-tenant consolidation sweep scheduled by
// config.ConsolidationConfig's daily/weekly settings.
package consolidator

import (
	"context"
	"log/slog"
	"time"

	"github.com/shared-memory/memoryd/ent"
	"github.com/shared-memory/memoryd/pkg/config"
	"github.com/shared-memory/memoryd/pkg/models"
	"github.com/shared-memory/memoryd/pkg/store"
)

// tickInterval is how often the scheduler wakes to check whether a
// tenant's daily or weekly consolidation window has arrived. An hour is
// coarse enough that the job never competes meaningfully with request
// traffic for the Store, per spec §4.4's "competes only via the Store"
// scheduling note.
const tickInterval = time.Hour

// Service runs the Consolidator's scheduled sweep over every tenant with
// stored activity.
type Service struct {
	store *store.Store
	cfg   *config.ConsolidationConfig

	cancel context.CancelFunc
	done   chan struct{}

	lastDaily  time.Time
	lastWeekly time.Time
}

// New builds a Service.
func New(st *store.Store, cfg *config.ConsolidationConfig) *Service {
	return &Service{store: st, cfg: cfg}
}

// Start launches the background consolidation loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Consolidator started",
		"summary_threshold_days", s.cfg.SummaryThresholdDays,
		"decision_archive_threshold_days", s.cfg.DecisionArchiveThresholdDays,
		"daily_schedule_hour_utc", s.cfg.DailyScheduleHourUTC)
}

// Stop signals the consolidation loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Consolidator stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.maybeRunScheduled(ctx, now)
		}
	}
}

// maybeRunScheduled runs the daily jobs (handoff tiering, decision
// archival) once per UTC day at DailyScheduleHourUTC, and the weekly
// identity job once per week at WeeklyScheduleDay/DailyScheduleHourUTC,
// across every tenant with stored activity.
func (s *Service) maybeRunScheduled(ctx context.Context, now time.Time) {
	runDaily := now.Hour() == s.cfg.DailyScheduleHourUTC && now.YearDay() != s.lastDaily.YearDay()
	runWeekly := runDaily && int(now.Weekday()) == s.cfg.WeeklyScheduleDay

	if !runDaily {
		return
	}

	tenants, err := s.store.DistinctTenantIDs(ctx)
	if err != nil {
		slog.Error("Consolidator: list tenants failed", "error", err)
		return
	}

	for _, tenantID := range tenants {
		s.runAndLog(ctx, tenantID, jobHandoffs)
		s.runAndLog(ctx, tenantID, jobDecisions)
		if runWeekly {
			s.runAndLog(ctx, tenantID, jobIdentity)
		}
	}

	s.lastDaily = now
	if runWeekly {
		s.lastWeekly = now
	}
}

func (s *Service) runAndLog(ctx context.Context, tenantID, jobType string) {
	report, err := s.runJob(ctx, tenantID, jobType)
	if err != nil {
		slog.Error("Consolidator: job failed", "tenant_id", tenantID, "job_type", jobType, "error", err)
		return
	}
	if report.ItemsAffected > 0 {
		slog.Info("Consolidator: job completed", "tenant_id", tenantID, "job_type", jobType,
			"items_processed", report.ItemsProcessed, "items_affected", report.ItemsAffected,
			"tokens_saved", report.TokensSaved)
	}
}

// RunOnce implements trigger_consolidation: runs job_type immediately for
// tenantID and returns every ConsolidationReport produced. job_type "all"
// fans out to identity, handoffs and decisions and returns all three.
func (s *Service) RunOnce(ctx context.Context, tenantID, jobType string) ([]*ent.ConsolidationReport, error) {
	if jobType == jobAll {
		var reports []*ent.ConsolidationReport
		for _, jt := range []string{jobIdentity, jobHandoffs, jobDecisions} {
			r, err := s.runJob(ctx, tenantID, jt)
			if err != nil {
				return reports, err
			}
			reports = append(reports, r)
		}
		return reports, nil
	}

	r, err := s.runJob(ctx, tenantID, jobType)
	if err != nil {
		return nil, err
	}
	return []*ent.ConsolidationReport{r}, nil
}

// GetCompressionStats implements get_compression_stats: recent reports
// plus current counts, for Consolidator observability.
func (s *Service) GetCompressionStats(ctx context.Context, tenantID string) (*models.CompressionStatsResponse, error) {
	reports, err := s.store.RecentReports(ctx, tenantID, 20)
	if err != nil {
		return nil, err
	}
	byTier, err := s.store.HandoffsByTier(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	decisions, err := s.store.ActiveDecisions(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	principleCount, err := s.store.CountPrinciples(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return &models.CompressionStatsResponse{
		Reports:         reports,
		HandoffsByTier:  byTier,
		ActiveDecisions: len(decisions),
		Principles:      principleCount,
	}, nil
}
