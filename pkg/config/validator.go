package config

import "fmt"

// Validator validates configuration comprehensively with clear error messages
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast - stops at first error)
func (v *Validator) ValidateAll() error {
	if err := v.validateACB(); err != nil {
		return fmt.Errorf("acb validation failed: %w", err)
	}
	if err := v.validateScoring(); err != nil {
		return fmt.Errorf("scoring validation failed: %w", err)
	}
	if err := v.validateRetrieval(); err != nil {
		return fmt.Errorf("retrieval validation failed: %w", err)
	}
	if err := v.validateIngestion(); err != nil {
		return fmt.Errorf("ingestion validation failed: %w", err)
	}
	if err := v.validateConsolidation(); err != nil {
		return fmt.Errorf("consolidation validation failed: %w", err)
	}
	if err := v.validateHandoff(); err != nil {
		return fmt.Errorf("handoff validation failed: %w", err)
	}
	if err := v.validatePrivacy(); err != nil {
		return fmt.Errorf("privacy validation failed: %w", err)
	}
	if err := v.validateDurability(); err != nil {
		return fmt.Errorf("durability validation failed: %w", err)
	}
	if err := v.validateQueue(); err != nil {
		return fmt.Errorf("queue validation failed: %w", err)
	}
	if err := v.validateDaemon(); err != nil {
		return fmt.Errorf("daemon validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateACB() error {
	acb := v.cfg.ACB
	if acb == nil {
		return fmt.Errorf("acb configuration is nil")
	}
	if acb.TotalMaxTokens < 1 {
		return NewValidationError("acb", "", "total_max_tokens",
			fmt.Errorf("must be at least 1, got %d", acb.TotalMaxTokens))
	}
	if acb.ReserveTokens < 0 {
		return NewValidationError("acb", "", "reserve_tokens",
			fmt.Errorf("must be non-negative, got %d", acb.ReserveTokens))
	}
	if acb.ReserveTokens >= acb.TotalMaxTokens {
		return NewValidationError("acb", "", "reserve_tokens",
			fmt.Errorf("must be less than total_max_tokens (%d), got %d", acb.TotalMaxTokens, acb.ReserveTokens))
	}
	if len(acb.Sections) == 0 {
		return NewValidationError("acb", "", "sections", fmt.Errorf("at least one section is required"))
	}
	for name, section := range acb.Sections {
		if section.MaxTokens < 1 {
			return NewValidationError("acb_section", name, "max_tokens",
				fmt.Errorf("must be at least 1, got %d", section.MaxTokens))
		}
		if section.Priority < 0 {
			return NewValidationError("acb_section", name, "priority",
				fmt.Errorf("must be non-negative, got %d", section.Priority))
		}
	}
	// identity + rules alone must at least fit in budget, mirroring the
	// budget_impossible failure mode of build_acb (spec §4.3).
	if identity, ok := acb.Sections["identity"]; ok {
		if rules, ok := acb.Sections["rules"]; ok {
			if identity.MaxTokens+rules.MaxTokens > acb.TotalMaxTokens-acb.ReserveTokens {
				return NewValidationError("acb", "", "sections",
					fmt.Errorf("identity+rules budget (%d) exceeds total_max_tokens-reserve_tokens (%d); build_acb would always fail with budget_impossible",
						identity.MaxTokens+rules.MaxTokens, acb.TotalMaxTokens-acb.ReserveTokens))
			}
		}
	}
	return nil
}

func (v *Validator) validateScoring() error {
	s := v.cfg.Scoring
	if s == nil {
		return fmt.Errorf("scoring configuration is nil")
	}
	if s.Alpha < 0 || s.Beta < 0 || s.Gamma < 0 {
		return NewValidationError("scoring", "", "alpha/beta/gamma",
			fmt.Errorf("coefficients must be non-negative, got alpha=%v beta=%v gamma=%v", s.Alpha, s.Beta, s.Gamma))
	}
	if s.RecencyTauSeconds < 1 {
		return NewValidationError("scoring", "", "recency_tau_seconds",
			fmt.Errorf("must be at least 1, got %d", s.RecencyTauSeconds))
	}
	if s.RRFK < 1 {
		return NewValidationError("scoring", "", "rrf_k",
			fmt.Errorf("must be at least 1, got %d", s.RRFK))
	}
	return nil
}

func (v *Validator) validateRetrieval() error {
	r := v.cfg.Retrieval
	if r == nil {
		return fmt.Errorf("retrieval configuration is nil")
	}
	if r.CandidatePoolMax < 1 {
		return NewValidationError("retrieval", "", "candidate_pool_max",
			fmt.Errorf("must be at least 1, got %d", r.CandidatePoolMax))
	}
	if r.RetrievedChunksMax < 1 {
		return NewValidationError("retrieval", "", "retrieved_chunks_max",
			fmt.Errorf("must be at least 1, got %d", r.RetrievedChunksMax))
	}
	if r.RetrievedChunksMax > r.CandidatePoolMax {
		return NewValidationError("retrieval", "", "retrieved_chunks_max",
			fmt.Errorf("cannot exceed candidate_pool_max (%d), got %d", r.CandidatePoolMax, r.RetrievedChunksMax))
	}
	if r.RecencyTailWindow < 0 {
		return NewValidationError("retrieval", "", "recency_tail_window",
			fmt.Errorf("must be non-negative, got %d", r.RecencyTailWindow))
	}
	return nil
}

func (v *Validator) validateIngestion() error {
	i := v.cfg.Ingestion
	if i == nil {
		return fmt.Errorf("ingestion configuration is nil")
	}
	if i.MaxBytesPerToolResultEvent < 1 {
		return NewValidationError("ingestion", "", "max_bytes_per_tool_result_event",
			fmt.Errorf("must be at least 1, got %d", i.MaxBytesPerToolResultEvent))
	}
	if i.ChunkMinTokens < 1 {
		return NewValidationError("ingestion", "", "chunk_min_tokens",
			fmt.Errorf("must be at least 1, got %d", i.ChunkMinTokens))
	}
	if i.ChunkMaxTokens < i.ChunkMinTokens {
		return NewValidationError("ingestion", "", "chunk_max_tokens",
			fmt.Errorf("must be >= chunk_min_tokens (%d), got %d", i.ChunkMinTokens, i.ChunkMaxTokens))
	}
	return nil
}

func (v *Validator) validateConsolidation() error {
	c := v.cfg.Consolidation
	if c == nil {
		return fmt.Errorf("consolidation configuration is nil")
	}
	if c.SummaryThresholdDays < 1 {
		return NewValidationError("consolidation", "", "summary_threshold_days",
			fmt.Errorf("must be at least 1, got %d", c.SummaryThresholdDays))
	}
	if c.QuickRefThresholdDays < c.SummaryThresholdDays {
		return NewValidationError("consolidation", "", "quick_ref_threshold_days",
			fmt.Errorf("must be >= summary_threshold_days (%d), got %d", c.SummaryThresholdDays, c.QuickRefThresholdDays))
	}
	if c.IntegrationThresholdDays < c.QuickRefThresholdDays {
		return NewValidationError("consolidation", "", "integration_threshold_days",
			fmt.Errorf("must be >= quick_ref_threshold_days (%d), got %d", c.QuickRefThresholdDays, c.IntegrationThresholdDays))
	}
	if c.DecisionArchiveThresholdDays < 1 {
		return NewValidationError("consolidation", "", "decision_archive_threshold_days",
			fmt.Errorf("must be at least 1, got %d", c.DecisionArchiveThresholdDays))
	}
	if c.IdentityConsolidationMinCount < 1 {
		return NewValidationError("consolidation", "", "identity_consolidation_min_count",
			fmt.Errorf("must be at least 1, got %d", c.IdentityConsolidationMinCount))
	}
	if c.ConfidenceFloor < 0 || c.ConfidenceFloor > 1 {
		return NewValidationError("consolidation", "", "confidence_floor",
			fmt.Errorf("must be within [0,1], got %v", c.ConfidenceFloor))
	}
	if c.ConfidenceDecayFactor <= 0 || c.ConfidenceDecayFactor > 1 {
		return NewValidationError("consolidation", "", "confidence_decay_factor",
			fmt.Errorf("must be within (0,1], got %v", c.ConfidenceDecayFactor))
	}
	if c.ConfidenceDecayPeriodDays < 1 {
		return NewValidationError("consolidation", "", "confidence_decay_period_days",
			fmt.Errorf("must be at least 1, got %d", c.ConfidenceDecayPeriodDays))
	}
	if c.DailyScheduleHourUTC < 0 || c.DailyScheduleHourUTC > 23 {
		return NewValidationError("consolidation", "", "daily_schedule_hour_utc",
			fmt.Errorf("must be within [0,23], got %d", c.DailyScheduleHourUTC))
	}
	if c.WeeklyScheduleDay < 0 || c.WeeklyScheduleDay > 6 {
		return NewValidationError("consolidation", "", "weekly_schedule_day",
			fmt.Errorf("must be within [0,6] (0=Sunday), got %d", c.WeeklyScheduleDay))
	}
	return nil
}

func (v *Validator) validateHandoff() error {
	h := v.cfg.Handoff
	if h == nil {
		return fmt.Errorf("handoff configuration is nil")
	}
	if h.DecisionSignificanceThreshold < 0 || h.DecisionSignificanceThreshold > 1 {
		return NewValidationError("handoff", "", "decision_significance_threshold",
			fmt.Errorf("must be within [0,1], got %v", h.DecisionSignificanceThreshold))
	}
	return nil
}

func (v *Validator) validatePrivacy() error {
	p := v.cfg.Privacy
	if p == nil {
		return fmt.Errorf("privacy configuration is nil")
	}
	if len(p.ChannelSuppression) == 0 {
		return NewValidationError("privacy", "", "channel_suppression",
			fmt.Errorf("at least one channel policy is required"))
	}
	for _, ch := range []string{string(ChannelPrivate), string(ChannelPublic), string(ChannelTeam), string(ChannelAgent)} {
		policy, ok := p.ChannelSuppression[ch]
		if !ok {
			return NewValidationError("privacy", ch, "channel_suppression",
				fmt.Errorf("missing policy for required channel %q", ch))
		}
		for _, sens := range policy.AllowedSensitivity {
			if !Sensitivity(sens).IsValid() {
				return NewValidationError("privacy", ch, "allowed_sensitivity",
					fmt.Errorf("unrecognised sensitivity %q", sens))
			}
			if sens == string(SensitivitySecret) {
				return NewValidationError("privacy", ch, "allowed_sensitivity",
					fmt.Errorf("secret content must never be loadable under any channel"))
			}
		}
	}
	return nil
}

func (v *Validator) validateDurability() error {
	d := v.cfg.Durability
	if d == nil {
		return fmt.Errorf("durability configuration is nil")
	}
	if d.WALPath == "" {
		return NewValidationError("durability", "", "wal_path", fmt.Errorf("must not be empty"))
	}
	if d.WALReplayBatchSize < 1 {
		return NewValidationError("durability", "", "wal_replay_batch_size",
			fmt.Errorf("must be at least 1, got %d", d.WALReplayBatchSize))
	}
	if d.EmbeddingServiceEndpoint != "" {
		if d.EmbeddingTimeout <= 0 {
			return NewValidationError("durability", "", "embedding_timeout",
				fmt.Errorf("must be positive when embedding_service_endpoint is set"))
		}
		if d.EmbeddingRateLimitRPS <= 0 {
			return NewValidationError("durability", "", "embedding_rate_limit_rps",
				fmt.Errorf("must be positive when embedding_service_endpoint is set"))
		}
	}
	return nil
}

func (v *Validator) validateQueue() error {
	q := v.cfg.Queue
	if q == nil {
		return fmt.Errorf("queue configuration is nil")
	}
	if q.WorkerCount < 1 || q.WorkerCount > 50 {
		return fmt.Errorf("worker_count must be between 1 and 50, got %d", q.WorkerCount)
	}
	if q.MaxConcurrentRequests < 1 {
		return fmt.Errorf("max_concurrent_requests must be at least 1, got %d", q.MaxConcurrentRequests)
	}
	if q.RequestDeadline <= 0 {
		return fmt.Errorf("request_deadline must be positive, got %v", q.RequestDeadline)
	}
	if q.WriteDeadline <= 0 {
		return fmt.Errorf("write_deadline must be positive, got %v", q.WriteDeadline)
	}
	if q.GracefulShutdownTimeout <= 0 {
		return fmt.Errorf("graceful_shutdown_timeout must be positive, got %v", q.GracefulShutdownTimeout)
	}
	if q.WALReplayInterval <= 0 {
		return fmt.Errorf("wal_replay_interval must be positive, got %v", q.WALReplayInterval)
	}
	return nil
}

func (v *Validator) validateDaemon() error {
	d := v.cfg.Daemon
	if d == nil {
		return fmt.Errorf("daemon configuration is nil")
	}
	if d.ListenAddr == "" {
		return NewValidationError("daemon", "", "listen_addr", fmt.Errorf("must not be empty"))
	}
	if d.MaxFileReadsPerCall < 1 {
		return NewValidationError("daemon", "", "max_file_reads_per_call",
			fmt.Errorf("must be at least 1, got %d", d.MaxFileReadsPerCall))
	}
	if d.MaxBytesReadPerCall < 1 {
		return NewValidationError("daemon", "", "max_bytes_read_per_call",
			fmt.Errorf("must be at least 1, got %d", d.MaxBytesReadPerCall))
	}
	if d.DefaultDeadline <= 0 {
		return NewValidationError("daemon", "", "default_deadline",
			fmt.Errorf("must be positive, got %v", d.DefaultDeadline))
	}
	return nil
}
