package config

import "time"

// ACBSectionConfig is the per-section budget and pack-priority pair from
// spec §4.3's section table.
type ACBSectionConfig struct {
	MaxTokens int `yaml:"max_tokens" validate:"required,min=1"`
	Priority  int `yaml:"priority" validate:"min=0"`
}

// ACBConfig holds the bundle-level token budget and the per-section table.
type ACBConfig struct {
	TotalMaxTokens int                         `yaml:"total_max_tokens"`
	ReserveTokens  int                         `yaml:"reserve_tokens"`
	Sections       map[string]ACBSectionConfig `yaml:"sections"`
}

// ScoringConfig holds the retrieval scoring coefficients from spec §4.2.
type ScoringConfig struct {
	Alpha             float64 `yaml:"alpha"`
	Beta              float64 `yaml:"beta"`
	Gamma             float64 `yaml:"gamma"`
	RecencyTauSeconds int     `yaml:"recency_tau_seconds"`
	RRFK              int     `yaml:"rrf_k"`
}

// RetrievalConfig holds candidate-generation caps from spec §4.2.
type RetrievalConfig struct {
	CandidatePoolMax   int `yaml:"candidate_pool_max"`
	RetrievedChunksMax int `yaml:"retrieved_chunks_max"`
	RecencyTailWindow  int `yaml:"recency_tail_window"`
}

// IngestionConfig holds Recorder-side caps from spec §4.1.
type IngestionConfig struct {
	MaxBytesPerToolResultEvent int `yaml:"max_bytes_per_tool_result_event"`
	ChunkMinTokens             int `yaml:"chunk_min_tokens"`
	ChunkMaxTokens             int `yaml:"chunk_max_tokens"`
}

// ConsolidationConfig holds the Consolidator's tiering, archival, and
// identity-extraction thresholds from spec §4.4.
type ConsolidationConfig struct {
	SummaryThresholdDays          int     `yaml:"summary_threshold_days"`
	QuickRefThresholdDays         int     `yaml:"quick_ref_threshold_days"`
	IntegrationThresholdDays      int     `yaml:"integration_threshold_days"`
	DecisionArchiveThresholdDays  int     `yaml:"decision_archive_threshold_days"`
	IdentityConsolidationMinCount int     `yaml:"identity_consolidation_min_count"`
	ConfidenceIncrement           float64 `yaml:"confidence_increment"`
	ConfidenceDecayFactor         float64 `yaml:"confidence_decay_factor"`
	ConfidenceDecayPeriodDays     int     `yaml:"confidence_decay_period_days"`
	ConfidenceFloor               float64 `yaml:"confidence_floor"`
	// DailyScheduleHourUTC / WeeklyScheduleDay control when the light daily
	// and medium weekly consolidation runs fire (WeeklyScheduleDay: 0=Sunday).
	DailyScheduleHourUTC int `yaml:"daily_schedule_hour_utc"`
	WeeklyScheduleDay    int `yaml:"weekly_schedule_day"`
}

// HandoffConfig holds create_handoff's decision-emission threshold from
// spec §4.5: a handoff only writes a companion decision row when its
// caller-supplied significance clears this bar.
type HandoffConfig struct {
	DecisionSignificanceThreshold float64 `yaml:"decision_significance_threshold"`
}

// ChannelPolicy is one row of the channel privacy matrix from spec §6.4.
type ChannelPolicy struct {
	AllowedSensitivity []string `yaml:"allowed_sensitivity"`
	SuppressTags       []string `yaml:"suppress_tags,omitempty"`
}

// PrivacyConfig holds ingestion redaction policy and the channel
// suppression map from spec §6.4/§6.6.
type PrivacyConfig struct {
	NeverStoreKinds    []string                 `yaml:"never_store_kinds"`
	RedactPatterns     []string                 `yaml:"redact_patterns,omitempty"`
	ChannelSuppression map[string]ChannelPolicy `yaml:"channel_suppression"`
}

// DurabilityConfig holds the WAL path and embedding-service settings from
// spec §6.6.
type DurabilityConfig struct {
	WALPath                  string        `yaml:"wal_path"`
	WALReplayBatchSize       int           `yaml:"wal_replay_batch_size"`
	EmbeddingServiceEndpoint string        `yaml:"embedding_service_endpoint,omitempty"`
	EmbeddingTimeout         time.Duration `yaml:"embedding_timeout"`
	EmbeddingRateLimitRPS    float64       `yaml:"embedding_rate_limit_rps"`
	EmbeddingRateLimitBurst  int           `yaml:"embedding_rate_limit_burst"`
}

// DaemonConfig holds the HTTP-layer bounds and bearer-token auth settings
// from spec §4.6: per-request bounds on file reads and bytes read, the
// overall default deadline, the listen address, and the shared secret
// callers must present.
type DaemonConfig struct {
	ListenAddr          string        `yaml:"listen_addr"`
	BearerToken         string        `yaml:"bearer_token"`
	MaxFileReadsPerCall int           `yaml:"max_file_reads_per_call"`
	MaxBytesReadPerCall int64         `yaml:"max_bytes_read_per_call"`
	DefaultDeadline     time.Duration `yaml:"default_deadline"`
}
