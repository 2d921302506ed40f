package config

import "time"

// ACBSectionDefaults is the built-in {max_tokens, priority} table for each
// bundle section, per spec §4.3. Higher priority packs first when the
// overall budget is tight.
func ACBSectionDefaults() map[string]ACBSectionConfig {
	return map[string]ACBSectionConfig{
		"identity":           {MaxTokens: 1200, Priority: 10},
		"rules":              {MaxTokens: 6000, Priority: 9},
		"task_state":         {MaxTokens: 3000, Priority: 9},
		"relevant_decisions": {MaxTokens: 8000, Priority: 8},
		"retrieved_evidence": {MaxTokens: 28000, Priority: 7},
		"recent_window":      {MaxTokens: 12000, Priority: 6},
		"tool_state":         {MaxTokens: 2000, Priority: 6},
	}
}

// DefaultACBConfig returns the built-in bundle-level budget defaults.
func DefaultACBConfig() *ACBConfig {
	return &ACBConfig{
		TotalMaxTokens: 65000,
		ReserveTokens:  5000,
		Sections:       ACBSectionDefaults(),
	}
}

// DefaultScoringConfig returns the built-in retrieval scoring coefficients.
func DefaultScoringConfig() *ScoringConfig {
	return &ScoringConfig{
		Alpha:             0.6,
		Beta:              0.3,
		Gamma:             0.1,
		RecencyTauSeconds: int((7 * 24 * time.Hour).Seconds()),
		RRFK:              60,
	}
}

// DefaultRetrievalConfig returns the built-in retrieval candidate caps.
func DefaultRetrievalConfig() *RetrievalConfig {
	return &RetrievalConfig{
		CandidatePoolMax:   2000,
		RetrievedChunksMax: 200,
		RecencyTailWindow:  800,
	}
}

// DefaultIngestionConfig returns the built-in Recorder ingestion caps.
func DefaultIngestionConfig() *IngestionConfig {
	return &IngestionConfig{
		MaxBytesPerToolResultEvent: 32 * 1024,
		ChunkMinTokens:             20,
		ChunkMaxTokens:             800,
	}
}

// DefaultConsolidationConfig returns the built-in Consolidator thresholds.
func DefaultConsolidationConfig() *ConsolidationConfig {
	return &ConsolidationConfig{
		SummaryThresholdDays:          30,
		QuickRefThresholdDays:         90,
		IntegrationThresholdDays:      180,
		DecisionArchiveThresholdDays:  60,
		IdentityConsolidationMinCount: 10,
		ConfidenceIncrement:           0.1,
		ConfidenceDecayFactor:         0.9,
		ConfidenceDecayPeriodDays:     30,
		ConfidenceFloor:               0.1,
		DailyScheduleHourUTC:          3,
		WeeklyScheduleDay:             0,
	}

}

// DefaultHandoffConfig returns the built-in handoff decision-emission threshold.
func DefaultHandoffConfig() *HandoffConfig {
	return &HandoffConfig{
		DecisionSignificanceThreshold: 0.7,
	}
}

// DefaultPrivacyConfig returns the built-in redaction and channel-suppression policy.
func DefaultPrivacyConfig() *PrivacyConfig {
	return &PrivacyConfig{
		NeverStoreKinds: []string{"secret"},
		ChannelSuppression: map[string]ChannelPolicy{
			"private": {AllowedSensitivity: []string{"none", "low", "high"}},
			"public":  {AllowedSensitivity: []string{"none", "low"}, SuppressTags: []string{"preferences"}},
			"team":    {AllowedSensitivity: []string{"none", "low", "high"}},
			"agent":   {AllowedSensitivity: []string{"none", "low"}, SuppressTags: []string{"preferences"}},
		},
	}
}

// DefaultDurabilityConfig returns the built-in WAL and embedding-service defaults.
func DefaultDurabilityConfig() *DurabilityConfig {
	return &DurabilityConfig{
		WALPath:                  "./data/memoryd.wal",
		WALReplayBatchSize:       500,
		EmbeddingServiceEndpoint: "",
		EmbeddingTimeout:         3 * time.Second,
		EmbeddingRateLimitRPS:    5,
		EmbeddingRateLimitBurst:  10,
	}
}

// DefaultDaemonConfig returns the built-in HTTP-layer bounds from spec §4.6/§5.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		ListenAddr:          ":8090",
		BearerToken:         "",
		MaxFileReadsPerCall: 20,
		MaxBytesReadPerCall: 8 * 1024 * 1024,
		DefaultDeadline:     1500 * time.Millisecond,
	}
}
