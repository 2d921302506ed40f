package config

// Config is the umbrella configuration object for the memory daemon: the
// resolved budgets, coefficients, caps, and thresholds every component
// reads from, plus the Queue (worker pool / deadline) settings.
type Config struct {
	configDir string // Configuration directory path (for reference)

	ACB           *ACBConfig
	Scoring       *ScoringConfig
	Retrieval     *RetrievalConfig
	Ingestion     *IngestionConfig
	Consolidation *ConsolidationConfig
	Handoff       *HandoffConfig
	Privacy       *PrivacyConfig
	Durability    *DurabilityConfig
	Queue         *QueueConfig
	Daemon        *DaemonConfig
}

// Initialize is defined in loader.go

// ConfigStats contains statistics about loaded configuration, surfaced in
// startup logs.
type ConfigStats struct {
	ACBSections         int
	ChannelPolicies     int
	NeverStoreKindCount int
}

// Stats returns configuration statistics for logging/monitoring
func (c *Config) Stats() ConfigStats {
	return ConfigStats{
		ACBSections:         len(c.ACB.Sections),
		ChannelPolicies:     len(c.Privacy.ChannelSuppression),
		NeverStoreKindCount: len(c.Privacy.NeverStoreKinds),
	}
}

// ConfigDir returns the configuration directory path
func (c *Config) ConfigDir() string {
	return c.configDir
}

// SectionConfig retrieves the budget/priority pair for a named ACB section.
func (c *Config) SectionConfig(name string) (ACBSectionConfig, bool) {
	s, ok := c.ACB.Sections[name]
	return s, ok
}

// ChannelPolicyFor retrieves the privacy policy for a named channel.
func (c *Config) ChannelPolicyFor(channel string) (ChannelPolicy, bool) {
	p, ok := c.Privacy.ChannelSuppression[channel]
	return p, ok
}
