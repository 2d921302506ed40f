package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// MemorydYAMLConfig represents the complete memoryd.yaml file structure.
type MemorydYAMLConfig struct {
	ACB           *ACBConfig           `yaml:"acb"`
	Scoring       *ScoringConfig       `yaml:"scoring"`
	Retrieval     *RetrievalConfig     `yaml:"retrieval"`
	Ingestion     *IngestionConfig     `yaml:"ingestion"`
	Consolidation *ConsolidationConfig `yaml:"consolidation"`
	Handoff       *HandoffConfig       `yaml:"handoff"`
	Privacy       *PrivacyConfig       `yaml:"privacy"`
	Durability    *DurabilityConfig    `yaml:"durability"`
	Queue         *QueueConfig         `yaml:"queue"`
	Daemon        *DaemonConfig        `yaml:"daemon"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load memoryd.yaml from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge built-in defaults + user-defined overrides
//  5. Validate all configuration
//  6. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully",
		"acb_sections", stats.ACBSections,
		"channel_policies", stats.ChannelPolicies,
		"never_store_kinds", stats.NeverStoreKindCount)

	return cfg, nil
}

// load is the internal loader (not exported)
func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	userCfg, err := loader.loadMemorydYAML()
	if err != nil {
		return nil, NewLoadError("memoryd.yaml", err)
	}

	acb := DefaultACBConfig()
	if userCfg.ACB != nil {
		if err := mergo.Merge(acb, userCfg.ACB, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge acb config: %w", err)
		}
	}

	scoring := DefaultScoringConfig()
	if userCfg.Scoring != nil {
		if err := mergo.Merge(scoring, userCfg.Scoring, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge scoring config: %w", err)
		}
	}

	retrieval := DefaultRetrievalConfig()
	if userCfg.Retrieval != nil {
		if err := mergo.Merge(retrieval, userCfg.Retrieval, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge retrieval config: %w", err)
		}
	}

	ingestion := DefaultIngestionConfig()
	if userCfg.Ingestion != nil {
		if err := mergo.Merge(ingestion, userCfg.Ingestion, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge ingestion config: %w", err)
		}
	}

	consolidation := DefaultConsolidationConfig()
	if userCfg.Consolidation != nil {
		if err := mergo.Merge(consolidation, userCfg.Consolidation, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge consolidation config: %w", err)
		}
	}

	handoff := DefaultHandoffConfig()
	if userCfg.Handoff != nil {
		if err := mergo.Merge(handoff, userCfg.Handoff, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge handoff config: %w", err)
		}
	}

	privacy := DefaultPrivacyConfig()
	if userCfg.Privacy != nil {
		if err := mergo.Merge(privacy, userCfg.Privacy, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge privacy config: %w", err)
		}
	}

	durability := DefaultDurabilityConfig()
	if userCfg.Durability != nil {
		if err := mergo.Merge(durability, userCfg.Durability, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge durability config: %w", err)
		}
	}

	queue := DefaultQueueConfig()
	if userCfg.Queue != nil {
		if err := mergo.Merge(queue, userCfg.Queue, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge queue config: %w", err)
		}
	}

	daemon := DefaultDaemonConfig()
	if userCfg.Daemon != nil {
		if err := mergo.Merge(daemon, userCfg.Daemon, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge daemon config: %w", err)
		}
	}

	return &Config{
		configDir:     configDir,
		ACB:           acb,
		Scoring:       scoring,
		Retrieval:     retrieval,
		Ingestion:     ingestion,
		Consolidation: consolidation,
		Handoff:       handoff,
		Privacy:       privacy,
		Durability:    durability,
		Queue:         queue,
		Daemon:        daemon,
	}, nil
}

// validate performs comprehensive validation on loaded configuration
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand environment variables using shell-style ${VAR}/$VAR syntax.
	// Note: ExpandEnv passes through original data on parse/execution errors,
	// allowing the YAML parser to handle the content (or fail with a clearer
	// error message).
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadMemorydYAML() (*MemorydYAMLConfig, error) {
	var config MemorydYAMLConfig

	if err := l.loadYAML("memoryd.yaml", &config); err != nil {
		// A missing config file is not fatal — every section falls back to
		// its built-in defaults.
		if errors.Is(err, ErrConfigNotFound) {
			return &config, nil
		}
		return nil, err
	}

	return &config, nil
}
