package masking

import (
	"log/slog"

	"github.com/shared-memory/memoryd/pkg/config"
)

// Service classifies incoming content for sensitivity and redacts secrets
// before the Recorder persists an event (spec §4.1 step 2). Created once at
// application startup (singleton). Thread-safe and stateless aside from its
// compiled patterns.
type Service struct {
	patterns      map[string]*CompiledPattern
	patternGroups map[string][]string
	codeMaskers   map[string]Masker
	classifiers   []Classifier
	redactGroup   string
}

// New creates a masking service with all built-in patterns compiled eagerly.
// redactGroup selects which pattern group Redact applies; an empty string
// defaults to "security" (the broadest non-secrets-only group, matching the
// teacher's own "security" group used for alert payload masking).
func New(redactGroup string) *Service {
	if redactGroup == "" {
		redactGroup = "security"
	}

	s := &Service{
		patterns:      make(map[string]*CompiledPattern),
		patternGroups: builtinPatternGroups(),
		codeMaskers:   make(map[string]Masker),
		classifiers:   defaultClassifiers(),
		redactGroup:   redactGroup,
	}

	s.compileBuiltinPatterns()
	s.registerMasker(&KubernetesSecretMasker{})

	slog.Info("masking service initialized",
		"compiled_patterns", len(s.patterns),
		"code_maskers", len(s.codeMaskers),
		"classifiers", len(s.classifiers),
		"redact_group", redactGroup)

	return s
}

// Redact applies code-based maskers then regex patterns to content, in that
// order — structural maskers need to parse the content before a regex pass
// could corrupt its structure. Redact is used on tool-result content bound
// for storage; it never errors, matching the teacher's `MaskToolResult`
// always-return-string contract.
func (s *Service) Redact(content string) string {
	if content == "" {
		return content
	}

	resolved := s.resolveGroup(s.redactGroup)
	if len(resolved.codeMaskerNames) == 0 && len(resolved.regexPatterns) == 0 {
		return content
	}

	masked := content
	for _, name := range resolved.codeMaskerNames {
		masker, ok := s.codeMaskers[name]
		if !ok {
			continue
		}
		if masker.AppliesTo(masked) {
			masked = masker.Mask(masked)
		}
	}
	for _, pattern := range resolved.regexPatterns {
		masked = pattern.Regex.ReplaceAllString(masked, pattern.Replacement)
	}

	return masked
}

// ContainsSecret performs the fail-closed check backing spec §6.4's
// never-store-kinds rule: content matching the "secrets" or "kubernetes"
// pattern groups must never be persisted verbatim. Unlike Redact, this never
// mutates content — it only decides whether the Recorder should reject the
// write (kind=secret) rather than redact-and-continue.
func (s *Service) ContainsSecret(content string) bool {
	if content == "" {
		return false
	}

	for _, group := range []string{"secrets", "kubernetes"} {
		resolved := s.resolveGroup(group)
		for _, name := range resolved.codeMaskerNames {
			if m, ok := s.codeMaskers[name]; ok && m.AppliesTo(content) {
				return true
			}
		}
		for _, pattern := range resolved.regexPatterns {
			if pattern.Regex.MatchString(content) {
				return true
			}
		}
	}

	return false
}

// ClassifySensitivity is the fail-open, best-effort counterpart to
// ContainsSecret: it never blocks a write and defaults to SensitivityNone.
// A positive secret match escalates straight to SensitivityHigh here — the
// hard reject for kind=secret content is a separate Recorder-level decision
// driven by ContainsSecret, not by this return value.
func (s *Service) ClassifySensitivity(content string) config.Sensitivity {
	if content == "" {
		return config.SensitivityNone
	}
	if s.ContainsSecret(content) {
		return config.SensitivityHigh
	}
	best := config.SensitivityNone
	for _, c := range s.classifiers {
		if sens, ok := c.Classify(content); ok && sensitivityRank(sens) > sensitivityRank(best) {
			best = sens
		}
	}
	return best
}

func sensitivityRank(s config.Sensitivity) int {
	switch s {
	case config.SensitivityNone:
		return 0
	case config.SensitivityLow:
		return 1
	case config.SensitivityHigh:
		return 2
	case config.SensitivitySecret:
		return 3
	default:
		return 0
	}
}

func (s *Service) registerMasker(m Masker) {
	s.codeMaskers[m.Name()] = m
}
