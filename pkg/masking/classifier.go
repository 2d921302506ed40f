package masking

import (
	"regexp"

	"github.com/shared-memory/memoryd/pkg/config"
)

// Classifier performs fail-open, best-effort sensitivity classification.
// Unlike Masker (which redacts), a Classifier only judges — a Classifier
// that cannot confidently classify returns ok=false and the caller moves on
// to the next one, never blocking a write.
type Classifier interface {
	// Name returns the unique identifier for this classifier.
	Name() string

	// Classify inspects data and, if it recognises a sensitivity signal,
	// returns the suggested level and ok=true. Returns ok=false when the
	// classifier has no opinion.
	Classify(data string) (config.Sensitivity, bool)
}

// keywordClassifier flags content mentioning personal or preference-like
// terms as at least SensitivityLow, without the strict value-shape regexes
// used by the secret-detecting patterns in builtin.go. It never returns
// secret — that escalation only happens through the fail-closed
// ContainsSecret path.
type keywordClassifier struct {
	name    string
	pattern *regexp.Regexp
	level   config.Sensitivity
}

func (c *keywordClassifier) Name() string { return c.name }

func (c *keywordClassifier) Classify(data string) (config.Sensitivity, bool) {
	if c.pattern.MatchString(data) {
		return c.level, true
	}
	return config.SensitivityNone, false
}

// defaultClassifiers returns the built-in best-effort classifiers.
func defaultClassifiers() []Classifier {
	return []Classifier{
		&keywordClassifier{
			name:    "personal_contact",
			pattern: regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
			level:   config.SensitivityLow,
		},
		&keywordClassifier{
			name:    "preference_language",
			pattern: regexp.MustCompile(`(?i)\b(i prefer|i like|i dislike|i hate|my favorite|please always|please never)\b`),
			level:   config.SensitivityLow,
		},
		&keywordClassifier{
			name:    "internal_only",
			pattern: regexp.MustCompile(`(?i)\b(internal[- ]only|do not share|confidential|do not log)\b`),
			level:   config.SensitivityHigh,
		},
	}
}
