package masking

import (
	"log/slog"
	"regexp"
	"slices"
)

// CompiledPattern holds a pre-compiled regex pattern with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
	Description string
}

// resolvedPatterns holds the resolved set of maskers and patterns for a
// masking operation.
type resolvedPatterns struct {
	codeMaskerNames []string
	regexPatterns   []*CompiledPattern
}

// compileBuiltinPatterns compiles all built-in regex patterns. Invalid
// patterns are logged and skipped — this should never happen for the
// built-in set, but a bad pattern must not prevent the rest from loading.
func (s *Service) compileBuiltinPatterns() {
	for name, pattern := range builtinPatterns() {
		compiled, err := regexp.Compile(pattern.Pattern)
		if err != nil {
			slog.Error("failed to compile built-in masking pattern, skipping",
				"pattern", name, "error", err)
			continue
		}
		s.patterns[name] = &CompiledPattern{
			Name:        name,
			Regex:       compiled,
			Replacement: pattern.Replacement,
			Description: pattern.Description,
		}
	}
}

// resolveGroup expands a pattern group name into a resolvedPatterns,
// categorizing each member as either a code-based masker or a compiled regex
// pattern.
func (s *Service) resolveGroup(groupName string) *resolvedPatterns {
	resolved := &resolvedPatterns{}

	groupPatterns, ok := s.patternGroups[groupName]
	if !ok {
		return resolved
	}

	seen := make(map[string]bool)
	codeMaskers := builtinCodeMaskers()
	for _, name := range groupPatterns {
		if seen[name] {
			continue
		}
		seen[name] = true

		if slices.Contains(codeMaskers, name) {
			resolved.codeMaskerNames = append(resolved.codeMaskerNames, name)
			continue
		}
		if cp, ok := s.patterns[name]; ok {
			resolved.regexPatterns = append(resolved.regexPatterns, cp)
		}
	}

	return resolved
}
