package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompileBuiltinPatterns(t *testing.T) {
	svc := New("")

	assert.Equal(t, len(builtinPatterns()), len(svc.patterns),
		"all built-in patterns should compile")

	for name, cp := range svc.patterns {
		assert.NotNil(t, cp.Regex, "pattern %s should have compiled regex", name)
		assert.NotEmpty(t, cp.Replacement, "pattern %s should have a replacement", name)
	}
}

func TestResolveGroup_Expansion(t *testing.T) {
	svc := New("")

	tests := []struct {
		name           string
		group          string
		minRegex       int
		hasCodeMaskers bool
	}{
		{name: "basic group", group: "basic", minRegex: 2},
		{name: "secrets group", group: "secrets", minRegex: 5},
		{name: "security group", group: "security", minRegex: 7},
		{name: "kubernetes group", group: "kubernetes", minRegex: 3, hasCodeMaskers: true},
		{name: "cloud group", group: "cloud", minRegex: 4},
		{name: "all group", group: "all", minRegex: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved := svc.resolveGroup(tt.group)

			assert.GreaterOrEqual(t, len(resolved.regexPatterns), tt.minRegex)

			if tt.hasCodeMaskers {
				assert.NotEmpty(t, resolved.codeMaskerNames)
				assert.Contains(t, resolved.codeMaskerNames, "kubernetes_secret")
			}
		})
	}
}

func TestResolveGroup_Unknown(t *testing.T) {
	svc := New("")
	resolved := svc.resolveGroup("nonexistent_group")
	assert.Empty(t, resolved.regexPatterns)
	assert.Empty(t, resolved.codeMaskerNames)
}

func TestResolveGroup_Deduplication(t *testing.T) {
	// "basic" already dedups within its own member list; this verifies
	// resolveGroup's seen-set doesn't double-count a name that only appears
	// once in the group definition (regression guard for the seen-map).
	svc := New("")
	resolved := svc.resolveGroup("basic")

	apiKeyCount := 0
	for _, p := range resolved.regexPatterns {
		if p.Name == "api_key" {
			apiKeyCount++
		}
	}
	assert.Equal(t, 1, apiKeyCount)
}
