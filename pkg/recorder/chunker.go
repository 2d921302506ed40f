package recorder

import (
	"strings"

	"github.com/shared-memory/memoryd/pkg/tokenest"
)

// deriveChunks splits text into one or more chunk texts whose estimated
// token count stays within [minTokens, maxTokens] (spec §4.1 step 5).
// Splitting prefers paragraph boundaries (blank lines) first, falling
// back to single newlines, so a chunk boundary never lands mid-sentence
// when the source has any structure to exploit. Text that already fits
// within maxTokens is returned unsplit, even if below minTokens — the
// minimum only constrains how eagerly a long excerpt gets cut, not the
// one-chunk-per-short-event default.
func deriveChunks(text string, minTokens, maxTokens int) []string {
	if text == "" {
		return nil
	}
	if tokenest.Estimate(text) <= maxTokens {
		return []string{text}
	}

	units := splitParagraphs(text)
	if len(units) == 1 {
		units = splitLines(text)
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, strings.TrimRight(current.String(), "\n"))
		current.Reset()
	}

	for _, u := range units {
		candidate := current.String() + u
		if current.Len() > 0 && tokenest.Estimate(candidate) > maxTokens {
			flush()
		}
		current.WriteString(u)
	}
	flush()

	chunks = mergeUndersized(chunks, minTokens, maxTokens)

	// Hard-split any remaining oversized chunk (possible when a single
	// paragraph/line by itself exceeds maxTokens).
	var final []string
	for _, c := range chunks {
		final = append(final, hardSplit(c, maxTokens)...)
	}
	return final
}

// mergeUndersized folds a chunk under minTokens into its predecessor
// when the combination still fits within maxTokens, so the greedy
// paragraph/line packer above doesn't leave a trailing sliver (e.g. a
// one-line final paragraph) as its own chunk when it could sit with its
// neighbor.
func mergeUndersized(chunks []string, minTokens, maxTokens int) []string {
	if len(chunks) < 2 {
		return chunks
	}

	merged := []string{chunks[0]}
	for _, c := range chunks[1:] {
		last := merged[len(merged)-1]
		if tokenest.Estimate(c) < minTokens {
			combined := last + c
			if tokenest.Estimate(combined) <= maxTokens {
				merged[len(merged)-1] = combined
				continue
			}
		}
		merged = append(merged, c)
	}
	return merged
}

func splitParagraphs(text string) []string {
	parts := strings.SplitAfter(text, "\n\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}

func splitLines(text string) []string {
	parts := strings.SplitAfter(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}

// hardSplit cuts s into maxTokens-sized pieces by an approximate
// characters-per-token ratio, used only when structural splitting still
// leaves a unit over budget (e.g. one very long line with no spaces).
func hardSplit(s string, maxTokens int) []string {
	if tokenest.Estimate(s) <= maxTokens {
		return []string{s}
	}

	const charsPerToken = 4
	maxChars := maxTokens * charsPerToken
	if maxChars <= 0 {
		return []string{s}
	}

	var out []string
	runes := []rune(s)
	for start := 0; start < len(runes); start += maxChars {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
