package recorder

import (
	"encoding/json"
	"fmt"
)

// normalizedToolResult is the reshaped content for a kind=tool_result
// event (spec §4.1 step 3): {path?, excerpt_text, byte_range|line_range,
// truncated, artifact_id?}. artifact_id is filled in by the caller after
// the overflow artifact has been inserted and assigned an id, since that
// happens inside the same transaction as the event itself.
type normalizedToolResult struct {
	Path         string `json:"path,omitempty"`
	ExcerptText  string `json:"excerpt_text"`
	ByteRange    [2]int `json:"byte_range,omitempty"`
	LineRange    [2]int `json:"line_range,omitempty"`
	hasLineRange bool
	Truncated    bool   `json:"truncated"`
	ArtifactID   string `json:"artifact_id,omitempty"`
}

// toMap renders a normalizedToolResult into the map[string]any shape
// stored as Event.Content, so the JSON field carrying the event body
// matches whatever the caller sent for every other kind.
func (n normalizedToolResult) toMap() map[string]any {
	out := map[string]any{
		"excerpt_text": n.ExcerptText,
		"truncated":    n.Truncated,
	}
	if n.Path != "" {
		out["path"] = n.Path
	}
	if n.ArtifactID != "" {
		out["artifact_id"] = n.ArtifactID
	}
	if n.hasLineRange {
		out["line_range"] = []int{n.LineRange[0], n.LineRange[1]}
	} else {
		out["byte_range"] = []int{n.ByteRange[0], n.ByteRange[1]}
	}
	return out
}

// rawToolOutput extracts the full, un-bounded text a tool_result event
// is carrying, from whichever key the caller used. Callers are expected
// to send "text" (the common case, raw stdout/response body); "output"
// is accepted as a synonym. Anything else is treated as already-
// structured content and re-serialized to JSON so it still has a single
// text stream to excerpt and hash.
func rawToolOutput(content map[string]any) (string, error) {
	for _, key := range []string{"text", "output"} {
		if v, ok := content[key]; ok {
			if s, ok := v.(string); ok {
				return s, nil
			}
		}
	}

	b, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("recorder: marshal tool_result content: %w", err)
	}
	return string(b), nil
}

// normalizeToolResult reshapes raw tool_result content per spec §4.1 step
// 3. When raw exceeds maxExcerptBytes, the returned normalizedToolResult
// carries a truncated excerpt and overflow holds the full bytes the
// caller must persist as an Artifact before filling in ArtifactID.
func normalizeToolResult(content map[string]any, maxExcerptBytes int) (result normalizedToolResult, overflow []byte, err error) {
	raw, err := rawToolOutput(content)
	if err != nil {
		return normalizedToolResult{}, nil, err
	}

	if path, ok := content["path"].(string); ok {
		result.Path = path
	}

	if lr, ok := lineRangeFrom(content["line_range"]); ok {
		result.LineRange = lr
		result.hasLineRange = true
	}

	if len(raw) <= maxExcerptBytes {
		result.ExcerptText = raw
		result.Truncated = false
		if !result.hasLineRange {
			result.ByteRange = [2]int{0, len(raw)}
		}
		return result, nil, nil
	}

	cut := truncateUTF8(raw, maxExcerptBytes)
	result.ExcerptText = cut
	result.Truncated = true
	if !result.hasLineRange {
		result.ByteRange = [2]int{0, len(cut)}
	}
	return result, []byte(raw), nil
}

// truncateUTF8 cuts s to at most n bytes without splitting a multi-byte
// rune at the boundary.
func truncateUTF8(s string, n int) string {
	if n >= len(s) {
		return s
	}
	for n > 0 && isUTF8Continuation(s[n]) {
		n--
	}
	return s[:n]
}

func isUTF8Continuation(b byte) bool {
	return b&0xC0 == 0x80
}

// lineRangeFrom best-effort decodes a caller-supplied line_range (JSON
// round-trips numbers as float64, so both []any and []float64 shapes are
// accepted).
func lineRangeFrom(v any) ([2]int, bool) {
	switch lr := v.(type) {
	case []any:
		if len(lr) != 2 {
			return [2]int{}, false
		}
		a, ok1 := toInt(lr[0])
		b, ok2 := toInt(lr[1])
		if !ok1 || !ok2 {
			return [2]int{}, false
		}
		return [2]int{a, b}, true
	case [2]int:
		return lr, true
	default:
		return [2]int{}, false
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
