package recorder

// kindWeight implements the "decision > task > tool_result > message"
// ordering from spec §4.1 step 6. tool_call and artifact_ref sit between
// tool_result and message: a call records intent but not the outcome a
// retrieval consumer usually wants, and an artifact pointer is a
// low-signal cross-reference on its own.
func kindWeight(kind string) float64 {
	switch kind {
	case "decision":
		return 0.9
	case "task_update":
		return 0.75
	case "tool_result":
		return 0.55
	case "tool_call":
		return 0.4
	case "artifact_ref":
		return 0.35
	case "message":
		return 0.3
	default:
		return 0.3
	}
}

// boostTags are tags whose presence raises an otherwise-ordinary event's
// importance — content an agent explicitly flagged as worth remembering
// regardless of its kind.
var boostTags = map[string]bool{
	"important":  true,
	"risk":       true,
	"security":   true,
	"compliance": true,
	"incident":   true,
}

const tagBoost = 0.15

// scoreImportance computes the importance stored on a chunk at write
// time (spec §4.1 step 6): kind weight, a flat boost when any tag is a
// known high-signal tag, and pinning overriding everything to the
// maximum. The result is always clamped to [0, 1], matching the Chunk
// schema's documented invariant.
func scoreImportance(kind string, tags []string, pinned bool) float64 {
	if pinned {
		return 1.0
	}

	score := kindWeight(kind)
	for _, t := range tags {
		if boostTags[t] {
			score += tagBoost
			break
		}
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
