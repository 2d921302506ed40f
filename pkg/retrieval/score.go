package retrieval

import (
	"math"
	"sort"
	"time"

	"github.com/shared-memory/memoryd/ent"
	"github.com/shared-memory/memoryd/ent/chunk"
	"github.com/shared-memory/memoryd/pkg/config"
	"github.com/shared-memory/memoryd/pkg/models"
)

// relevanceTagBoost and decisionRefBoost are retrieval-time importance
// adjustments, spec §4.2's "tag_boost + decision_ref_boost" terms. Their
// magnitude has no stronger source than the recorder's own tagBoost
// constant (pkg/recorder/importance.go); kept an order of magnitude
// smaller since these stack on top of an importance that was already
// tag-boosted once at write time.
const (
	relevanceTagBoost = 0.05
	decisionRefBoost  = 0.05
)

// scoreCandidates turns each surviving candidate into a models.ScoredChunk
// per spec §4.2's score = alpha*lexical + beta*recency + gamma*importance,
// with lexical scores carried over from the pool's ts_rank lookup (chunks
// that weren't a lexical hit score 0 on that term).
func scoreCandidates(candidates []*ent.Chunk, lexicalScore map[string]float64, queryTags []string, coeffs *config.ScoringConfig, now time.Time) []*models.ScoredChunk {
	tagSet := make(map[string]bool, len(queryTags))
	for _, t := range queryTags {
		tagSet[t] = true
	}

	tau := float64(coeffs.RecencyTauSeconds)
	out := make([]*models.ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		lexical := lexicalScore[c.ID]

		deltaSeconds := now.Sub(c.CreatedAt).Seconds()
		if deltaSeconds < 0 {
			deltaSeconds = 0
		}
		recency := 1.0
		if tau > 0 {
			recency = math.Exp(-deltaSeconds / tau)
		}

		importance := c.Importance
		if tagsIntersect(c.Tags, tagSet) {
			importance += relevanceTagBoost
		}
		if c.Kind == chunk.KindDecision {
			importance += decisionRefBoost
		}
		importance = clamp01(importance)

		base := coeffs.Alpha*lexical + coeffs.Beta*recency + coeffs.Gamma*importance

		out = append(out, &models.ScoredChunk{
			Chunk:        c,
			LexicalScore: lexical,
			RecencyScore: recency,
			Importance:   importance,
			FusedScore:   base,
		})
	}
	return out
}

func tagsIntersect(tags []string, set map[string]bool) bool {
	for _, t := range tags {
		if set[t] {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// sortScored applies spec §4.2's deterministic tie-break: higher fused
// score -> higher importance -> more recent -> smaller token_est ->
// smaller chunk_id lexicographically. Same inputs must always produce
// the same order.
func sortScored(scored []*models.ScoredChunk) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.FusedScore != b.FusedScore {
			return a.FusedScore > b.FusedScore
		}
		if a.Importance != b.Importance {
			return a.Importance > b.Importance
		}
		if !a.Chunk.CreatedAt.Equal(b.Chunk.CreatedAt) {
			return a.Chunk.CreatedAt.After(b.Chunk.CreatedAt)
		}
		if a.Chunk.TokenEst != b.Chunk.TokenEst {
			return a.Chunk.TokenEst < b.Chunk.TokenEst
		}
		return a.Chunk.ID < b.Chunk.ID
	})
	for i, c := range scored {
		c.FusionRank = i + 1
	}
}
