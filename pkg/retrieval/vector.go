package retrieval

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/shared-memory/memoryd/pkg/config"
	"github.com/shared-memory/memoryd/pkg/embedding"
	"github.com/shared-memory/memoryd/pkg/models"
)

// vectorHit is one candidate's cosine similarity against the query
// embedding, indexed back into the scored slice for RRF fusion.
type vectorHit struct {
	idx   int
	score float64
}

// applyVectorFusion runs the optional semantic path from spec §4.2: embed
// the query, rank candidates by cosine similarity against their stored
// embedding, and fuse that rank list with the lexical-score rank list via
// Reciprocal Rank Fusion (k=60 by default). Chunks with no embedding yet
// (async backfill hasn't reached them) simply don't appear in the vector
// rank list and are unaffected beyond their existing FusedScore.
func applyVectorFusion(ctx context.Context, embedder embedding.Embedder, queryText string, scored []*models.ScoredChunk, coeffs *config.ScoringConfig) {
	if embedder == nil || queryText == "" || len(scored) == 0 {
		return
	}

	queryVec, err := embedder.Embed(ctx, queryText)
	if err != nil {
		// Vector fusion is a supplement, never a dependency (spec §4.2:
		// "lexical is the baseline that must work without embeddings").
		return
	}

	var vectorHits []vectorHit
	for i, sc := range scored {
		if sc.Chunk.Embedding == nil {
			continue
		}
		vec := decodeEmbedding(sc.Chunk.Embedding)
		if len(vec) != len(queryVec) {
			continue
		}
		vectorHits = append(vectorHits, vectorHit{idx: i, score: cosineSimilarity(queryVec, vec)})
	}
	if len(vectorHits) == 0 {
		return
	}

	sortHitsDesc(vectorHits)
	for _, h := range vectorHits {
		scored[h.idx].VectorScore = h.score
	}

	// Lexical rank list over the same candidate set, for the fusion's
	// other input.
	lexicalOrder := make([]int, len(scored))
	for i := range scored {
		lexicalOrder[i] = i
	}
	sortIndicesByLexical(lexicalOrder, scored)

	k := float64(coeffs.RRFK)
	rrf := make([]float64, len(scored))
	for rank, idx := range lexicalOrder {
		rrf[idx] += 1.0 / (k + float64(rank+1))
	}
	for rank, h := range vectorHits {
		rrf[h.idx] += 1.0 / (k + float64(rank+1))
	}

	for i, sc := range scored {
		if rrf[i] > 0 {
			sc.FusedScore += rrf[i]
		}
	}
}

func decodeEmbedding(raw []byte) []float32 {
	n := len(raw) / 4
	vec := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
		vec[i] = math.Float32frombits(bits)
	}
	return vec
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func sortIndicesByLexical(order []int, scored []*models.ScoredChunk) {
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && scored[order[j-1]].LexicalScore < scored[order[j]].LexicalScore; j-- {
			order[j-1], order[j] = order[j], order[j-1]
		}
	}
}

func sortHitsDesc(hits []vectorHit) {
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j-1].score < hits[j].score; j-- {
			hits[j-1], hits[j] = hits[j], hits[j-1]
		}
	}
}
