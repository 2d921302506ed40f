package models

import "github.com/shared-memory/memoryd/ent"

// ChunkResponse wraps a Chunk for single-record reads.
type ChunkResponse struct {
	*ent.Chunk
}

// ScoredChunk is a Chunk annotated with the retrieval scores that put it in
// a candidate pool, kept around only for provenance and debugging.
type ScoredChunk struct {
	Chunk        *ent.Chunk `json:"chunk"`
	LexicalScore float64    `json:"lexical_score"`
	VectorScore  float64    `json:"vector_score"`
	RecencyScore float64    `json:"recency_score"`
	Importance   float64    `json:"importance_score"`
	FusedScore   float64    `json:"fused_score"`
	FusionRank   int        `json:"fusion_rank"`
}
