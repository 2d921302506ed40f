// Package embedding provides the pluggable vector-embedding interface used
// by the recorder and retrieval packages, plus a rate-limited decorator and
// a deterministic local fallback for when no remote embedding service is
// configured.
package embedding

import "context"

// Embedder turns a chunk of text into a fixed-dimension embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}
