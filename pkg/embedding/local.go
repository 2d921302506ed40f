package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
)

// Local is a deterministic, dependency-free embedder: it hashes text into
// a stream of pseudo-random but reproducible floats in [-1, 1]. It never
// calls out to a network service, so it is always available as the
// fallback when the remote embedding endpoint is unconfigured or
// unreachable. Cosine similarity over these vectors carries no real
// semantic signal, only the lexical/lexical-hash coincidence of shared
// substrings; retrieval still works because the vector path is additive to
// (never a replacement for) the lexical candidate generation it fuses
// with via RRF.
type Local struct{}

// NewLocal returns the local fallback embedder.
func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Embed(_ context.Context, text string) ([]float32, error) {
	out := make([]float32, remoteDimensions)
	block := []byte(text)

	for i := 0; i < remoteDimensions; i += 8 {
		sum := sha256.Sum256(append(block, encodeCounter(i)...))
		for j := 0; j < 8 && i+j < remoteDimensions; j++ {
			u := binary.BigEndian.Uint32(sum[j*4 : j*4+4])
			// Map the uint32 into [-1, 1].
			out[i+j] = float32(int32(u))/float32(1<<31)
		}
	}

	return out, nil
}

func (l *Local) Dimensions() int {
	return remoteDimensions
}

func encodeCounter(i int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(i))
	return b
}
