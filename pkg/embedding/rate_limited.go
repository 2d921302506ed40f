package embedding

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited wraps an Embedder with a token-bucket rate limiter so a burst
// of chunk writes can never overrun the remote embedding service's quota.
// Unlike the teacher's AdaptiveRateLimiter (which backs off and probes
// against live 429 signals from an LLM provider), the embedding service
// this daemon calls has a fixed, known quota, so a plain fixed-rate bucket
// is sufficient; there is no adaptive backoff/probe loop to run.
type RateLimited struct {
	next    Embedder
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a limiter allowing rps requests per second
// and up to burst requests in a single instant.
func NewRateLimited(next Embedder, rps float64, burst int) *RateLimited {
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limiter: %w", err)
	}
	return r.next.Embed(ctx, text)
}

func (r *RateLimited) Dimensions() int {
	return r.next.Dimensions()
}
