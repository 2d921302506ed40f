package embedding

import (
	"context"
	"errors"
	"time"
)

// WithLocalFallback wraps primary so that any error from it (remote
// unreachable, non-200 response, or the rate limiter's context deadline
// tripping) falls through to local instead of failing the caller. This is
// the only place primary/local are composed; callers always get an
// Embedder that succeeds.
func WithLocalFallback(primary Embedder, local *Local) Embedder {
	return &fallback{primary: primary, local: local}
}

type fallback struct {
	primary Embedder
	local   *Local
}

func (f *fallback) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := f.primary.Embed(ctx, text)
	if err == nil {
		return vec, nil
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, err
	}
	return f.local.Embed(ctx, text)
}

func (f *fallback) Dimensions() int {
	return f.primary.Dimensions()
}

// New builds the Embedder the rest of the daemon uses: a rate-limited
// remote client when endpoint is non-empty, falling back to the local
// hashing embedder on any remote failure; local-only when endpoint is
// empty.
func New(endpoint string, timeout time.Duration, rps float64, burst int) Embedder {
	local := NewLocal()
	if endpoint == "" {
		return local
	}

	remote := NewRemote(endpoint, timeout)
	limited := NewRateLimited(remote, rps, burst)
	return WithLocalFallback(limited, local)
}
