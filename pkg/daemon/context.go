package daemon

import (
	"context"
	"time"
)

type boundsKey struct{}

// requestBounds tracks the per-call resource counters spec §4.6 enforces:
// file reads and bytes read against the daemon's configured caps. It
// rides the request context so every handler along the call chain can
// check in without threading an extra parameter through every service
// signature, mirroring pkg/api/handlers.go's processSession deriving one
// context.WithTimeout per request and passing nothing else down.
type requestBounds struct {
	maxFileReads int
	maxBytes     int64
	fileReads    int
	bytesRead    int64
}

// withBounds derives a context carrying the request's deadline and a
// fresh requestBounds counter. A tripped bound never cancels the
// context outright — callers consult chargeFileRead/chargeBytesRead
// before each further read and stop issuing new ones once either
// returns false, returning a partial result with omissions populated
// instead of panicking or silently truncating mid-read.
func withBounds(parent context.Context, deadline time.Duration, maxFileReads int, maxBytes int64) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, deadline)
	ctx = context.WithValue(ctx, boundsKey{}, &requestBounds{maxFileReads: maxFileReads, maxBytes: maxBytes})
	return ctx, cancel
}

// chargeFileRead increments the file-read counter and reports whether
// the caller is still within its per-call budget.
func chargeFileRead(ctx context.Context) bool {
	b, ok := ctx.Value(boundsKey{}).(*requestBounds)
	if !ok {
		return true
	}
	b.fileReads++
	return b.fileReads <= b.maxFileReads
}

// chargeBytesRead adds n to the running byte count and reports whether
// the caller is still within its per-call budget.
func chargeBytesRead(ctx context.Context, n int64) bool {
	b, ok := ctx.Value(boundsKey{}).(*requestBounds)
	if !ok {
		return true
	}
	b.bytesRead += n
	return b.bytesRead <= b.maxBytes
}
