package config

import "time"

// QueueConfig contains the daemon's worker pool and per-request bounding
// configuration. These values control goroutine fan-out and how long a
// single record_event/build_acb call may run before its context deadline
// trips.
type QueueConfig struct {
	// WorkerCount is the number of worker goroutines handling background
	// jobs (WAL replay, consolidation runs) concurrently.
	WorkerCount int `yaml:"worker_count"`

	// MaxConcurrentRequests bounds how many tool-surface calls run at once
	// per daemon instance.
	MaxConcurrentRequests int `yaml:"max_concurrent_requests"`

	// RequestDeadline is the per-request context deadline for read
	// operations (retrieve, build_acb); exceeding it yields a degraded
	// bundle with omissions[].reason = "deadline", never an error.
	RequestDeadline time.Duration `yaml:"request_deadline"`

	// WriteDeadline is the per-request context deadline for record_event
	// and other write operations.
	WriteDeadline time.Duration `yaml:"write_deadline"`

	// GracefulShutdownTimeout is the max time to wait for in-flight
	// requests and background jobs to complete during shutdown.
	GracefulShutdownTimeout time.Duration `yaml:"graceful_shutdown_timeout"`

	// WALReplayInterval is how often the daemon retries replaying the WAL
	// when the Store was unreachable at startup.
	WALReplayInterval time.Duration `yaml:"wal_replay_interval"`
}

// DefaultQueueConfig returns the built-in worker pool defaults.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		WorkerCount:             5,
		MaxConcurrentRequests:   64,
		RequestDeadline:         150 * time.Millisecond,
		WriteDeadline:           2 * time.Second,
		GracefulShutdownTimeout: 30 * time.Second,
		WALReplayInterval:       10 * time.Second,
	}
}
