// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// GreenMax and RedMin are the decision tier thresholds.
	// risk < GreenMax -> GREEN, risk > RedMin -> RED, otherwise YELLOW.
	GreenMax float64 `koanf:"green_max"`
	RedMin   float64 `koanf:"red_min"`

	// SignalMaxWeight and SignalMeanWeight blend the max and mean of the
	// per-modality scores into a single risk score.
	SignalMaxWeight  float64 `koanf:"signal_max_weight"`
	SignalMeanWeight float64 `koanf:"signal_mean_weight"`

	// SignalTimeoutMS bounds each modality scoring call.
	SignalTimeoutMS int `koanf:"signal_timeout_ms"`

	// DuplicateThreshold is the cosine similarity above which a recent
	// same-scope submission counts as a duplicate.
	DuplicateThreshold float64 `koanf:"duplicate_threshold"`

	// DuplicateWindowHours bounds the recency window for duplicate checks.
	DuplicateWindowHours int `koanf:"duplicate_window_hours"`

	// NeighborCount is the top-K for retrieval-informed adjustment.
	NeighborCount int `koanf:"neighbor_count"`

	// WebhookURL is the external notification endpoint.
	WebhookURL string `koanf:"webhook_url"`

	// WebhookMaxAttempts bounds delivery retries before dead-lettering.
	WebhookMaxAttempts int `koanf:"webhook_max_attempts"`

	// WebhookBackoffBaseMS and WebhookBackoffCapMS shape the jittered
	// exponential delivery backoff.
	WebhookBackoffBaseMS int `koanf:"webhook_backoff_base_ms"`
	WebhookBackoffCapMS  int `koanf:"webhook_backoff_cap_ms"`

	// PublishQueueSize bounds the in-memory publish job queue.
	PublishQueueSize int `koanf:"publish_queue_size"`

	// WorkerCount sets the number of publish workers.
	WorkerCount int `koanf:"worker_count"`

	// PersistMaxRetries bounds decision-log and index upsert retries.
	PersistMaxRetries int `koanf:"persist_max_retries"`

	// StoreBackend selects the decision log implementation: memory or pebble.
	StoreBackend string `koanf:"store_backend"`

	// StorePath is the pebble database directory (pebble backend only).
	StorePath string `koanf:"store_path"`

	// DedupeSize sets the size of the submission-id idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxPendingLimit caps GET /reviews?limit.
	MaxPendingLimit int `koanf:"max_pending_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	c := &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		GreenMax:             0.3,
		RedMin:               0.8,
		SignalMaxWeight:      0.6,
		SignalMeanWeight:     0.4,
		SignalTimeoutMS:      2_000,
		DuplicateThreshold:   0.90,
		DuplicateWindowHours: 24,
		NeighborCount:        3,
		WebhookMaxAttempts:   5,
		WebhookBackoffBaseMS: 500,
		WebhookBackoffCapMS:  30_000,
		PublishQueueSize:     10_000,
		WorkerCount:          runtime.NumCPU() * 2,
		PersistMaxRetries:    3,
		StoreBackend:         "memory",
		StorePath:            "guardian.db",
		DedupeSize:           50_000,
		MaxPendingLimit:      100,
	}
	return c
}
