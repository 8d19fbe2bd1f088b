// Package dedupe defines the interface for idempotency tracking.
package dedupe

type config struct {
	maxSize int
}

// Option applies a configuration option to the deduper.
type Option func(*config)

// WithMaxSize sets the maximum number of IDs to keep in memory.
func WithMaxSize(maxSize int) Option {
	return func(c *config) {
		if maxSize > 0 {
			c.maxSize = maxSize
		}
	}
}
