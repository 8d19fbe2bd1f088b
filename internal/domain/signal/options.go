// Package signal gathers per-modality risk signals and combines them into
// a single risk score.
package signal

import (
	"time"

	"github.com/okian/guardian/pkg/logger"
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithWeights sets the max/mean blend weights for score combination.
func WithWeights(maxWeight, meanWeight float64) Option {
	return func(a *Aggregator) {
		if maxWeight >= 0 && meanWeight >= 0 && maxWeight+meanWeight > 0 {
			a.maxWeight = maxWeight
			a.meanWeight = meanWeight
		}
	}
}

// WithTimeout sets the per-modality scoring call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(a *Aggregator) {
		if timeout > 0 {
			a.timeout = timeout
		}
	}
}

// WithLogger sets a custom logger for the aggregator.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}
