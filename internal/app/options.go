// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"time"

	"github.com/okian/guardian/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of publish worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the publish queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithThresholds sets the GREEN/RED decision boundaries.
func WithThresholds(greenMax, redMin float64) Option {
	return func(s *Service) {
		s.greenMax = greenMax
		s.redMin = redMin
	}
}

// WithSignalWeights sets the max/mean blend weights for risk scoring.
func WithSignalWeights(maxWeight, meanWeight float64) Option {
	return func(s *Service) {
		s.maxWeight = maxWeight
		s.meanWeight = meanWeight
	}
}

// WithSignalTimeout sets the per-modality scoring call timeout.
func WithSignalTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.signalTimeout = timeout
		}
	}
}

// WithDuplicateDetection sets the duplicate similarity threshold and
// recency window.
func WithDuplicateDetection(threshold float64, window time.Duration) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.dupThreshold = threshold
		}
		if window > 0 {
			s.dupWindow = window
		}
	}
}

// WithNeighborCount sets how many labeled past cases weigh on a decision.
func WithNeighborCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.neighborCount = count
		}
	}
}

// WithWebhook configures downstream delivery. An empty url disables it.
func WithWebhook(url string, maxAttempts int, backoffBase, backoffCap time.Duration) Option {
	return func(s *Service) {
		s.webhookURL = url
		if maxAttempts > 0 {
			s.webhookRetries = maxAttempts
		}
		if backoffBase > 0 {
			s.backoffBase = backoffBase
		}
		if backoffCap > 0 {
			s.backoffCap = backoffCap
		}
	}
}

// WithPersistRetries sets the decision write retry budget.
func WithPersistRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.persistRetries = n
		}
	}
}

// WithStoreBackend selects the decision store backend and its path.
func WithStoreBackend(backend, path string) Option {
	return func(s *Service) {
		if backend != "" {
			s.storeBackend = backend
		}
		if path != "" {
			s.storePath = path
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
