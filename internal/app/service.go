// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	publishjob "github.com/okian/guardian/internal/adapters/mq/queue"
	workerpool "github.com/okian/guardian/internal/adapters/mq/worker"
	"github.com/okian/guardian/internal/adapters/publish"
	"github.com/okian/guardian/internal/adapters/repository"
	"github.com/okian/guardian/internal/adapters/vecstore"
	"github.com/okian/guardian/internal/adapters/webhook"
	"github.com/okian/guardian/internal/domain/decision"
	"github.com/okian/guardian/internal/domain/dedupe"
	"github.com/okian/guardian/internal/domain/dupdetect"
	"github.com/okian/guardian/internal/domain/model"
	"github.com/okian/guardian/internal/domain/normalize"
	"github.com/okian/guardian/internal/domain/review"
	"github.com/okian/guardian/internal/domain/rules"
	"github.com/okian/guardian/internal/domain/signal"
	"github.com/okian/guardian/pkg/logger"
	"github.com/okian/guardian/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendPebble = "pebble"
)

// Service implements the API dependencies for the moderation system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	index      *vecstore.MemIndex
	deduper    dedupe.Deduper
	queue      publishjob.Queue
	aggregator *signal.Aggregator
	detector   *dupdetect.Detector
	engine     *decision.Engine
	publisher  *publish.Publisher
	deliverer  *webhook.Deliverer
	gateway    *review.Gateway
	workerPool *workerpool.Pool

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	neighborCount  int
	greenMax       float64
	redMin         float64
	maxWeight      float64
	meanWeight     float64
	signalTimeout  time.Duration
	dupThreshold   float64
	dupWindow      time.Duration
	webhookURL     string
	webhookRetries int
	backoffBase    time.Duration
	backoffCap     time.Duration
	persistRetries int
	storeBackend   string
	storePath      string

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU() * 2,
		queueSize:      10000,
		dedupeSize:     50000,
		neighborCount:  3,
		greenMax:       decision.DefaultGreenMax,
		redMin:         decision.DefaultRedMin,
		maxWeight:      0.6,
		meanWeight:     0.4,
		signalTimeout:  2 * time.Second,
		dupThreshold:   0.90,
		dupWindow:      24 * time.Hour,
		webhookRetries: 5,
		backoffBase:    500 * time.Millisecond,
		backoffCap:     30 * time.Second,
		persistRetries: 3,
		storeBackend:   BackendMemory,
		storePath:      "guardian.db",
		stopCh:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting moderation service...")

	switch s.storeBackend {
	case BackendPebble:
		store, err := repository.OpenPebbleStore(s.storePath)
		if err != nil {
			return fmt.Errorf("open decision store: %w", err)
		}
		s.store = store
		s.logger.Info(ctx, "using pebble store", logger.String("path", s.storePath))
	default:
		s.store = repository.NewMemStore()
		s.logger.Info(ctx, "using in-memory store")
	}

	deduper, err := dedupe.NewLRUDeduper(dedupe.WithMaxSize(s.dedupeSize))
	if err != nil {
		return fmt.Errorf("create deduper: %w", err)
	}
	s.deduper = deduper

	s.index = vecstore.NewMemIndex()
	s.queue = publishjob.NewInMemoryQueue(publishjob.WithCapacity(s.queueSize))

	s.aggregator = signal.New(
		rules.NewEngine(),
		signal.NewInMemoryEmbedder(),
		signal.NewInMemoryMediaScorer(),
		signal.NewInMemoryFrameSampler(),
		signal.WithWeights(s.maxWeight, s.meanWeight),
		signal.WithTimeout(s.signalTimeout),
	)
	s.detector = dupdetect.New(s.index,
		dupdetect.WithThreshold(s.dupThreshold),
		dupdetect.WithWindow(s.dupWindow),
	)
	s.engine = decision.NewEngine(decision.WithThresholds(s.greenMax, s.redMin))

	if s.webhookURL != "" {
		s.deliverer = webhook.NewDeliverer(s.webhookURL,
			webhook.WithMaxAttempts(s.webhookRetries),
			webhook.WithBackoff(s.backoffBase, s.backoffCap),
		)
	}
	var notifier publish.Notifier
	if s.deliverer != nil {
		notifier = s.deliverer
	}
	s.publisher = publish.NewPublisher(s.store, s.index, notifier,
		publish.WithPersistRetries(s.persistRetries),
	)
	s.gateway = review.NewGateway(s.store, s.index)

	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s.publisher)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "moderation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Float64("greenMax", s.greenMax),
		logger.Float64("redMin", s.redMin),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping moderation service...")

	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx)
	}

	if s.store != nil {
		_ = s.store.Close()
	}

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(ctx, "moderation service stopped")
}

// Classify runs a submission through the full moderation pipeline:
// normalize, gather signals, detect duplicates, weigh history, decide,
// persist, and fan out publication. Resubmitting a known id returns the
// original decision unchanged.
func (s *Service) Classify(ctx context.Context, raw model.Submission) (model.ModerationDecision, error) {
	start := time.Now()
	defer func() {
		metrics.RecordPipelineLatency(float64(time.Since(start).Milliseconds()))
	}()

	sub, err := normalize.Normalize(raw)
	if err != nil {
		metrics.RecordValidationFailure()
		return model.ModerationDecision{}, err
	}
	metrics.RecordSubmission()

	// Idempotency fast path; the store remains the source of truth
	// since cache entries can be evicted.
	if s.deduper.SeenAndRecord(ctx, sub.ID) {
		if existing, err := s.store.Get(ctx, sub.ID); err == nil {
			s.logger.Debug(ctx, "resubmission, returning stored decision",
				logger.String("submission_id", sub.ID))
			return existing, nil
		}
	}

	result, aggErr := s.aggregator.Aggregate(ctx, sub)
	signalUnavailable := false
	if aggErr != nil {
		if !errors.Is(aggErr, signal.ErrSignalUnavailable) {
			s.deduper.Unrecord(ctx, sub.ID)
			return model.ModerationDecision{}, fmt.Errorf("aggregate signals: %w", aggErr)
		}
		signalUnavailable = true
	}

	// Both index queries degrade independently, so run them side by
	// side on a plain group.
	var (
		dup       *dupdetect.Match
		neighbors []model.SimilarityMatch
		g         errgroup.Group
	)
	if !signalUnavailable {
		g.Go(func() error {
			var derr error
			dup, derr = s.detector.Detect(ctx, sub, result.Embedding)
			if derr != nil {
				// A broken index must not block moderation; proceed
				// without duplicate knowledge.
				metrics.RecordIndexQueryError("dupdetect")
				s.logger.Warn(ctx, "duplicate detection failed",
					logger.String("submission_id", sub.ID), logger.Error(derr))
				dup = nil
			}
			return nil
		})
	}
	g.Go(func() error {
		neighbors = s.labeledNeighbors(ctx, result.Embedding)
		return nil
	})
	_ = g.Wait()

	d := s.engine.Decide(decision.Input{
		SubmissionID:      sub.ID,
		Risk:              result.Risk,
		SignalUnavailable: signalUnavailable,
		Degraded:          result.Degraded,
		Duplicate:         dup,
		Neighbors:         neighbors,
		Now:               time.Now(),
	})

	if dup != nil {
		metrics.RecordDuplicate()
	}
	if d.Adjusted {
		metrics.RecordEscalation()
	}
	metrics.RecordDecision(string(d.Tier))

	// Detach from the caller so a dropped request cannot abort the
	// persistence retry budget mid-flight.
	stored, persistErr := s.publisher.PersistDecision(context.WithoutCancel(ctx), d)
	if persistErr != nil {
		s.logger.Error(ctx, "decision not persisted",
			logger.String("submission_id", sub.ID), logger.Error(persistErr))
	}

	job := model.PublishJob{
		Decision:  stored,
		Embedding: result.Embedding,
		Scope:     sub.Geo.Scope(),
	}
	if !s.queue.Enqueue(ctx, job) {
		// Backpressure: run the remaining responsibilities inline
		// rather than dropping them.
		if err := s.publisher.Publish(context.WithoutCancel(ctx), job); err != nil {
			s.logger.Error(ctx, "inline publish failed",
				logger.String("submission_id", sub.ID), logger.Error(err))
		}
	}

	return stored, nil
}

// labeledNeighbors fetches the most similar human-labeled past cases.
func (s *Service) labeledNeighbors(ctx context.Context, embedding []float32) []model.SimilarityMatch {
	if len(embedding) == 0 {
		return nil
	}
	neighbors, err := s.index.Nearest(ctx, vecstore.Query{
		Embedding:      embedding,
		Limit:          s.neighborCount,
		RequireVerdict: true,
	})
	if err != nil {
		metrics.RecordIndexQueryError("adjust")
		s.logger.Warn(ctx, "neighbor lookup failed", logger.Error(err))
		return nil
	}
	return neighbors
}

// Pending lists decisions awaiting a human verdict, oldest first.
func (s *Service) Pending(ctx context.Context, limit int) ([]model.ModerationDecision, error) {
	pending, err := s.gateway.Pending(ctx, limit)
	if err != nil {
		return nil, err
	}
	metrics.UpdatePendingReviews(len(pending))
	return pending, nil
}

// SubmitVerdict records one moderator verdict for a pending decision.
func (s *Service) SubmitVerdict(ctx context.Context, submissionID string, verdict model.HumanVerdict) (model.ModerationDecision, error) {
	return s.gateway.SubmitVerdict(ctx, submissionID, verdict)
}

// Decision returns the stored decision for a submission.
func (s *Service) Decision(ctx context.Context, submissionID string) (model.ModerationDecision, error) {
	return s.store.Get(ctx, submissionID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["totalDecisions"] = s.store.Count(ctx)
		stats["indexSize"] = s.index.Size(ctx)
		stats["dedupeEntries"] = s.deduper.Size()
		if s.publisher != nil {
			stats["deadLetters"] = len(s.publisher.DeadLetters())
		}
	}

	return stats
}
