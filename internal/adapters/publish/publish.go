// Package publish performs the post-decision side effects: persisting
// the verdict, remembering the embedding, and notifying downstream.
package publish

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/okian/guardian/internal/adapters/vecstore"
	"github.com/okian/guardian/internal/domain/model"
	"github.com/okian/guardian/pkg/logger"
	"github.com/okian/guardian/pkg/metrics"
)

// Default persistence retry constants.
const (
	defaultPersistRetries = 3
	persistRetryBase      = 100 * time.Millisecond
)

// DecisionCreator is the slice of the repository the publisher needs.
type DecisionCreator interface {
	Create(ctx context.Context, d model.ModerationDecision) (model.ModerationDecision, bool, error)
}

// MemoryWriter stores embeddings for future duplicate and similarity
// queries.
type MemoryWriter interface {
	Upsert(ctx context.Context, rec vecstore.Record) error
}

// Notifier delivers the decision to downstream consumers.
type Notifier interface {
	Deliver(ctx context.Context, d model.ModerationDecision) error
}

// DeadLetter records a publish responsibility that exhausted its
// retries.
type DeadLetter struct {
	ID           string
	SubmissionID string
	Kind         string // "memory" or "webhook"
	Reason       string
	At           time.Time
}

// Publisher fans a decided submission out to storage, memory, and
// notification. Each responsibility fails and retries independently;
// one failing never blocks the others.
type Publisher struct {
	store          DecisionCreator
	memory         MemoryWriter
	notifier       Notifier
	persistRetries int
	log            logger.Logger

	mu          sync.RWMutex
	deadLetters []DeadLetter
}

// Option applies a configuration option to the Publisher.
type Option func(*Publisher)

// WithPersistRetries sets how many times a failed decision write is
// retried before the decision is flagged unpersisted.
func WithPersistRetries(n int) Option {
	return func(p *Publisher) {
		if n >= 0 {
			p.persistRetries = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(p *Publisher) {
		if log != nil {
			p.log = log
		}
	}
}

// NewPublisher creates a Publisher over the given sinks. notifier may
// be nil when no webhook endpoint is configured.
func NewPublisher(store DecisionCreator, memory MemoryWriter, notifier Notifier, opts ...Option) *Publisher {
	p := &Publisher{
		store:          store,
		memory:         memory,
		notifier:       notifier,
		persistRetries: defaultPersistRetries,
		log:            logger.Get().Named("publish"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PersistDecision writes the decision with bounded retries. On success
// it returns the stored decision, which is the earlier one when a
// concurrent writer won. On exhaustion the input decision is returned
// flagged Unpersisted so the caller can still respond.
func (p *Publisher) PersistDecision(ctx context.Context, d model.ModerationDecision) (model.ModerationDecision, error) {
	var stored model.ModerationDecision
	backoff := retry.WithMaxRetries(uint64(p.persistRetries), retry.NewExponential(persistRetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		s, _, err := p.store.Create(ctx, d)
		if err != nil {
			return retry.RetryableError(err)
		}
		stored = s
		return nil
	})
	if err != nil {
		metrics.RecordPublishError("persist")
		p.log.Error(ctx, "decision persistence exhausted retries",
			logger.String("submission_id", d.SubmissionID),
			logger.Error(err),
		)
		d.Unpersisted = true
		return d, fmt.Errorf("persist decision %s: %w", d.SubmissionID, err)
	}
	return stored, nil
}

// Publish runs the remaining responsibilities for one decided
// submission: remember the embedding and notify downstream. The two
// run concurrently and fail independently; failures are dead-lettered,
// and the returned error aggregates them for logging.
func (p *Publisher) Publish(ctx context.Context, job model.PublishJob) error {
	// A plain group, not WithContext: one responsibility failing must
	// not cancel the other.
	var g errgroup.Group

	g.Go(func() error {
		if p.memory == nil || len(job.Embedding) == 0 {
			return nil
		}
		err := p.memory.Upsert(ctx, vecstore.Record{
			SubmissionID: job.Decision.SubmissionID,
			Embedding:    job.Embedding,
			Tier:         job.Decision.Tier,
			HumanVerdict: job.Decision.HumanVerdict,
			Scope:        job.Scope,
			CreatedAt:    job.Decision.CreatedAt,
		})
		if err != nil {
			metrics.RecordPublishError("memory")
			metrics.RecordDeadLetter("memory")
			p.record(DeadLetter{
				ID:           uuid.NewString(),
				SubmissionID: job.Decision.SubmissionID,
				Kind:         "memory",
				Reason:       err.Error(),
				At:           time.Now(),
			})
			return fmt.Errorf("remember embedding: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if p.notifier == nil {
			return nil
		}
		if err := p.notifier.Deliver(ctx, job.Decision); err != nil {
			metrics.RecordPublishError("webhook")
			p.record(DeadLetter{
				ID:           uuid.NewString(),
				SubmissionID: job.Decision.SubmissionID,
				Kind:         "webhook",
				Reason:       err.Error(),
				At:           time.Now(),
			})
			return fmt.Errorf("notify downstream: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// DeadLetters returns the recorded publish failures.
func (p *Publisher) DeadLetters() []DeadLetter {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]DeadLetter, len(p.deadLetters))
	copy(out, p.deadLetters)
	return out
}

func (p *Publisher) record(d DeadLetter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deadLetters = append(p.deadLetters, d)
}
