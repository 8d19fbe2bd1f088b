// Package review is the gateway between human moderators and the
// decision store.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/guardian/internal/domain/model"
	"github.com/okian/guardian/pkg/logger"
	"github.com/okian/guardian/pkg/metrics"
)

// ErrInvalidVerdict is returned for verdicts other than approve/reject.
var ErrInvalidVerdict = errors.New("verdict must be APPROVE or REJECT")

// DecisionStore is the slice of the repository the gateway needs.
type DecisionStore interface {
	ListPending(ctx context.Context, limit int) ([]model.ModerationDecision, error)
	RecordVerdict(ctx context.Context, submissionID string, verdict model.HumanVerdict, at time.Time) (model.ModerationDecision, error)
}

// MemoryUpdater propagates human verdicts back into the similarity
// index so future escalation checks can see them.
type MemoryUpdater interface {
	SetHumanVerdict(ctx context.Context, submissionID string, verdict model.HumanVerdict) error
}

// Gateway exposes the pending review queue and accepts verdicts.
type Gateway struct {
	store  DecisionStore
	memory MemoryUpdater
	log    logger.Logger
	now    func() time.Time
}

// Option applies a configuration option to the Gateway.
type Option func(*Gateway)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(g *Gateway) {
		if log != nil {
			g.log = log
		}
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGateway creates a review gateway over the given store and index.
func NewGateway(store DecisionStore, memory MemoryUpdater, opts ...Option) *Gateway {
	g := &Gateway{
		store:  store,
		memory: memory,
		log:    logger.Get().Named("review"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Pending returns up to limit decisions awaiting a human verdict,
// oldest first.
func (g *Gateway) Pending(ctx context.Context, limit int) ([]model.ModerationDecision, error) {
	pending, err := g.store.ListPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending reviews: %w", err)
	}
	return pending, nil
}

// SubmitVerdict records one moderator verdict for a known decision.
// A decision takes at most one verdict; repeats fail with the store's
// ErrAlreadyReviewed. The verdict is also propagated to the similarity
// index so future decisions weigh it, but an index failure does not
// undo the recorded verdict.
func (g *Gateway) SubmitVerdict(ctx context.Context, submissionID string, verdict model.HumanVerdict) (model.ModerationDecision, error) {
	if verdict != model.VerdictApprove && verdict != model.VerdictReject {
		return model.ModerationDecision{}, ErrInvalidVerdict
	}

	d, err := g.store.RecordVerdict(ctx, submissionID, verdict, g.now())
	if err != nil {
		return d, err
	}
	metrics.RecordHumanVerdict(string(verdict))

	if g.memory != nil {
		if err := g.memory.SetHumanVerdict(ctx, submissionID, verdict); err != nil {
			g.log.Warn(ctx, "failed to propagate verdict to similarity index",
				logger.String("submission_id", submissionID),
				logger.Error(err))
		}
	}

	g.log.Info(ctx, "human verdict recorded",
		logger.String("submission_id", submissionID),
		logger.String("verdict", string(verdict)))
	return d, nil
}
