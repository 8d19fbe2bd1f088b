// Package repository defines the decision store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/okian/guardian/internal/domain/model"
)

// Store provides durable access to moderation decisions.
type Store interface {
	// Create persists a decision for a submission. The first writer wins;
	// if a decision already exists for the submission the stored one is
	// returned with created=false and nothing is overwritten.
	Create(ctx context.Context, d model.ModerationDecision) (stored model.ModerationDecision, created bool, err error)

	// Get returns the decision for a submission.
	// Returns ErrNotFound if the submission is unknown.
	Get(ctx context.Context, submissionID string) (model.ModerationDecision, error)

	// ListPending returns up to limit YELLOW decisions awaiting a human
	// verdict, oldest first.
	ListPending(ctx context.Context, limit int) ([]model.ModerationDecision, error)

	// RecordVerdict attaches a single human verdict to a YELLOW decision.
	// Returns ErrNotFound for unknown submissions and ErrAlreadyReviewed
	// when a verdict has already been recorded.
	RecordVerdict(ctx context.Context, submissionID string, verdict model.HumanVerdict, at time.Time) (model.ModerationDecision, error)

	// Count returns the number of stored decisions.
	Count(ctx context.Context) int

	// Close releases any resources held by the store.
	Close() error
}
