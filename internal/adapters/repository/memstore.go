package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/guardian/internal/domain/model"
)

// MemStore implements Store with an in-process map. It is the default
// backend and the one used by tests.
type MemStore struct {
	mu        sync.RWMutex
	decisions map[string]model.ModerationDecision
}

// NewMemStore creates an empty in-memory decision store.
func NewMemStore() *MemStore {
	return &MemStore{decisions: make(map[string]model.ModerationDecision)}
}

// Create persists a decision. First writer wins.
func (s *MemStore) Create(ctx context.Context, d model.ModerationDecision) (model.ModerationDecision, bool, error) {
	if d.SubmissionID == "" {
		return model.ModerationDecision{}, false, ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.decisions[d.SubmissionID]; ok {
		return existing, false, nil
	}
	s.decisions[d.SubmissionID] = d
	return d, true, nil
}

// Get returns the decision for a submission.
func (s *MemStore) Get(ctx context.Context, submissionID string) (model.ModerationDecision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.decisions[submissionID]
	if !ok {
		return model.ModerationDecision{}, ErrNotFound
	}
	return d, nil
}

// ListPending returns up to limit unreviewed YELLOW decisions, oldest first.
func (s *MemStore) ListPending(ctx context.Context, limit int) ([]model.ModerationDecision, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	pending := make([]model.ModerationDecision, 0, limit)
	for _, d := range s.decisions {
		if d.Tier == model.TierYellow && !d.Reviewed() {
			pending = append(pending, d)
		}
	}
	s.mu.RUnlock()

	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].CreatedAt.Before(pending[j].CreatedAt)
		}
		return pending[i].SubmissionID < pending[j].SubmissionID
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// RecordVerdict attaches a single human verdict to a decision. Any
// known decision takes exactly one verdict regardless of tier; only the
// pending listing is YELLOW-scoped.
func (s *MemStore) RecordVerdict(ctx context.Context, submissionID string, verdict model.HumanVerdict, at time.Time) (model.ModerationDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.decisions[submissionID]
	if !ok {
		return model.ModerationDecision{}, ErrNotFound
	}
	if d.Reviewed() {
		return d, ErrAlreadyReviewed
	}
	d.HumanVerdict = verdict
	d.ReviewedAt = at
	s.decisions[submissionID] = d
	return d, nil
}

// Count returns the number of stored decisions.
func (s *MemStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.decisions)
}

// Close is a no-op for the in-memory backend.
func (s *MemStore) Close() error {
	return nil
}
