package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/okian/guardian/internal/domain/model"
)

// decisionPrefix namespaces decision rows so further record kinds can
// share the same keyspace later.
const decisionPrefix = "decision/"

// PebbleStore implements Store on an embedded pebble database so
// decisions survive process restarts. Values are msgpack encoded.
type PebbleStore struct {
	mu sync.Mutex
	db *pebble.DB
}

// OpenPebbleStore opens (or creates) a pebble-backed decision store at path.
func OpenPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble store: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

func decisionKey(submissionID string) []byte {
	return []byte(decisionPrefix + submissionID)
}

func (s *PebbleStore) get(submissionID string) (model.ModerationDecision, error) {
	val, closer, err := s.db.Get(decisionKey(submissionID))
	if errors.Is(err, pebble.ErrNotFound) {
		return model.ModerationDecision{}, ErrNotFound
	}
	if err != nil {
		return model.ModerationDecision{}, fmt.Errorf("read decision %s: %w", submissionID, err)
	}
	defer closer.Close()

	var d model.ModerationDecision
	if err := msgpack.Unmarshal(val, &d); err != nil {
		return model.ModerationDecision{}, fmt.Errorf("decode decision %s: %w", submissionID, err)
	}
	return d, nil
}

func (s *PebbleStore) put(d model.ModerationDecision) error {
	val, err := msgpack.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode decision %s: %w", d.SubmissionID, err)
	}
	if err := s.db.Set(decisionKey(d.SubmissionID), val, pebble.Sync); err != nil {
		return fmt.Errorf("write decision %s: %w", d.SubmissionID, err)
	}
	return nil
}

// Create persists a decision. First writer wins.
func (s *PebbleStore) Create(ctx context.Context, d model.ModerationDecision) (model.ModerationDecision, bool, error) {
	if d.SubmissionID == "" {
		return model.ModerationDecision{}, false, ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.get(d.SubmissionID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return model.ModerationDecision{}, false, err
	}
	if err := s.put(d); err != nil {
		return model.ModerationDecision{}, false, err
	}
	return d, true, nil
}

// Get returns the decision for a submission.
func (s *PebbleStore) Get(ctx context.Context, submissionID string) (model.ModerationDecision, error) {
	return s.get(submissionID)
}

// ListPending scans all decisions and returns up to limit unreviewed
// YELLOW ones, oldest first.
func (s *PebbleStore) ListPending(ctx context.Context, limit int) ([]model.ModerationDecision, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(decisionPrefix),
		UpperBound: []byte(decisionPrefix + "\xff"),
	})
	if err != nil {
		return nil, fmt.Errorf("scan decisions: %w", err)
	}
	defer iter.Close()

	var pending []model.ModerationDecision
	for iter.First(); iter.Valid(); iter.Next() {
		var d model.ModerationDecision
		if err := msgpack.Unmarshal(iter.Value(), &d); err != nil {
			return nil, fmt.Errorf("decode decision %s: %w", iter.Key(), err)
		}
		if d.Tier == model.TierYellow && !d.Reviewed() {
			pending = append(pending, d)
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("scan decisions: %w", err)
	}

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
func (s *PebbleStore) RecordVerdict(ctx context.Context, submissionID string, verdict model.HumanVerdict, at time.Time) (model.ModerationDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.get(submissionID)
	if err != nil {
		return model.ModerationDecision{}, err
	}
	if d.Reviewed() {
		return d, ErrAlreadyReviewed
	}
	d.HumanVerdict = verdict
	d.ReviewedAt = at
	if err := s.put(d); err != nil {
		return model.ModerationDecision{}, err
	}
	return d, nil
}

// Count returns the number of stored decisions.
func (s *PebbleStore) Count(ctx context.Context) int {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(decisionPrefix),
		UpperBound: []byte(decisionPrefix + "\xff"),
	})
	if err != nil {
		return 0
	}
	defer iter.Close()

	n := 0
	for iter.First(); iter.Valid(); iter.Next() {
		n++
	}
	return n
}

// Close flushes and closes the underlying database.
func (s *PebbleStore) Close() error {
	return s.db.Close()
}
