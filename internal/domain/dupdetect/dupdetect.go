// Package dupdetect finds near-identical recent submissions within the
// same geographic scope.
package dupdetect

import (
	"context"
	"time"

	"github.com/okian/guardian/internal/adapters/vecstore"
	"github.com/okian/guardian/internal/domain/model"
)

// Default duplicate detection constants.
const (
	defaultThreshold  = 0.90
	defaultWindow     = 24 * time.Hour
	defaultCandidates = 10
)

// Index is the slice of the similarity store the detector needs.
type Index interface {
	Nearest(ctx context.Context, q vecstore.Query) ([]model.SimilarityMatch, error)
}

// Match identifies the canonical original of a duplicate submission.
type Match struct {
	OriginalID string
	Similarity float64
}

// Detector checks new submissions against recent same-scope history.
type Detector struct {
	index     Index
	threshold float64
	window    time.Duration
}

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithThreshold sets the cosine similarity above which a candidate
// counts as a duplicate.
func WithThreshold(threshold float64) Option {
	return func(d *Detector) {
		if threshold > 0 && threshold <= 1 {
			d.threshold = threshold
		}
	}
}

// WithWindow sets the recency window for duplicate checks.
func WithWindow(window time.Duration) Option {
	return func(d *Detector) {
		if window > 0 {
			d.window = window
		}
	}
}

// New creates a Detector backed by the given index.
func New(index Index, opts ...Option) *Detector {
	d := &Detector{
		index:     index,
		threshold: defaultThreshold,
		window:    defaultWindow,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the canonical original when the embedding duplicates a
// recent same-scope submission, or nil when it does not. When several
// candidates clear the threshold the earliest-created one is the
// original. Matches outside the window or scope are not duplicates;
// they are left for the decision adjuster.
func (d *Detector) Detect(ctx context.Context, sub model.Submission, embedding []float32) (*Match, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	at := sub.SubmittedAt
	if at.IsZero() {
		at = time.Now()
	}
	candidates, err := d.index.Nearest(ctx, vecstore.Query{
		Embedding:     embedding,
		Scope:         sub.Geo.Scope(),
		Since:         at.Add(-d.window),
		MinSimilarity: d.threshold,
		Limit:         defaultCandidates,
		ExcludeID:     sub.ID,
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// Earliest-created candidate is the canonical original.
	original := candidates[0]
	for _, c := range candidates[1:] {
		if c.CreatedAt.Before(original.CreatedAt) {
			original = c
		}
	}
	return &Match{OriginalID: original.SubmissionID, Similarity: original.Similarity}, nil
}
