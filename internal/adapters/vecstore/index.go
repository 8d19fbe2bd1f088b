// Package vecstore defines the similarity index capability consumed by the
// pipeline, plus an embedded in-memory implementation. The decision logic
// never knows which store backs the capability.
package vecstore

import (
	"context"
	"time"

	"github.com/okian/guardian/internal/domain/model"
)

// Record is one remembered submission: its embedding plus the decision
// metadata future queries need.
type Record struct {
	SubmissionID string
	Embedding    []float32
	Tier         model.Tier
	HumanVerdict model.HumanVerdict
	Scope        string
	CreatedAt    time.Time
}

// Query selects nearest neighbors. Zero values disable a filter.
type Query struct {
	Embedding      []float32
	Scope          string    // restrict to the same locality-or-broader scope
	Since          time.Time // restrict to records created at or after
	MinSimilarity  float64   // drop candidates below this cosine similarity
	Limit          int
	RequireVerdict bool   // only records carrying a human verdict
	ExcludeID      string // typically the querying submission itself
}

// Index provides nearest-neighbor search over remembered submissions.
type Index interface {
	// Upsert stores or replaces the record for its submission id.
	Upsert(ctx context.Context, rec Record) error

	// Nearest returns matches ordered by similarity descending.
	Nearest(ctx context.Context, q Query) ([]model.SimilarityMatch, error)

	// SetHumanVerdict annotates a stored record with a moderator verdict.
	// Returns ErrNotFound when the submission id is unknown.
	SetHumanVerdict(ctx context.Context, submissionID string, verdict model.HumanVerdict) error

	// Size returns the number of stored records.
	Size(ctx context.Context) int
}
