package vecstore

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/okian/guardian/internal/domain/model"
	"github.com/okian/guardian/pkg/metrics"
)

// MemIndex implements Index with a flat in-memory cosine scan. Suitable
// for single-process deployments and tests; a networked vector store can
// replace it behind the same interface.
type MemIndex struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemIndex creates an empty in-memory index.
func NewMemIndex() *MemIndex {
	return &MemIndex{records: make(map[string]Record)}
}

// Upsert stores or replaces the record for its submission id.
func (m *MemIndex) Upsert(ctx context.Context, rec Record) error {
	if rec.SubmissionID == "" {
		return ErrMissingID
	}
	if len(rec.Embedding) == 0 {
		return ErrEmptyRecord
	}
	m.mu.Lock()
	// Preserve an existing human verdict across re-publishes.
	if old, ok := m.records[rec.SubmissionID]; ok && rec.HumanVerdict == model.VerdictNone {
		rec.HumanVerdict = old.HumanVerdict
	}
	m.records[rec.SubmissionID] = rec
	size := len(m.records)
	m.mu.Unlock()

	metrics.UpdateIndexSize(size)
	return nil
}

// Nearest returns matches ordered by similarity descending.
func (m *MemIndex) Nearest(ctx context.Context, q Query) ([]model.SimilarityMatch, error) {
	if len(q.Embedding) == 0 {
		return nil, ErrEmptyQuery
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]model.SimilarityMatch, 0, len(m.records))
	for id, rec := range m.records {
		if id == q.ExcludeID {
			continue
		}
		if q.RequireVerdict && rec.HumanVerdict == model.VerdictNone {
			continue
		}
		if !q.Since.IsZero() && rec.CreatedAt.Before(q.Since) {
			continue
		}
		if q.Scope != "" && !sameScope(q.Scope, rec.Scope) {
			continue
		}
		if len(rec.Embedding) != len(q.Embedding) {
			continue
		}
		sim := cosine(q.Embedding, rec.Embedding)
		if sim < q.MinSimilarity {
			continue
		}
		matches = append(matches, model.SimilarityMatch{
			SubmissionID: id,
			Similarity:   sim,
			Tier:         rec.Tier,
			HumanVerdict: rec.HumanVerdict,
			Scope:        rec.Scope,
			CreatedAt:    rec.CreatedAt,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	if q.Limit > 0 && len(matches) > q.Limit {
		matches = matches[:q.Limit]
	}
	return matches, nil
}

// SetHumanVerdict annotates a stored record with a moderator verdict.
func (m *MemIndex) SetHumanVerdict(ctx context.Context, submissionID string, verdict model.HumanVerdict) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[submissionID]
	if !ok {
		return ErrNotFound
	}
	rec.HumanVerdict = verdict
	m.records[submissionID] = rec
	return nil
}

// Size returns the number of stored records.
func (m *MemIndex) Size(ctx context.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// sameScope reports whether one slash-joined scope path contains the
// other. Containment is checked on path-component boundaries so that
// sibling localities sharing a name prefix stay distinct.
func sameScope(a, b string) bool {
	if a == b {
		return true
	}
	if a == "" || b == "" {
		return false
	}
	return strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}

// cosine computes cosine similarity between two equal-length vectors.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
