package signal

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/okian/guardian/internal/domain/model"
)

// Default in-memory capability constants.
const (
	defaultEmbeddingDim = 64
	defaultFrameCount   = 3
	defaultMinLatency   = 5 * time.Millisecond
	defaultMaxLatency   = 25 * time.Millisecond
	defaultRandomSeed   = 42
)

// InMemoryEmbedder implements Embedder with a deterministic bag-of-words
// hash embedding. It stands in for an external embedding model.
type InMemoryEmbedder struct {
	dim int
}

// EmbedderOption applies a configuration option to the InMemoryEmbedder.
type EmbedderOption func(*InMemoryEmbedder)

// WithDimension sets the embedding dimensionality.
func WithDimension(dim int) EmbedderOption {
	return func(e *InMemoryEmbedder) {
		if dim > 0 {
			e.dim = dim
		}
	}
}

// NewInMemoryEmbedder creates a deterministic embedder.
func NewInMemoryEmbedder(opts ...EmbedderOption) *InMemoryEmbedder {
	e := &InMemoryEmbedder{dim: defaultEmbeddingDim}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Embed hashes tokens into a fixed-size vector and L2-normalizes it.
// Identical text always yields an identical vector.
func (e *InMemoryEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("embedding cancelled: %w", err)
	}
	vec := make([]float32, e.dim)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum32()
		bucket := int(sum) % e.dim
		if bucket < 0 {
			bucket += e.dim
		}
		// Alternate sign from a hash bit so vectors spread across the space.
		if sum&1 == 0 {
			vec[bucket]++
		} else {
			vec[bucket]--
		}
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

// InMemoryMediaScorer implements MediaScorer with simulated model latency
// and URL-keyword heuristics. It stands in for an external NSFW model.
type InMemoryMediaScorer struct {
	minLatency time.Duration
	maxLatency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// MediaScorerOption applies a configuration option to the InMemoryMediaScorer.
type MediaScorerOption func(*InMemoryMediaScorer)

// WithLatencyRange sets the simulated scoring latency range.
func WithLatencyRange(minLatency, maxLatency time.Duration) MediaScorerOption {
	return func(s *InMemoryMediaScorer) {
		if minLatency > 0 && maxLatency > minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// NewInMemoryMediaScorer creates a new in-memory media scorer.
func NewInMemoryMediaScorer(opts ...MediaScorerOption) *InMemoryMediaScorer {
	s := &InMemoryMediaScorer{
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
		rng:        rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic seed for reproducible testing
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score estimates an NSFW probability for the media reference.
func (s *InMemoryMediaScorer) Score(ctx context.Context, ref model.MediaRef) (float64, error) {
	s.mu.Lock()
	latency := s.minLatency + time.Duration(s.rng.Int63n(int64(s.maxLatency-s.minLatency)))
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("media scoring cancelled: %w", ctx.Err())
	case <-time.After(latency):
	}

	lower := strings.ToLower(ref.URL)
	switch {
	case strings.Contains(lower, "nsfw"):
		return 0.95, nil
	case strings.Contains(lower, "gore"), strings.Contains(lower, "violence"):
		return 0.85, nil
	case strings.Contains(lower, "racy"):
		return 0.55, nil
	}

	// Stable low-risk score derived from the URL hash.
	h := fnv.New32a()
	_, _ = h.Write([]byte(lower))
	return float64(h.Sum32()%30) / 100.0, nil
}

// InMemoryFrameSampler implements FrameSampler by deriving a fixed number
// of pseudo frame references from the video URL.
type InMemoryFrameSampler struct {
	frameCount int
}

// FrameSamplerOption applies a configuration option to the InMemoryFrameSampler.
type FrameSamplerOption func(*InMemoryFrameSampler)

// WithFrameCount sets the number of sampled frames per video.
func WithFrameCount(count int) FrameSamplerOption {
	return func(s *InMemoryFrameSampler) {
		if count > 0 {
			s.frameCount = count
		}
	}
}

// NewInMemoryFrameSampler creates a new frame sampler.
func NewInMemoryFrameSampler(opts ...FrameSamplerOption) *InMemoryFrameSampler {
	s := &InMemoryFrameSampler{frameCount: defaultFrameCount}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sample returns frame references addressed by fragment, scored like images.
func (s *InMemoryFrameSampler) Sample(ctx context.Context, ref model.MediaRef) ([]model.MediaRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("frame sampling cancelled: %w", err)
	}
	frames := make([]model.MediaRef, 0, s.frameCount)
	for i := 0; i < s.frameCount; i++ {
		frames = append(frames, model.MediaRef{
			URL:  fmt.Sprintf("%s#frame-%d", ref.URL, i),
			Kind: model.MediaImage,
		})
	}
	return frames, nil
}
