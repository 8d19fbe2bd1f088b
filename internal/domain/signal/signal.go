// Package signal gathers per-modality risk signals and combines them into
// a single risk score. Scoring capabilities are injected, so the
// aggregation logic has no knowledge of which model backs each modality.
package signal

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/guardian/internal/domain/model"
	"github.com/okian/guardian/pkg/logger"
	"github.com/okian/guardian/pkg/metrics"
)

// Default aggregation configuration constants.
const (
	defaultMaxWeight  = 0.6
	defaultMeanWeight = 0.4
	defaultTimeout    = 2 * time.Second
)

// ErrSignalUnavailable reports that every modality scoring call failed.
// Callers must route this to human review, never to auto-approval.
var ErrSignalUnavailable = errors.New("all signal modalities unavailable")

// TextScorer computes rule-derived risk dimensions over the text.
type TextScorer interface {
	Score(ctx context.Context, title, description string) ([]model.SignalScore, error)
}

// Embedder converts text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// MediaScorer estimates the NSFW probability of a single media object.
type MediaScorer interface {
	Score(ctx context.Context, ref model.MediaRef) (float64, error)
}

// FrameSampler extracts representative frames from a video reference.
type FrameSampler interface {
	Sample(ctx context.Context, ref model.MediaRef) ([]model.MediaRef, error)
}

// Result is the outcome of one aggregation run.
type Result struct {
	Risk      float64
	Scores    []model.SignalScore
	Embedding []float32
	Degraded  []string // modalities that failed and were excluded
}

// Aggregator fans scoring calls out per modality and blends the available
// scores. Missing modalities are excluded, never treated as zero.
type Aggregator struct {
	text     TextScorer
	embedder Embedder
	media    MediaScorer
	frames   FrameSampler

	maxWeight  float64
	meanWeight float64
	timeout    time.Duration

	logger logger.Logger
}

// New creates an Aggregator with the given capabilities.
func New(text TextScorer, embedder Embedder, media MediaScorer, frames FrameSampler, opts ...Option) *Aggregator {
	a := &Aggregator{
		text:       text,
		embedder:   embedder,
		media:      media,
		frames:     frames,
		maxWeight:  defaultMaxWeight,
		meanWeight: defaultMeanWeight,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logger.Get().Named("signal")
	}
	return a
}

// Aggregate runs all modality calls concurrently and combines the scores.
// Per-call timeouts turn a slow modality into an unavailable one; a
// modality failure degrades the result instead of failing the run. Only
// when every call fails does Aggregate return ErrSignalUnavailable.
func (a *Aggregator) Aggregate(ctx context.Context, sub model.Submission) (Result, error) {
	var (
		mu        sync.Mutex
		scores    []model.SignalScore
		degraded  []string
		embedding []float32
	)

	record := func(ss ...model.SignalScore) {
		mu.Lock()
		scores = append(scores, ss...)
		mu.Unlock()
	}
	degrade := func(modality string) {
		mu.Lock()
		degraded = append(degraded, modality)
		mu.Unlock()
		metrics.RecordSignalError(modality)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cctx, cancel := context.WithTimeout(gctx, a.timeout)
		defer cancel()
		start := time.Now()
		ss, err := a.text.Score(cctx, sub.Title, sub.Description)
		metrics.RecordSignalLatency(float64(time.Since(start).Milliseconds()))
		if err != nil {
			a.logger.Warn(ctx, "text scoring failed", logger.Error(err))
			degrade("text")
			return nil
		}
		record(ss...)
		return nil
	})

	g.Go(func() error {
		cctx, cancel := context.WithTimeout(gctx, a.timeout)
		defer cancel()
		vec, err := a.embedder.Embed(cctx, sub.Title+" "+sub.Description)
		if err != nil {
			a.logger.Warn(ctx, "embedding failed", logger.Error(err))
			degrade("embedding")
			return nil
		}
		mu.Lock()
		embedding = vec
		mu.Unlock()
		return nil
	})

	for _, ref := range sub.Media {
		switch ref.Kind {
		case model.MediaImage:
			g.Go(func() error {
				score, err := a.scoreOne(gctx, ref)
				if err != nil {
					a.logger.Warn(ctx, "image scoring failed", logger.String("url", ref.URL), logger.Error(err))
					degrade("image")
					return nil
				}
				record(model.SignalScore{Dimension: model.DimensionNSFW, Score: score, Source: ref.URL})
				return nil
			})
		case model.MediaVideo:
			g.Go(func() error {
				score, err := a.scoreVideo(gctx, ref)
				if err != nil {
					a.logger.Warn(ctx, "video scoring failed", logger.String("url", ref.URL), logger.Error(err))
					degrade("video")
					return nil
				}
				record(model.SignalScore{Dimension: model.DimensionNSFW, Score: score, Source: ref.URL})
				return nil
			})
		}
	}

	// Goroutines report failures through degrade, never as errors.
	_ = g.Wait()

	if len(scores) == 0 {
		metrics.RecordSignalUnavailable()
		return Result{Degraded: degraded}, ErrSignalUnavailable
	}

	return Result{
		Risk:      a.combine(scores),
		Scores:    scores,
		Embedding: embedding,
		Degraded:  degraded,
	}, nil
}

// scoreOne scores a single media object with the per-call timeout.
func (a *Aggregator) scoreOne(ctx context.Context, ref model.MediaRef) (float64, error) {
	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	start := time.Now()
	score, err := a.media.Score(cctx, ref)
	metrics.RecordSignalLatency(float64(time.Since(start).Milliseconds()))
	return score, err
}

// scoreVideo samples frames and returns the worst frame score.
func (a *Aggregator) scoreVideo(ctx context.Context, ref model.MediaRef) (float64, error) {
	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	frames, err := a.frames.Sample(cctx, ref)
	if err != nil {
		return 0, err
	}
	worst := 0.0
	scored := false
	for _, frame := range frames {
		score, err := a.scoreOne(ctx, frame)
		if err != nil {
			continue
		}
		scored = true
		if score > worst {
			worst = score
		}
	}
	if !scored {
		return 0, errors.New("no frame could be scored")
	}
	return worst, nil
}

// combine blends the maximum score (as a floor for the worst signal) with
// the mean of all available scores: risk = wmax*max + wmean*mean.
func (a *Aggregator) combine(scores []model.SignalScore) float64 {
	maxScore := 0.0
	sum := 0.0
	for _, s := range scores {
		if s.Score > maxScore {
			maxScore = s.Score
		}
		sum += s.Score
	}
	mean := sum / float64(len(scores))
	risk := a.maxWeight*maxScore + a.meanWeight*mean
	if risk < 0 {
		return 0
	}
	if risk > 1 {
		return 1
	}
	return risk
}
