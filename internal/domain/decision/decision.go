// Package decision applies the three-tier threshold policy and produces
// the final verdict with a human-readable rationale.
package decision

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/guardian/internal/domain/adjust"
	"github.com/okian/guardian/internal/domain/dupdetect"
	"github.com/okian/guardian/internal/domain/model"
)

// Default tier thresholds.
const (
	DefaultGreenMax = 0.3
	DefaultRedMin   = 0.8
)

// Engine maps risk scores to tiers. Thresholds are configuration, not
// constants: operators tune them without redeploying logic.
type Engine struct {
	greenMax float64
	redMin   float64
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithThresholds sets the GREEN/RED boundaries.
func WithThresholds(greenMax, redMin float64) Option {
	return func(e *Engine) {
		if greenMax >= 0 && greenMax <= redMin && redMin <= 1 {
			e.greenMax = greenMax
			e.redMin = redMin
		}
	}
}

// NewEngine creates an Engine with default thresholds.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{greenMax: DefaultGreenMax, redMin: DefaultRedMin}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Input carries everything one verdict depends on.
type Input struct {
	SubmissionID      string
	Risk              float64
	SignalUnavailable bool
	Degraded          []string
	Duplicate         *dupdetect.Match
	Neighbors         []model.SimilarityMatch
	Now               time.Time
}

// Decide produces the final ModerationDecision.
//
// Precedence: signal unavailability and duplicates force YELLOW; the
// historical escalation may only raise GREEN to YELLOW; otherwise the
// thresholds decide (r < greenMax GREEN, r > redMin RED, else YELLOW).
func (e *Engine) Decide(in Input) model.ModerationDecision {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	d := model.ModerationDecision{
		SubmissionID: in.SubmissionID,
		RiskScore:    in.Risk,
		CreatedAt:    now,
	}

	if in.SignalUnavailable {
		// Fail-safe: no signals must never mean no risk.
		d.Tier = model.TierYellow
		d.Rationale = "all risk signals unavailable; forced human review"
		return d
	}

	tier := e.tierFor(in.Risk)
	var reasons []string
	switch tier {
	case model.TierGreen:
		reasons = append(reasons, fmt.Sprintf("risk %.2f below threshold", in.Risk))
	case model.TierYellow:
		reasons = append(reasons, fmt.Sprintf("risk %.2f requires review", in.Risk))
	case model.TierRed:
		reasons = append(reasons, fmt.Sprintf("risk %.2f above threshold; auto-reject", in.Risk))
	}

	adjusted, outcome := adjust.Apply(tier, in.Neighbors)
	if outcome.Escalated {
		tier = adjusted
		d.Adjusted = true
		d.AdjustReason = outcome.Reason
		reasons = append(reasons, outcome.Reason)
	}

	if in.Duplicate != nil {
		// Duplicates are routed for consolidation, never silently
		// auto-approved or auto-rejected.
		tier = model.TierYellow
		d.DuplicateOf = in.Duplicate.OriginalID
		reasons = append(reasons, fmt.Sprintf("duplicate of %s (similarity %.2f)", in.Duplicate.OriginalID, in.Duplicate.Similarity))
	}

	if len(in.Degraded) > 0 {
		reasons = append(reasons, "degraded signals: "+strings.Join(in.Degraded, ", "))
	}

	d.Tier = tier
	d.Rationale = strings.Join(reasons, "; ")
	return d
}

// tierFor applies the threshold policy: boundaries land in YELLOW.
func (e *Engine) tierFor(risk float64) model.Tier {
	switch {
	case risk < e.greenMax:
		return model.TierGreen
	case risk > e.redMin:
		return model.TierRed
	default:
		return model.TierYellow
	}
}
