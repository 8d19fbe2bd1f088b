// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Tier is the three-tier moderation verdict.
type Tier string

// Moderation tiers.
const (
	TierGreen  Tier = "GREEN"  // auto-approve
	TierYellow Tier = "YELLOW" // human review
	TierRed    Tier = "RED"    // auto-reject
)

// HumanVerdict is a moderator's call on a reviewed decision.
type HumanVerdict string

// Human verdicts.
const (
	VerdictNone    HumanVerdict = ""
	VerdictApprove HumanVerdict = "APPROVE"
	VerdictReject  HumanVerdict = "REJECT"
)

// MediaKind distinguishes media reference types.
type MediaKind string

// Media kinds.
const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaRef points at an externally stored media object.
type MediaRef struct {
	URL  string    `json:"url"`
	Kind MediaKind `json:"kind"`
}

// GeoTag is the hierarchical geographic tag of a submission.
// Levels may be empty from the bottom up; Country is the broadest.
type GeoTag struct {
	Country  string `json:"country"`
	State    string `json:"state"`
	City     string `json:"city"`
	District string `json:"district"`
	Locality string `json:"locality"`
}

// Empty reports whether no geographic information is present.
func (g GeoTag) Empty() bool {
	return g.Country == "" && g.State == "" && g.City == "" && g.District == "" && g.Locality == ""
}

// Scope returns the tag as a slash-joined path of its non-empty levels,
// lowercased, e.g. "de/berlin/mitte". Two tags share a scope when one
// path contains the other component-wise.
func (g GeoTag) Scope() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{g.Country, g.State, g.City, g.District, g.Locality} {
		if p == "" {
			break
		}
		parts = append(parts, strings.ToLower(strings.TrimSpace(p)))
	}
	return strings.Join(parts, "/")
}

// SameScope reports whether two tags fall within the same
// locality-or-broader geographic scope.
func (g GeoTag) SameScope(other GeoTag) bool {
	a, b := g.Scope(), other.Scope()
	if a == b {
		return true
	}
	if a == "" || b == "" {
		return false
	}
	// Compare on path-component boundaries so "us/york" never matches
	// "us/yorkshire".
	return strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}

// Submission is a canonical user submission flowing through the pipeline.
// Immutable once accepted.
type Submission struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Media       []MediaRef `json:"media,omitempty"`
	Geo         GeoTag     `json:"geo"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

// Dimension names a risk signal dimension.
type Dimension string

// Signal dimensions.
const (
	DimensionSpam           Dimension = "spam"
	DimensionAbuse          Dimension = "abuse"
	DimensionNSFW           Dimension = "nsfw"
	DimensionSensationalism Dimension = "sensationalism"
)

// SignalScore is one per-dimension risk probability in [0,1].
// Owned by the aggregator for the duration of a single pipeline run.
type SignalScore struct {
	Dimension Dimension
	Score     float64
	Source    string // modality or rule that produced it
}

// SimilarityMatch is a transient nearest-neighbor hit from the index.
type SimilarityMatch struct {
	SubmissionID string
	Similarity   float64 // cosine, higher = more similar
	Tier         Tier
	HumanVerdict HumanVerdict
	Scope        string
	CreatedAt    time.Time
}

// ModerationDecision is the immutable verdict for one submission.
// Human verdicts are appended by the review gateway, never replacing
// the original machine fields.
type ModerationDecision struct {
	SubmissionID string       `json:"submission_id" msgpack:"submission_id"`
	Tier         Tier         `json:"tier" msgpack:"tier"`
	RiskScore    float64      `json:"risk_score" msgpack:"risk_score"`
	Rationale    string       `json:"rationale" msgpack:"rationale"`
	DuplicateOf  string       `json:"duplicate_of,omitempty" msgpack:"duplicate_of"`
	Adjusted     bool         `json:"adjusted" msgpack:"adjusted"`
	AdjustReason string       `json:"adjust_reason,omitempty" msgpack:"adjust_reason"`
	Unpersisted  bool         `json:"unpersisted,omitempty" msgpack:"-"`
	CreatedAt    time.Time    `json:"created_at" msgpack:"created_at"`
	HumanVerdict HumanVerdict `json:"human_verdict,omitempty" msgpack:"human_verdict"`
	ReviewedAt   time.Time    `json:"reviewed_at,omitempty" msgpack:"reviewed_at"`
}

// Reviewed reports whether a human verdict has been recorded.
func (d ModerationDecision) Reviewed() bool {
	return d.HumanVerdict != VerdictNone
}

// DeliveryStatus tracks a webhook delivery lifecycle.
type DeliveryStatus string

// Delivery statuses.
const (
	DeliveryPending      DeliveryStatus = "pending"
	DeliverySucceeded    DeliveryStatus = "succeeded"
	DeliveryDeadLettered DeliveryStatus = "dead_lettered"
)

// DeliveryAttempt records the state of one webhook delivery.
type DeliveryAttempt struct {
	ID           string         `msgpack:"id"`
	SubmissionID string         `msgpack:"submission_id"`
	Endpoint     string         `msgpack:"endpoint"`
	Attempts     int            `msgpack:"attempts"`
	Status       DeliveryStatus `msgpack:"status"`
	LastError    string         `msgpack:"last_error"`
	UpdatedAt    time.Time      `msgpack:"updated_at"`
}

// PublishJob carries everything the outcome publisher needs for one
// decision: the decision itself plus the embedding to remember.
type PublishJob struct {
	Decision  ModerationDecision
	Embedding []float32
	Scope     string
}
