package testsubmissions

import "time"

// Config holds configuration for the submission test.
type Config struct {
	BaseURL        string        // Base URL of the service
	NumSubmissions int           // Number of submissions to generate
	DuplicateRatio float64       // Fraction of submissions that are near-duplicates
	Workers        int           // Number of concurrent workers
	Timeout        time.Duration // HTTP request timeout
	ReviewSample   int           // How many pending reviews to resolve
	LogFile        string        // Log file for test output
	Verbose        bool          // Enable verbose logging
}

// Submission mirrors the POST /submissions request schema.
type Submission struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Media       []MediaRef `json:"media,omitempty"`
	Geo         GeoTag     `json:"geo"`
	SubmittedAt string     `json:"submitted_at"`
}

// MediaRef mirrors the media reference schema.
type MediaRef struct {
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

// GeoTag mirrors the geographic tag schema.
type GeoTag struct {
	Country  string `json:"country"`
	State    string `json:"state,omitempty"`
	City     string `json:"city"`
	District string `json:"district,omitempty"`
	Locality string `json:"locality,omitempty"`
}

// Decision mirrors the decision response schema.
type Decision struct {
	SubmissionID string  `json:"submission_id"`
	Tier         string  `json:"tier"`
	RiskScore    float64 `json:"risk_score"`
	Rationale    string  `json:"rationale"`
	DuplicateOf  string  `json:"duplicate_of,omitempty"`
	Adjusted     bool    `json:"adjusted"`
	HumanVerdict string  `json:"human_verdict,omitempty"`
}

// Stats holds test statistics.
type Stats struct {
	Generated        int
	Submitted        int
	Green            int
	Yellow           int
	Red              int
	Duplicates       int
	Failed           int
	VerdictsRecorded int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
