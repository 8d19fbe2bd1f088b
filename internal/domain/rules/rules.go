// Package rules implements heuristic text checks producing per-dimension
// risk signals. All checks are pure functions over the canonical text.
package rules

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/okian/guardian/internal/domain/model"
	"github.com/okian/guardian/internal/domain/normalize"
)

// Heuristic weights and bounds.
const (
	shortTextWeight     = 0.3
	allCapsWeight       = 0.4
	repeatedRunWeight   = 0.3
	bannedTermWeight    = 0.5
	excessiveURLsWeight = 0.4
	profanityWeight     = 0.3
	lowUniquenessScore  = 0.8
	sensationalScale    = 1.5

	minTextLen        = 20
	allCapsMinLen     = 50
	repeatedRunLen    = 5
	maxURLCount       = 2
	minUniquenessRate = 0.3
)

var bannedTerms = []string{
	"spam", "fake", "scam", "clickbait",
	"http://bit.ly", "http://tinyurl.com",
}

var profanity = []string{
	"fuck", "shit", "asshole", "bastard",
}

var (
	phonePattern = regexp.MustCompile(`\b\d{10,}\b`)
	urlPattern   = regexp.MustCompile(`https?://[^\s]+`)
)

// Engine evaluates all rule checks against a submission's text.
// It implements the aggregator's text scoring capability.
type Engine struct{}

// NewEngine creates a rule engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Result carries the per-dimension scores and the flags that fired.
type Result struct {
	Scores []model.SignalScore
	Flags  []string
}

// Score satisfies the signal.TextScorer capability.
func (e *Engine) Score(ctx context.Context, title, description string) ([]model.SignalScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("rule evaluation cancelled: %w", err)
	}
	return Evaluate(title, description).Scores, nil
}

// Evaluate runs every check over the combined text and returns clamped
// per-dimension scores plus the fired flags.
func Evaluate(title, description string) Result {
	combined := title + " " + description
	var r Result

	spamScore, spamFlags := checkSpam(combined)
	r.Flags = append(r.Flags, spamFlags...)

	if phonePattern.MatchString(combined) {
		spamScore = 1.0
		r.Flags = append(r.Flags, "PHONE_NUMBER")
	}
	if s, ok := checkUniqueness(combined); ok {
		if s > spamScore {
			spamScore = s
		}
		r.Flags = append(r.Flags, "LOW_UNIQUENESS")
	}
	r.Scores = append(r.Scores, model.SignalScore{
		Dimension: model.DimensionSpam,
		Score:     clamp(spamScore),
		Source:    "rules",
	})

	abuseScore, abuseFlags := checkProfanity(combined)
	r.Flags = append(r.Flags, abuseFlags...)
	r.Scores = append(r.Scores, model.SignalScore{
		Dimension: model.DimensionAbuse,
		Score:     clamp(abuseScore),
		Source:    "rules",
	})

	r.Scores = append(r.Scores, model.SignalScore{
		Dimension: model.DimensionSensationalism,
		Score:     clamp(checkSensationalism(title, description)),
		Source:    "rules",
	})

	return r
}

// checkSpam accumulates spam indicator weights over the combined text.
func checkSpam(text string) (float64, []string) {
	lower := strings.ToLower(text)
	score := 0.0
	var flags []string

	if len(text) < minTextLen {
		score += shortTextWeight
		flags = append(flags, "TOO_SHORT")
	}
	if len(text) > allCapsMinLen && text == strings.ToUpper(text) && text != lower {
		score += allCapsWeight
		flags = append(flags, "ALL_CAPS")
	}
	if hasRepeatedRun(text, repeatedRunLen) {
		score += repeatedRunWeight
		flags = append(flags, "REPEATED_CHARS")
	}
	for _, term := range bannedTerms {
		if strings.Contains(lower, term) {
			score += bannedTermWeight
			flags = append(flags, "BANNED_TERM_"+strings.ToUpper(sanitizeFlag(term)))
		}
	}
	if len(urlPattern.FindAllString(text, -1)) > maxURLCount {
		score += excessiveURLsWeight
		flags = append(flags, "EXCESSIVE_URLS")
	}
	return score, flags
}

// checkProfanity counts profane terms, each adding a fixed weight.
func checkProfanity(text string) (float64, []string) {
	lower := strings.ToLower(text)
	count := 0
	var flags []string
	for _, word := range profanity {
		if strings.Contains(lower, word) {
			count++
			flags = append(flags, "PROFANITY")
		}
	}
	return float64(count) * profanityWeight, flags
}

// checkUniqueness flags text whose unique-word ratio is suspiciously low.
func checkUniqueness(text string) (float64, bool) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 1.0, true
	}
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[strings.ToLower(w)] = struct{}{}
	}
	ratio := float64(len(unique)) / float64(len(words))
	if ratio < minUniquenessRate {
		return lowUniquenessScore, true
	}
	return 0, false
}

// checkSensationalism scores shouty formatting: uppercase density and
// exclamation runs.
func checkSensationalism(title, description string) float64 {
	meta := normalize.ExtractMetadata(title, description)
	score := meta.UppercaseRatio * sensationalScale
	if strings.Contains(title+description, "!!") {
		score += 0.2
	}
	return score
}

// hasRepeatedRun reports whether any rune repeats n or more times in a row.
// RE2 has no backreferences, so this is a manual scan.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, c := range s {
		if c == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			prev = c
			run = 1
		}
	}
	return false
}

// sanitizeFlag turns a banned term into a flag-safe token.
func sanitizeFlag(term string) string {
	term = strings.NewReplacer("http://", "", "https://", "", ".", "_", "/", "_").Replace(term)
	return term
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
