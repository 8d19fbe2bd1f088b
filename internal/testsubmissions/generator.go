package testsubmissions

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/okian/guardian/pkg/logger"
)

// Constants for random generation.
const (
	profileDivisor = 6
)

// Profile cases for submission generation.
const (
	caseCleanReport = 0
	caseSpamReport  = 1
	caseAbusive     = 2
	caseShouting    = 3
	caseWithImage   = 4
	caseBorderline  = 5
)

var cities = []GeoTag{
	{Country: "US", State: "CA", City: "Oakland", District: "Downtown"},
	{Country: "US", State: "CA", City: "Oakland", District: "Fruitvale"},
	{Country: "US", State: "NY", City: "Buffalo"},
	{Country: "DE", City: "Berlin", District: "Mitte"},
	{Country: "IN", State: "MH", City: "Pune", District: "Kothrud"},
}

// randomInt returns a random integer in [0, n) using crypto/rand.
func randomInt(n int64) int64 {
	v, _ := rand.Int(rand.Reader, big.NewInt(n))
	return v.Int64()
}

// generateSubmissions creates the requested mix of submissions. A slice
// of them are near-duplicates of earlier entries in the same city, to
// exercise the duplicate detector.
func generateSubmissions(ctx context.Context, config *Config, stats *Stats) ([]Submission, error) {
	logger.Get().Info(ctx, "generating submissions",
		logger.Int("numSubmissions", config.NumSubmissions),
		logger.Float64("duplicateRatio", config.DuplicateRatio))

	subs := make([]Submission, 0, config.NumSubmissions)
	for i := 0; i < config.NumSubmissions; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during generation: %w", ctx.Err())
		default:
		}

		// Duplicate a previous submission's text in the same city.
		if len(subs) > 0 && randomInt(1000) < int64(config.DuplicateRatio*1000) {
			src := subs[randomInt(int64(len(subs)))]
			dup := src
			dup.ID = uuid.New().String()
			dup.SubmittedAt = time.Now().UTC().Format(time.RFC3339)
			subs = append(subs, dup)
			continue
		}

		subs = append(subs, generateSingleSubmission(i))
	}

	stats.Generated = len(subs)
	logger.Get().Info(ctx, "generated submissions successfully", logger.Int("count", len(subs)))
	return subs, nil
}

// generateSingleSubmission creates one submission with a varied risk profile.
func generateSingleSubmission(index int) Submission {
	geo := cities[randomInt(int64(len(cities)))]
	sub := Submission{
		ID:          uuid.New().String(),
		Geo:         geo,
		SubmittedAt: time.Now().UTC().Format(time.RFC3339),
	}

	switch randomInt(profileDivisor) {
	case caseCleanReport:
		sub.Title = fmt.Sprintf("Pothole on Elm Street block %d", index)
		sub.Description = "There is a large pothole near the bus stop that has been growing for weeks and damaging car tires."
	case caseSpamReport:
		sub.Title = "Visit http://win.example http://free.example http://now.example"
		sub.Description = "Click here to claim your free prize today, limited offer, visit http://spam.example and http://more.example right away."
	case caseAbusive:
		sub.Title = fmt.Sprintf("Garbage pileup near market %d", index)
		sub.Description = "The damn contractors left this stupid mess again and nobody gives a crap about cleaning this idiot dump."
	case caseShouting:
		sub.Title = "BROKEN STREETLIGHT AT MAIN CROSSING"
		sub.Description = "THE LIGHT HAS BEEN OUT FOR TEN DAYS AND THE CROSSING IS COMPLETELY DARK AT NIGHT, SOMEONE WILL GET HURT SOON."
	case caseWithImage:
		sub.Title = fmt.Sprintf("Overflowing drain on 5th avenue %d", index)
		sub.Description = "Storm drain has been blocked since the last rain and water is pooling across both lanes of the road."
		sub.Media = []MediaRef{{URL: fmt.Sprintf("https://img.example/drain-%d.jpg", index), Kind: "image"}}
	default:
		sub.Title = fmt.Sprintf("Noise complaint sector %d", index)
		sub.Description = "Construction crew keeps working past permitted hours and the noise levels are unbearable for nearby residents."
	}
	return sub
}
