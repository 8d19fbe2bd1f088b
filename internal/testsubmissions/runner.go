package testsubmissions

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/guardian/pkg/logger"
)

// Run executes the complete submission test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting guardian submission test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("submissions", config.NumSubmissions),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate submissions
	subs, err := generateSubmissions(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("submission generation failed: %w", err)
	}

	// Step 3: Submit concurrently
	if err := submitSubmissions(ctx, config, subs, stats); err != nil {
		return fmt.Errorf("submission failed: %w", err)
	}

	// Step 4: Wait for async publication to settle
	logger.Get().Info(ctx, "waiting for publication to settle")
	time.Sleep(ProcessingDelay)

	// Step 5: Resolve a sample of pending reviews
	if err := resolveReviews(ctx, config, stats); err != nil {
		return fmt.Errorf("review resolution failed: %w", err)
	}

	// Step 6: Verify results
	if err := verifyResults(ctx, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the endpoint returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, subsPerSecond float64

	if stats.Submitted > 0 {
		successRate = float64(stats.Submitted-stats.Failed) / float64(stats.Submitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		subsPerSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("green", stats.Green),
		logger.Int("yellow", stats.Yellow),
		logger.Int("red", stats.Red),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("failed", stats.Failed),
		logger.Int("verdictsRecorded", stats.VerdictsRecorded),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("submissionsPerSecond", subsPerSecond))
}
