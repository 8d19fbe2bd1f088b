package testsubmissions

import (
	"context"
	"fmt"

	"github.com/okian/guardian/pkg/logger"
)

// verifyResults sanity-checks the observed decision behavior.
func verifyResults(ctx context.Context, stats *Stats) error {
	logger.Get().Info(ctx, "verifying results")

	if stats.Submitted == 0 {
		return fmt.Errorf("no submissions were submitted")
	}
	if stats.Failed == stats.Submitted {
		return fmt.Errorf("every submission failed")
	}

	decided := stats.Green + stats.Yellow + stats.Red
	if decided+stats.Failed != stats.Submitted {
		return fmt.Errorf("tier counts do not add up: %d decided + %d failed != %d submitted",
			decided, stats.Failed, stats.Submitted)
	}

	// Duplicates must land in review, so there cannot be more
	// duplicates than YELLOW decisions.
	if stats.Duplicates > stats.Yellow {
		return fmt.Errorf("found %d duplicates but only %d YELLOW decisions", stats.Duplicates, stats.Yellow)
	}

	logger.Get().Info(ctx, "verification passed",
		logger.Int("decided", decided),
		logger.Int("duplicates", stats.Duplicates))
	return nil
}
