package testsubmissions

import "time"

// Test tool constants.
const (
	StatusOK             = 200
	PercentageMultiplier = 100.0
	ProcessingDelay      = 2 * time.Second
)
