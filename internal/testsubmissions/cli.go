package testsubmissions

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/guardian/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "test_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the test submissions tool.
func ShowHelp() {
	os.Stdout.WriteString(`Guardian Submission Test Tool
=============================

A concurrent tool for exercising the moderation pipeline end to end.

Usage:
  go run cmd/test-submissions/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -submissions int
        Number of submissions to generate and classify (default 1000)
  -duplicates float
        Fraction of submissions that are near-duplicates (default 0.1)
  -reviews int
        Number of pending reviews to resolve with verdicts (default 20)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/test-submissions/main.go

  # Heavier duplicate load against a remote instance
  go run cmd/test-submissions/main.go -submissions 5000 -duplicates 0.3 -url http://localhost:8080
`)
}
