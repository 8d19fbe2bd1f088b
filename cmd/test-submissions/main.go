package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/guardian/internal/testsubmissions"
	"github.com/okian/guardian/pkg/logger"
)

func main() {
	var (
		baseURL        = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numSubmissions = flag.Int("submissions", 1000, "Number of submissions to generate and classify")
		duplicateRatio = flag.Float64("duplicates", 0.1, "Fraction of submissions that are near-duplicates")
		reviewSample   = flag.Int("reviews", 20, "Number of pending reviews to resolve with verdicts")
		workers        = flag.Int("workers", runtime.NumCPU()*2, "Number of concurrent workers")
		timeout        = flag.Duration("timeout", 30*time.Second, "HTTP request timeout")
		logFile        = flag.String("log", "", "Log file for test output")
		verbose        = flag.Bool("verbose", false, "Enable verbose logging")
		help           = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		testsubmissions.ShowHelp()
		return
	}

	if err := testsubmissions.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("failed to set up logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config := &testsubmissions.Config{
		BaseURL:        *baseURL,
		NumSubmissions: *numSubmissions,
		DuplicateRatio: *duplicateRatio,
		ReviewSample:   *reviewSample,
		Workers:        *workers,
		Timeout:        *timeout,
		LogFile:        *logFile,
		Verbose:        *verbose,
	}

	if err := testsubmissions.Run(ctx, config); err != nil {
		logger.Get().Error(ctx, "test failed", logger.Error(err))
		os.Exit(1)
	}
}
