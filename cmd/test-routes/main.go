package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/grimpeur/ascent/internal/testroutes"
)

// Default configuration constants.
const (
	defaultNumRoutes   = 100
	defaultTopN        = 20
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:8080", "Base URL of the service")
		numRoutes = flag.Int("routes", defaultNumRoutes, "Number of routes to generate and submit")
		topN      = flag.Int("top", defaultTopN, "Number of ranking entries to fetch")
		workers   = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputDir = flag.String("output", "", "Directory for generated GPX files (default: keep in memory)")
		logFile   = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testroutes.ShowHelp()
		return
	}

	// Setup logging
	if err := testroutes.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &testroutes.Config{
		BaseURL:   *baseURL,
		NumRoutes: *numRoutes,
		TopN:      *topN,
		Workers:   *workers,
		Timeout:   *timeout,
		OutputDir: *outputDir,
		LogFile:   *logFile,
		Verbose:   *verbose,
	}

	// Run the test
	if err := testroutes.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
