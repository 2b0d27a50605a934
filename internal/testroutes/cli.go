package testroutes

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/grimpeur/ascent/pkg/logger"
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

// ShowHelp prints usage information for the route test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Ascent Route Test Tool
======================

A concurrent tool for exercising the Ascent climb detection pipeline with
synthetic GPX routes of known shape.

Usage:
  go run cmd/test-routes/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -routes int
        Number of routes to generate and submit (default 100)
  -top int
        Number of ranking entries to fetch (default 20)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Directory for generated GPX files (default: none, keep in memory)
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/test-routes/main.go

  # Heavier run against a remote instance
  go run cmd/test-routes/main.go -routes 1000 -workers 16 -url http://ascent:8080

  # Keep the generated GPX files for inspection
  go run cmd/test-routes/main.go -routes 50 -output ./gpx-out
`)
}
