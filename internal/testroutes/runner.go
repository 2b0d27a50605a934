package testroutes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/grimpeur/ascent/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	gpxFilePermission   = 0600
)

// Run executes the complete route test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting ascent route test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("routes", config.NumRoutes),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate routes
	routes, err := generateRoutes(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("route generation failed: %w", err)
	}

	// Step 3: Submit routes concurrently
	if err := submitRoutes(ctx, config, routes, stats); err != nil {
		return fmt.Errorf("route submission failed: %w", err)
	}

	// Step 4: Poll analyses and compare against expectations
	verifyErr := verifyAnalyses(ctx, config, routes, stats)

	// Step 5: Get the difficulty ranking
	ranking, err := getRanking(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("ranking retrieval failed: %w", err)
	}

	// Step 6: Verify the ranking
	if err := verifyRanking(ctx, routes, ranking); err != nil {
		return fmt.Errorf("ranking verification failed: %w", err)
	}

	// Step 7: Save generated GPX files when requested
	if config.OutputDir != "" {
		if err := saveRoutesToDir(ctx, config, routes); err != nil {
			logger.Get().Warn(ctx, "failed to save gpx files", logger.Error(err))
		}
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	if verifyErr != nil {
		return verifyErr
	}
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

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveRoutesToDir writes every generated GPX document into the output dir.
func saveRoutesToDir(ctx context.Context, config *Config, routes []RouteCase) error {
	if err := os.MkdirAll(config.OutputDir, directoryPermission); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	for _, rc := range routes {
		path := filepath.Join(config.OutputDir, rc.Name+".gpx")
		if err := os.WriteFile(path, rc.GPX, gpxFilePermission); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	logger.Get().Info(ctx, "gpx files saved",
		logger.String("dir", config.OutputDir),
		logger.Int("count", len(routes)))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var acceptRate, routesPerSecond float64

	if stats.RoutesSubmitted > 0 {
		acceptRate = float64(stats.RoutesAccepted) / float64(stats.RoutesSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		routesPerSecond = float64(stats.RoutesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("routesGenerated", stats.RoutesGenerated),
		logger.Int("routesSubmitted", stats.RoutesSubmitted),
		logger.Int("routesAccepted", stats.RoutesAccepted),
		logger.Int("routesDuplicate", stats.RoutesDuplicate),
		logger.Int("routesFailed", stats.RoutesFailed),
		logger.Int("analysesRetrieved", stats.AnalysesRetrieved),
		logger.Int("expectationsFailed", stats.ExpectationsFailed),
		logger.Int("rankingEntries", stats.RankingEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("routesPerSecond", routesPerSecond))
}
