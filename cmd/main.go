package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/grimpeur/ascent/internal/adapters/http/api"
	"github.com/grimpeur/ascent/internal/adapters/http/site"
	"github.com/grimpeur/ascent/internal/adapters/http/swagger"
	"github.com/grimpeur/ascent/internal/adapters/render"
	"github.com/grimpeur/ascent/internal/adapters/strava"
	app "github.com/grimpeur/ascent/internal/app"
	"github.com/grimpeur/ascent/internal/config"
	"github.com/grimpeur/ascent/pkg/logger"
	"github.com/grimpeur/ascent/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 30 * time.Second
	writeTimeout          = 30 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Disable default Go metrics collection; the system metrics updater
	// publishes its own gauges.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to flush logs: " + err.Error() + "\n")
		}
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithStoreCapacity(cfg.StoreCapacity),
		app.WithDetectionConfig(cfg.Detection()),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop(context.Background())

	go startSystemMetricsUpdater(ctx)

	serverOpts := []api.ServerOption{
		api.WithMaxUploadBytes(cfg.MaxUploadBytes),
		api.WithMaxListLimit(cfg.MaxListLimit),
		api.WithRenderer(render.NewRenderer()),
	}
	if opt, cleanup := stravaOption(ctx, cfg, log); opt != nil {
		serverOpts = append(serverOpts, opt)
		defer cleanup()
	}

	// HTTP mux and routes.
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)
	api.NewServer(svc, svc, serverOpts...).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.JSONErrors(mux),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// stravaOption wires the Strava adapter when credentials are configured.
// The returned cleanup closes the segment cache.
func stravaOption(ctx context.Context, cfg *config.Config, log logger.Logger) (api.ServerOption, func()) {
	if !cfg.StravaEnabled() {
		log.Info(ctx, "strava integration disabled; no client credentials")
		return nil, nil
	}

	cache, err := strava.OpenCache(cfg.SegmentCacheDB)
	if err != nil {
		log.Warn(ctx, "segment cache unavailable; continuing without it",
			logger.String("path", cfg.SegmentCacheDB), logger.Error(err))
		cache = nil
	}

	opts := []strava.Option{strava.WithLogger(log)}
	if cache != nil {
		opts = append(opts, strava.WithCache(cache))
	}
	client, err := strava.NewClient(strava.Config{
		ClientID:          cfg.StravaClientID,
		ClientSecret:      cfg.StravaClientSecret,
		RedirectURL:       cfg.StravaRedirectURL,
		SampleIntervalM:   cfg.SampleIntervalM,
		ExploreRadiusM:    cfg.ExploreRadiusM,
		OverlapThreshold:  cfg.OverlapThreshold,
		PauseBetweenCalls: time.Duration(cfg.StravaPauseMS) * time.Millisecond,
	}, opts...)
	if err != nil {
		log.Warn(ctx, "strava client unavailable", logger.Error(err))
		if cache != nil {
			_ = cache.Close()
		}
		return nil, nil
	}

	log.Info(ctx, "strava integration enabled")
	cleanup := func() {
		if cache != nil {
			_ = cache.Close()
		}
	}
	return api.WithStrava(client, strava.NewSessionStore()), cleanup
}

// startSystemMetricsUpdater publishes memory and goroutine gauges.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}
