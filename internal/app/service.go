// Package service wires the analysis pipeline together and implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/grimpeur/ascent/internal/adapters/gpx"
	jobqueue "github.com/grimpeur/ascent/internal/adapters/mq/queue"
	"github.com/grimpeur/ascent/internal/adapters/mq/worker"
	"github.com/grimpeur/ascent/internal/adapters/repository"
	"github.com/grimpeur/ascent/internal/domain/dedupe"
	"github.com/grimpeur/ascent/internal/domain/detect"
	"github.com/grimpeur/ascent/internal/domain/job"
	"github.com/grimpeur/ascent/internal/domain/model"
	"github.com/grimpeur/ascent/internal/domain/scoring"
	"github.com/grimpeur/ascent/internal/domain/types"
	"github.com/grimpeur/ascent/pkg/logger"
	"github.com/grimpeur/ascent/pkg/metrics"
)

// detectorAdapter adapts the detect package's entry point to worker.Detector.
type detectorAdapter struct{}

func (detectorAdapter) Detect(profile []model.TrackPoint, cfg detect.Config) (detect.Result, error) {
	return detect.Detect(profile, cfg)
}

// Service implements the API dependencies for the route analysis system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	deduper  dedupe.Deduper
	jobQueue jobqueue.Queue
	parser   *gpx.Parser
	pool     *worker.Pool

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	storeCapacity int
	detection     detect.Config

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of analysis workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the analysis job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the upload deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithStoreCapacity bounds the number of retained analyses.
func WithStoreCapacity(capacity int) Option {
	return func(s *Service) {
		if capacity > 0 {
			s.storeCapacity = capacity
		}
	}
}

// WithDetectionConfig sets the detection baseline applied to uploads
// that carry no overrides.
func WithDetectionConfig(cfg detect.Config) Option {
	return func(s *Service) {
		s.detection = cfg
	}
}

// WithStore replaces the default treap store, mainly for tests.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU() * 2,
		queueSize:     10_000,
		dedupeSize:    100_000,
		storeCapacity: 10_000,
		detection:     detect.DefaultConfig(),
		logger:        nil, // resolved on Start
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the pipeline components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting route analysis service...")

	if s.store == nil {
		s.store = repository.NewTreapStore(ctx,
			repository.WithCapacity(s.storeCapacity),
		)
		s.logger.Info(ctx, "using treap store")
	}
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
		jobqueue.WithBufferSize(s.queueSize),
	)
	s.parser = gpx.NewParser()

	s.pool = worker.NewPool(s.workerCount, s.jobQueue,
		s.parser, detectorAdapter{}, scoring.NewSummarizer(), s.store)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "route analysis service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service, draining queued jobs.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(ctx, "stopping route analysis service...")

	// Shutdown closes the queue and drains what is left
	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
		}
	}

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(ctx, "route analysis service stopped")
}

// SeenAndRecord atomically checks whether a GPX fingerprint was seen and
// records it if not. Returns true if the fingerprint was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, fp string) bool {
	return s.deduper.SeenAndRecord(ctx, fp)
}

// Unrecord removes a fingerprint from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, fp string) {
	s.deduper.Unrecord(ctx, fp)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits an analysis job for asynchronous processing.
// Returns false when the queue rejects the job.
func (s *Service) Enqueue(ctx context.Context, j job.AnalysisJob) bool {
	if j.SubmittedAt.IsZero() {
		j.SubmittedAt = time.Now().UTC()
	}
	ok := s.jobQueue.Enqueue(ctx, j)
	if !ok {
		s.logger.Warn(ctx, "queue rejected analysis job",
			logger.String("routeID", j.RouteID),
			logger.Int("queueLength", s.jobQueue.Len(ctx)),
		)
	}
	return ok
}

// CheckGPX validates uploaded bytes before they are queued. The returned
// error carries the gpx package's sentinels.
func (s *Service) CheckGPX(ctx context.Context, data []byte) error {
	_, err := s.parser.Parse(ctx, data)
	return err
}

// DetectionDefaults returns the configured detection baseline.
func (s *Service) DetectionDefaults() detect.Config {
	return s.detection
}

// List returns up to limit analyses, newest upload first.
func (s *Service) List(ctx context.Context, limit int) ([]model.Analysis, error) {
	return s.store.List(ctx, limit)
}

// Get returns the analysis for a route ID.
func (s *Service) Get(ctx context.Context, id string) (model.Analysis, error) {
	return s.store.Get(ctx, id)
}

// TopN returns the n hardest routes by total difficulty score.
func (s *Service) TopN(ctx context.Context, n int) ([]types.RankedRoute, error) {
	entries, err := s.store.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	ranked := make([]types.RankedRoute, len(entries))
	for i, entry := range entries {
		ranked[i] = types.RankedRoute{
			Rank:       entry.Rank,
			RouteID:    entry.RouteID,
			Name:       entry.Name,
			ClimbCount: entry.ClimbCount,
			TotalScore: entry.TotalScore,
		}
	}

	return ranked, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		routesStored := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["routesStored"] = routesStored
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateRoutesStored(routesStored)
	}

	return stats
}
