// Package worker defines worker contracts for asynchronous route analysis.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/grimpeur/ascent/internal/adapters/mq/queue"
	"github.com/grimpeur/ascent/internal/domain/detect"
	"github.com/grimpeur/ascent/internal/domain/job"
	"github.com/grimpeur/ascent/internal/domain/model"
	"github.com/grimpeur/ascent/pkg/logger"
	"github.com/grimpeur/ascent/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Job abstracts what workers read off the queue.
// Using the job.AnalysisJob type for consistency.
type Job = job.AnalysisJob

// Parser turns raw GPX bytes into route data.
type Parser interface {
	Parse(ctx context.Context, data []byte) (model.RouteData, error)
}

// Detector runs climb detection over an elevation profile.
type Detector interface {
	Detect(profile []model.TrackPoint, cfg detect.Config) (detect.Result, error)
}

// Summarizer computes route-level statistics.
type Summarizer interface {
	Summarize(points []model.TrackPoint, smoothed []float64) model.ProfileStats
}

// Sink stores completed analyses.
type Sink interface {
	Put(ctx context.Context, a model.Analysis) error
}

// Worker processes analysis jobs using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining jobs before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing analysis jobs.
type InMemoryWorker struct {
	queue      queue.Queue
	parser     Parser
	detector   Detector
	summarizer Summarizer
	sink       Sink
	name       string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Shared busy-worker gauge, owned by the pool
	active *atomic.Int64

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q queue.Queue, parser Parser, detector Detector, summarizer Summarizer, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		parser:     parser,
		detector:   detector,
		summarizer: summarizer,
		sink:       sink,
		name:       "worker", // default name
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing analysis job",
					logger.String("route_id", job.RouteID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob runs one job through parse, detect, summarize, and store.
// Panics inside the pipeline fail the job without killing the worker.
func (w *InMemoryWorker) processJob(ctx context.Context, job Job) (err error) {
	start := time.Now()
	if w.active != nil {
		metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	}
	defer func() {
		if w.active != nil {
			metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
		}
		metrics.RecordWorkerLatency(float64(time.Since(start).Milliseconds()))
		if r := recover(); r != nil {
			metrics.RecordWorkerError()
			err = fmt.Errorf("panic processing route %s: %v", job.RouteID, r)
		}
	}()

	data, err := w.parser.Parse(ctx, job.GPX)
	if err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("parse route %s: %w", job.RouteID, err)
	}

	detectStart := time.Now()
	result, err := w.detector.Detect(data.Points, job.Detection)
	metrics.RecordDetectionLatency(float64(time.Since(detectStart).Milliseconds()))
	if err != nil {
		metrics.RecordDetectionError()
		metrics.RecordWorkerError()
		return fmt.Errorf("detect climbs for route %s: %w", job.RouteID, err)
	}

	name := job.Name
	if name == "" {
		name = data.Name
	}
	analysis := model.Analysis{
		Route: model.Route{
			ID:             job.RouteID,
			Name:           name,
			UploadedAt:     job.SubmittedAt,
			PointCount:     len(data.Points),
			TotalDistanceM: data.Points[len(data.Points)-1].DistanceM,
		},
		Points:             data.Points,
		Coords:             data.Coords,
		SmoothedElevationM: result.SmoothedElevationM,
		Climbs:             result.Climbs,
		Stats:              w.summarizer.Summarize(data.Points, result.SmoothedElevationM),
	}
	analysis.Route.TotalAscentM = analysis.Stats.TotalAscentM

	if err := w.sink.Put(ctx, analysis); err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("store analysis for route %s: %w", job.RouteID, err)
	}

	metrics.RecordRouteAnalyzed()
	for _, c := range analysis.Climbs {
		metrics.RecordClimbDetected(c.Category)
	}

	w.logger.Debug(ctx, "route analyzed",
		logger.String("route_id", job.RouteID),
		logger.Int("points", len(data.Points)),
		logger.Int("climbs", len(analysis.Climbs)),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers    []*InMemoryWorker
	queue      queue.Queue
	parser     Parser
	detector   Detector
	summarizer Summarizer
	sink       Sink

	// Busy-worker gauge shared by all workers
	active atomic.Int64

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q queue.Queue, parser Parser, detector Detector, summarizer Summarizer, sink Sink) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:    make([]*InMemoryWorker, workerCount),
		queue:      q,
		parser:     parser,
		detector:   detector,
		summarizer: summarizer,
		sink:       sink,
		logger:     logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(
			q,
			parser,
			detector,
			summarizer,
			sink,
			WithName("worker-"+strconv.Itoa(i)),
		)
		w.active = &pool.active
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop halts the workers immediately, abandoning anything still queued.
// Use Shutdown to drain the queue first; call one or the other, not both.
func (p *Pool) Stop() {
	for _, worker := range p.workers {
		close(worker.shutdown)
	}

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-time.After(workerShutdownTimeout):
			p.logger.Warn(context.Background(), "worker stop timed out", logger.Int("worker_id", i))
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool, draining the
// queue first.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new jobs
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
