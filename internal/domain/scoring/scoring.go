// Package scoring summarizes the gradient makeup of an analyzed route:
// mean and spread of the per-step gradients, total ascent and descent,
// and the steepest kilometer. The per-climb difficulty score itself is
// part of detection; this package scores the route as a whole.
package scoring

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/grimpeur/ascent/internal/domain/model"
)

// Default summarizer configuration constants.
const (
	defaultSteepestWindowM = 1000.0
)

// Option applies a configuration option to the Summarizer.
type Option func(*Summarizer)

// WithSteepestWindow sets the window length used for the steepest-stretch
// search. Values <= 0 keep the default of one kilometer.
func WithSteepestWindow(meters float64) Option {
	return func(s *Summarizer) {
		if meters > 0 {
			s.steepestWindowM = meters
		}
	}
}

// Summarizer computes ProfileStats from a profile and its smoothed
// elevation series.
type Summarizer struct {
	steepestWindowM float64
}

// NewSummarizer creates a summarizer with configuration options.
func NewSummarizer(opts ...Option) *Summarizer {
	s := &Summarizer{
		steepestWindowM: defaultSteepestWindowM,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Summarize derives route-level statistics. The smoothed series must be
// parallel to points; zero-length steps contribute nothing. A profile
// with fewer than two points yields zero stats.
func (s *Summarizer) Summarize(points []model.TrackPoint, smoothed []float64) model.ProfileStats {
	if len(points) < 2 || len(smoothed) != len(points) {
		return model.ProfileStats{}
	}

	grads := make([]float64, 0, len(points)-1)
	weights := make([]float64, 0, len(points)-1)
	var ascent, descent, maxGrad float64

	for i := 0; i < len(points)-1; i++ {
		step := points[i+1].DistanceM - points[i].DistanceM
		if step == 0 {
			continue
		}
		rise := smoothed[i+1] - smoothed[i]
		g := 100 * rise / step
		grads = append(grads, g)
		weights = append(weights, step)
		if rise > 0 {
			ascent += rise
		} else {
			descent -= rise
		}
		if g > maxGrad {
			maxGrad = g
		}
	}
	if len(grads) == 0 {
		return model.ProfileStats{}
	}

	// Distance-weighted moments so dense point clusters do not dominate.
	mean := stat.Mean(grads, weights)
	stddev := stat.StdDev(grads, weights)

	startM, avgPct := s.steepestStretch(points, smoothed)

	return model.ProfileStats{
		MeanGradientPct:   mean,
		StdDevGradientPct: stddev,
		MaxGradientPct:    maxGrad,
		TotalAscentM:      ascent,
		TotalDescentM:     descent,
		SteepestKmStartM:  startM,
		SteepestKmAvgPct:  avgPct,
	}
}

// steepestStretch slides a fixed-length distance window over the profile
// and returns the start of the window with the highest average gradient.
// Routes shorter than the window are treated as a single window.
func (s *Summarizer) steepestStretch(points []model.TrackPoint, smoothed []float64) (startM, avgPct float64) {
	total := points[len(points)-1].DistanceM - points[0].DistanceM
	if total <= 0 {
		return 0, 0
	}
	window := s.steepestWindowM
	if total <= window {
		gain := smoothed[len(smoothed)-1] - smoothed[0]
		return points[0].DistanceM, 100 * gain / total
	}

	// A downhill route's steepest window is still a real answer, so the
	// search starts from negative infinity rather than any finite floor.
	best := math.Inf(-1)
	bestStart := points[0].DistanceM
	found := false
	j := 0
	for i := range points {
		// Advance j until the window from i spans at least window meters.
		for j < len(points)-1 && points[j].DistanceM-points[i].DistanceM < window {
			j++
		}
		span := points[j].DistanceM - points[i].DistanceM
		if span < window {
			break
		}
		g := 100 * (smoothed[j] - smoothed[i]) / span
		if g > best {
			best = g
			bestStart = points[i].DistanceM
			found = true
		}
	}
	if !found {
		return points[0].DistanceM, 0
	}
	return bestStart, best
}
