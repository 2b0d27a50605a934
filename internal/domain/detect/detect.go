// Package detect turns an elevation/distance profile into a list of
// categorized climbs. The pipeline is linear: smooth the elevations,
// derive per-step gradients, segment with a two-threshold state machine,
// merge candidates across short gaps, drop the ones below the admission
// thresholds, then score and categorize what remains.
//
// Detection is pure: no I/O, no logging, no shared state. Concurrent
// calls with independent inputs are safe.
package detect

import (
	"fmt"

	"github.com/grimpeur/ascent/internal/domain/model"
)

// Result is what detection hands back across the boundary: the climbs and
// the smoothed elevation series for plotting.
type Result struct {
	Climbs             []model.Climb
	SmoothedElevationM []float64
}

// Detect runs the full pipeline on profile. It fails fast with
// ErrInvalidConfig or ErrInvalidInput and never returns partial results.
// A profile without qualifying climbs yields an empty climb list.
func Detect(profile []model.TrackPoint, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if err := validateProfile(profile); err != nil {
		return Result{}, err
	}

	smoothed := smooth(profile, cfg.SmoothingWindow)
	samples := gradients(profile, smoothed)
	segments := segmentClimbs(samples, cfg)
	segments = mergeSegments(segments, profile, cfg.MergeGapM)

	climbs := make([]model.Climb, 0, len(segments))
	for _, seg := range segments {
		c := buildClimb(seg, profile, smoothed, samples)
		if c.ElevationGainM < cfg.MinElevationGainM || c.AvgGradientPct < cfg.MinGradientPct {
			continue
		}
		c.DifficultyScore = c.ElevationGainM * c.AvgGradientPct
		c.Category = categorize(c.ElevationGainM, c.DifficultyScore, cfg.categories())
		climbs = append(climbs, c)
	}

	return Result{Climbs: climbs, SmoothedElevationM: smoothed}, nil
}

// validateProfile rejects profiles detection cannot run on.
func validateProfile(profile []model.TrackPoint) error {
	if len(profile) < 2 {
		return fmt.Errorf("%w: need at least 2 points, got %d", ErrInvalidInput, len(profile))
	}
	for i, p := range profile {
		if p.DistanceM < 0 {
			return fmt.Errorf("%w: negative distance %g at point %d", ErrInvalidInput, p.DistanceM, i)
		}
		if i > 0 && p.DistanceM < profile[i-1].DistanceM {
			return fmt.Errorf("%w: distance decreases from %g to %g at point %d",
				ErrInvalidInput, profile[i-1].DistanceM, p.DistanceM, i)
		}
	}
	return nil
}

// smooth applies a centered moving average of the given odd window to the
// elevations. At the edges the window shrinks symmetrically so no phantom
// values enter the average. Window 1 copies the input.
func smooth(profile []model.TrackPoint, window int) []float64 {
	n := len(profile)
	out := make([]float64, n)
	if window <= 1 {
		for i, p := range profile {
			out[i] = p.ElevationM
		}
		return out
	}

	half := window / 2
	for i := range profile {
		h := half
		if i < h {
			h = i
		}
		if n-1-i < h {
			h = n - 1 - i
		}
		var sum float64
		for j := i - h; j <= i+h; j++ {
			sum += profile[j].ElevationM
		}
		out[i] = sum / float64(2*h+1)
	}
	return out
}

// gradientSample is the rise over one profile step, as a percentage.
// Zero-length steps carry no distance and are skipped entirely.
type gradientSample struct {
	from        int // index of the step's first point
	to          int // index of the step's second point
	stepM       float64
	gradientPct float64
}

// gradients derives one sample per consecutive pair of points with a
// nonzero step, using the smoothed elevations.
func gradients(profile []model.TrackPoint, elev []float64) []gradientSample {
	samples := make([]gradientSample, 0, len(profile)-1)
	for i := 0; i < len(profile)-1; i++ {
		step := profile[i+1].DistanceM - profile[i].DistanceM
		if step == 0 {
			continue
		}
		samples = append(samples, gradientSample{
			from:        i,
			to:          i + 1,
			stepM:       step,
			gradientPct: 100 * (elev[i+1] - elev[i]) / step,
		})
	}
	return samples
}

// segState is the segmenter's state.
type segState int

const (
	stateFlat segState = iota
	stateClimbing
)

// segment is a candidate climb as a pair of profile indices.
type segment struct {
	start int
	end   int
}

// segmentClimbs walks the gradient series with two thresholds: a sample at
// or above MinGradientPct opens a segment, and the segment stays open while
// samples hold at or above BreakGradientPct. A drop below the continuation
// threshold closes the segment at the point where the drop occurs. A
// segment still open at the end of the series closes at the last point.
func segmentClimbs(samples []gradientSample, cfg Config) []segment {
	var segments []segment
	state := stateFlat
	start := 0

	for _, s := range samples {
		switch state {
		case stateFlat:
			if s.gradientPct >= cfg.MinGradientPct {
				state = stateClimbing
				start = s.from
			}
		case stateClimbing:
			if s.gradientPct < cfg.BreakGradientPct {
				segments = append(segments, segment{start: start, end: s.from})
				state = stateFlat
			}
		}
	}

	if state == stateClimbing {
		segments = append(segments, segment{start: start, end: samples[len(samples)-1].to})
	}
	return segments
}

// mergeSegments joins consecutive candidates whose along-track gap is at
// most gapM. Joining is transitive: a chain of close candidates collapses
// into one span.
func mergeSegments(segments []segment, profile []model.TrackPoint, gapM float64) []segment {
	if len(segments) < 2 {
		return segments
	}
	merged := make([]segment, 0, len(segments))
	cur := segments[0]
	for _, next := range segments[1:] {
		gap := profile[next.start].DistanceM - profile[cur.end].DistanceM
		if gap <= gapM {
			cur.end = next.end
			continue
		}
		merged = append(merged, cur)
		cur = next
	}
	return append(merged, cur)
}

// buildClimb computes the span quantities of one merged segment. Gain is
// end minus start elevation of the whole span, not the sum of the parts,
// so dips inside the span are not double counted. The max gradient comes
// from the pre-merge sample series restricted to the span.
func buildClimb(seg segment, profile []model.TrackPoint, elev []float64, samples []gradientSample) model.Climb {
	startDist := profile[seg.start].DistanceM
	endDist := profile[seg.end].DistanceM
	length := endDist - startDist
	gain := elev[seg.end] - elev[seg.start]

	var maxGrad float64
	for _, s := range samples {
		if s.from < seg.start || s.to > seg.end {
			continue
		}
		if s.gradientPct > maxGrad {
			maxGrad = s.gradientPct
		}
	}

	return model.Climb{
		StartDistanceM:  startDist,
		EndDistanceM:    endDist,
		StartElevationM: elev[seg.start],
		EndElevationM:   elev[seg.end],
		LengthM:         length,
		ElevationGainM:  gain,
		AvgGradientPct:  100 * gain / length,
		MaxGradientPct:  maxGrad,
	}
}

// categorize walks the table hardest tier first; either threshold alone
// earns the tier. The final row is the catch-all.
func categorize(gainM, score float64, table []CategoryThreshold) string {
	for _, t := range table[:len(table)-1] {
		if gainM > t.MinGainM || score > t.MinScore {
			return t.Name
		}
	}
	return table[len(table)-1].Name
}
