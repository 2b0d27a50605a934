package detect

import (
	"fmt"
)

// Default detection thresholds.
const (
	defaultMinGradientPct   = 3.0
	defaultMinElevationGain = 20.0
	defaultBreakGradientPct = 0.0
	defaultSmoothingWindow  = 5
	defaultMergeGapM        = 200.0
)

// CategoryThreshold is one row of the category table. A climb earns the
// category when its gain or its score strictly exceeds the row's threshold.
type CategoryThreshold struct {
	Name     string
	MinGainM float64
	MinScore float64
}

// Config carries the tunables for one detection run. Zero value is not
// usable; start from DefaultConfig.
type Config struct {
	// MinGradientPct is the entry threshold: a gradient sample at or above
	// it starts a candidate segment. Also the admission floor for the
	// average gradient of a finished climb.
	MinGradientPct float64

	// MinElevationGainM is the admission floor for total gain.
	MinElevationGainM float64

	// BreakGradientPct is the continuation threshold: an in-progress
	// segment survives while samples stay at or above it. Must be lower
	// than MinGradientPct.
	BreakGradientPct float64

	// SmoothingWindow is the centered moving-average width applied to
	// elevations before gradient computation. Must be a positive odd
	// integer; 1 disables smoothing.
	SmoothingWindow int

	// MergeGapM is the largest flat gap between two candidate segments
	// that still joins them into one climb.
	MergeGapM float64

	// Categories is the ordered category table, hardest tier first. The
	// final row is the catch-all for every admitted climb. Empty means
	// DefaultCategories.
	Categories []CategoryThreshold
}

// DefaultConfig returns the standard detection tunables.
func DefaultConfig() Config {
	return Config{
		MinGradientPct:    defaultMinGradientPct,
		MinElevationGainM: defaultMinElevationGain,
		BreakGradientPct:  defaultBreakGradientPct,
		SmoothingWindow:   defaultSmoothingWindow,
		MergeGapM:         defaultMergeGapM,
		Categories:        DefaultCategories(),
	}
}

// DefaultCategories returns the standard table. Thresholds follow the
// usual race classifications; the final row admits everything else.
func DefaultCategories() []CategoryThreshold {
	return []CategoryThreshold{
		{Name: "HC", MinGainM: 1200, MinScore: 8000},
		{Name: "1", MinGainM: 800, MinScore: 5000},
		{Name: "2", MinGainM: 500, MinScore: 3000},
		{Name: "3", MinGainM: 300, MinScore: 1500},
		{Name: "4", MinGainM: 0, MinScore: 0},
	}
}

// Validate reports whether the configuration can drive a detection run.
// All failures wrap ErrInvalidConfig.
func (c Config) Validate() error {
	if c.MinGradientPct < 0 {
		return fmt.Errorf("%w: min_gradient_pct must not be negative, got %g", ErrInvalidConfig, c.MinGradientPct)
	}
	if c.MinElevationGainM < 0 {
		return fmt.Errorf("%w: min_elevation_gain_m must not be negative, got %g", ErrInvalidConfig, c.MinElevationGainM)
	}
	if c.BreakGradientPct < 0 {
		return fmt.Errorf("%w: break_gradient_pct must not be negative, got %g", ErrInvalidConfig, c.BreakGradientPct)
	}
	if c.MergeGapM < 0 {
		return fmt.Errorf("%w: merge_gap_m must not be negative, got %g", ErrInvalidConfig, c.MergeGapM)
	}
	if c.BreakGradientPct >= c.MinGradientPct {
		return fmt.Errorf("%w: break_gradient_pct %g must be below min_gradient_pct %g",
			ErrInvalidConfig, c.BreakGradientPct, c.MinGradientPct)
	}
	if c.SmoothingWindow < 1 {
		return fmt.Errorf("%w: smoothing_window must be positive, got %d", ErrInvalidConfig, c.SmoothingWindow)
	}
	if c.SmoothingWindow%2 == 0 {
		return fmt.Errorf("%w: smoothing_window must be odd, got %d", ErrInvalidConfig, c.SmoothingWindow)
	}
	return c.validateCategories()
}

func (c Config) validateCategories() error {
	cats := c.Categories
	if len(cats) == 0 {
		return nil // DefaultCategories applies
	}
	for i, cat := range cats {
		if cat.Name == "" {
			return fmt.Errorf("%w: category %d has no name", ErrInvalidConfig, i)
		}
		if cat.MinGainM < 0 || cat.MinScore < 0 {
			return fmt.Errorf("%w: category %q has a negative threshold", ErrInvalidConfig, cat.Name)
		}
		if i == 0 {
			continue
		}
		prev := cats[i-1]
		if cat.MinGainM >= prev.MinGainM || cat.MinScore >= prev.MinScore {
			return fmt.Errorf("%w: category table must descend strictly, %q does not sit below %q",
				ErrInvalidConfig, cat.Name, prev.Name)
		}
	}
	last := cats[len(cats)-1]
	if last.MinGainM != 0 || last.MinScore != 0 {
		return fmt.Errorf("%w: final category %q must be the catch-all with zero thresholds",
			ErrInvalidConfig, last.Name)
	}
	return nil
}

// categories returns the effective table.
func (c Config) categories() []CategoryThreshold {
	if len(c.Categories) == 0 {
		return DefaultCategories()
	}
	return c.Categories
}
