// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers an optional YAML file and ASCENT_* env vars on top.
// - Keys are flat snake_case so env overrides map one-to-one onto koanf tags.
// - External errors must be wrapped via this package's sentinels.
package config

import (
	"runtime"

	"github.com/grimpeur/ascent/internal/domain/detect"
)

// CategoryThreshold mirrors one row of the category table for overrides
// from file or environment.
type CategoryThreshold struct {
	Name     string  `koanf:"name"`
	MinGainM float64 `koanf:"min_gain_m"`
	MinScore float64 `koanf:"min_score"`
}

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory analysis job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the upload deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxUploadBytes caps the size of one GPX upload.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// MaxListLimit caps GET /routes?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// StoreCapacity bounds the number of retained analyses; the oldest
	// are evicted beyond it.
	StoreCapacity int `koanf:"store_capacity"`

	// Detection thresholds, applied when an upload carries no overrides.
	MinGradientPct    float64 `koanf:"min_gradient_pct"`
	MinElevationGainM float64 `koanf:"min_elevation_gain_m"`
	BreakGradientPct  float64 `koanf:"break_gradient_pct"`
	SmoothingWindow   int     `koanf:"smoothing_window"`
	MergeGapM         float64 `koanf:"merge_gap_m"`

	// Categories overrides the category table. Empty keeps the standard
	// HC/1/2/3/4 table.
	Categories []CategoryThreshold `koanf:"categories"`

	// Strava integration. Disabled unless both client credentials are set.
	StravaClientID     string  `koanf:"strava_client_id"`
	StravaClientSecret string  `koanf:"strava_client_secret"`
	StravaRedirectURL  string  `koanf:"strava_redirect_url"`
	SegmentCacheDB     string  `koanf:"segment_cache_db"`
	SampleIntervalM    float64 `koanf:"sample_interval_m"`
	ExploreRadiusM     float64 `koanf:"explore_radius_m"`
	OverlapThreshold   float64 `koanf:"overlap_threshold"`
	StravaPauseMS      int     `koanf:"strava_pause_ms"`
}

// New creates a Config with defaults.
func New() *Config {
	d := detect.DefaultConfig()
	return &Config{
		LogLevel:          "info",
		Addr:              ":8080",
		QueueSize:         10_000,
		WorkerCount:       runtime.NumCPU(),
		DedupeSize:        100_000,
		MaxUploadBytes:    8 << 20,
		MaxListLimit:      100,
		StoreCapacity:     10_000,
		MinGradientPct:    d.MinGradientPct,
		MinElevationGainM: d.MinElevationGainM,
		BreakGradientPct:  d.BreakGradientPct,
		SmoothingWindow:   d.SmoothingWindow,
		MergeGapM:         d.MergeGapM,
		SegmentCacheDB:    "segments_cache.db",
		SampleIntervalM:   500,
		ExploreRadiusM:    150,
		OverlapThreshold:  0.6,
		StravaPauseMS:     250,
	}
}

// Detection builds the detection config these service defaults describe.
func (c *Config) Detection() detect.Config {
	dc := detect.Config{
		MinGradientPct:    c.MinGradientPct,
		MinElevationGainM: c.MinElevationGainM,
		BreakGradientPct:  c.BreakGradientPct,
		SmoothingWindow:   c.SmoothingWindow,
		MergeGapM:         c.MergeGapM,
	}
	if len(c.Categories) > 0 {
		dc.Categories = make([]detect.CategoryThreshold, len(c.Categories))
		for i, cat := range c.Categories {
			dc.Categories[i] = detect.CategoryThreshold{
				Name:     cat.Name,
				MinGainM: cat.MinGainM,
				MinScore: cat.MinScore,
			}
		}
	}
	return dc
}

// StravaEnabled reports whether the Strava adapter can be wired.
func (c *Config) StravaEnabled() bool {
	return c.StravaClientID != "" && c.StravaClientSecret != ""
}
