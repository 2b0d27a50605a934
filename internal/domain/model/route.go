// Package model contains domain models passed between layers.
package model

import "time"

// TrackPoint is one sample of an elevation profile.
type TrackPoint struct {
	DistanceM  float64 // cumulative distance from the route start, meters
	ElevationM float64 // elevation above sea level, meters
}

// GeoPoint is a geographic coordinate kept alongside the profile for
// segment matching. Parallel to the profile by index.
type GeoPoint struct {
	Lat float64
	Lon float64
}

// RouteData is the output of the profile provider: an ordered elevation
// profile plus the coordinates it was derived from.
type RouteData struct {
	Name   string       // track name from the source file, or a fallback
	Points []TrackPoint // ordered, distance non-decreasing
	Coords []GeoPoint   // same length and order as Points
}

// Climb is one detected ascent with its quantities and category.
type Climb struct {
	StartDistanceM  float64 `json:"start_distance_m"`
	EndDistanceM    float64 `json:"end_distance_m"`
	StartElevationM float64 `json:"start_elevation_m"`
	EndElevationM   float64 `json:"end_elevation_m"`
	LengthM         float64 `json:"length_m"`
	ElevationGainM  float64 `json:"elevation_gain_m"`
	AvgGradientPct  float64 `json:"avg_gradient_pct"`
	MaxGradientPct  float64 `json:"max_gradient_pct"`
	DifficultyScore float64 `json:"difficulty_score"`
	Category        string  `json:"category"`
}

// Route identifies one uploaded track and its headline numbers.
type Route struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	UploadedAt     time.Time `json:"uploaded_at"`
	PointCount     int       `json:"point_count"`
	TotalDistanceM float64   `json:"total_distance_m"`
	TotalAscentM   float64   `json:"total_ascent_m"`
}

// ProfileStats summarizes the gradient makeup of a route.
type ProfileStats struct {
	MeanGradientPct   float64 `json:"mean_gradient_pct"`
	StdDevGradientPct float64 `json:"stddev_gradient_pct"`
	MaxGradientPct    float64 `json:"max_gradient_pct"`
	TotalAscentM      float64 `json:"total_ascent_m"`
	TotalDescentM     float64 `json:"total_descent_m"`
	SteepestKmStartM  float64 `json:"steepest_km_start_m"`
	SteepestKmAvgPct  float64 `json:"steepest_km_avg_pct"`
}

// Analysis is the stored result of processing one route.
type Analysis struct {
	Route              Route        `json:"route"`
	Points             []TrackPoint `json:"-"`
	Coords             []GeoPoint   `json:"-"`
	SmoothedElevationM []float64    `json:"-"`
	Climbs             []Climb      `json:"climbs"`
	Stats              ProfileStats `json:"stats"`
}

// TotalDifficultyScore sums the difficulty of every climb on the route.
// Used to rank routes against each other.
func (a Analysis) TotalDifficultyScore() float64 {
	var total float64
	for _, c := range a.Climbs {
		total += c.DifficultyScore
	}
	return total
}
