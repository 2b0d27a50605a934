package testroutes

import "time"

// Config holds configuration for the route test
type Config struct {
	BaseURL   string        // Base URL of the service
	NumRoutes int           // Number of routes to generate
	TopN      int           // Number of ranking entries to fetch
	Workers   int           // Number of concurrent workers
	Timeout   time.Duration // HTTP request timeout
	OutputDir string        // Directory for generated GPX files
	LogFile   string        // Log file for test output
	Verbose   bool          // Enable verbose logging
}

// RouteCase is one generated GPX document plus the analysis we expect
// the service to produce for it.
type RouteCase struct {
	Name           string
	Kind           string
	GPX            []byte
	ExpectClimbs   int
	ExpectCategory string // category of the hardest climb, "" when none

	// Filled in during submission
	RouteID string
}

// UploadAck represents the response from a route upload
type UploadAck struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Climb mirrors the climb payload returned by the API
type Climb struct {
	StartDistanceM  float64 `json:"start_distance_m"`
	LengthM         float64 `json:"length_m"`
	ElevationGainM  float64 `json:"elevation_gain_m"`
	AvgGradientPct  float64 `json:"avg_gradient_pct"`
	DifficultyScore float64 `json:"difficulty_score"`
	Category        string  `json:"category"`
}

// RouteSummary mirrors the route payload returned by the API
type RouteSummary struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	TotalDistanceM float64 `json:"total_distance_m"`
	TotalAscentM   float64 `json:"total_ascent_m"`
}

// AnalysisResponse mirrors GET /routes/{id}
type AnalysisResponse struct {
	Route  RouteSummary `json:"route"`
	Climbs []Climb      `json:"climbs"`
}

// RankedRoute mirrors one row of GET /routes/top
type RankedRoute struct {
	Rank       int     `json:"rank"`
	RouteID    string  `json:"route_id"`
	Name       string  `json:"name"`
	ClimbCount int     `json:"climb_count"`
	TotalScore float64 `json:"total_score"`
}

// Stats holds test statistics
type Stats struct {
	RoutesGenerated    int
	RoutesSubmitted    int
	RoutesAccepted     int
	RoutesDuplicate    int
	RoutesFailed       int
	AnalysesRetrieved  int
	ExpectationsFailed int
	RankingEntries     int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
