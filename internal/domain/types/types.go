// Package types contains the JSON shapes of the HTTP boundary and their
// conversions from domain models.
package types

import (
	"time"

	"github.com/grimpeur/ascent/internal/domain/model"
)

// RankedRoute represents a difficulty ranking entry.
type RankedRoute struct {
	Rank       int     `json:"rank"`
	RouteID    string  `json:"route_id"`
	Name       string  `json:"name"`
	ClimbCount int     `json:"climb_count"`
	TotalScore float64 `json:"total_score"`
}

// RouteSummary is the list-view shape of an analyzed route.
type RouteSummary struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	UploadedAt     time.Time `json:"uploaded_at"`
	PointCount     int       `json:"point_count"`
	TotalDistanceM float64   `json:"total_distance_m"`
	TotalAscentM   float64   `json:"total_ascent_m"`
	ClimbCount     int       `json:"climb_count"`
	TotalScore     float64   `json:"total_score"`
}

// AnalysisResponse is the full analysis shape for GET /routes/{id}.
type AnalysisResponse struct {
	Route  RouteSummary       `json:"route"`
	Climbs []model.Climb      `json:"climbs"`
	Stats  model.ProfileStats `json:"stats"`
}

// ClimbsResponse carries just the detected climbs of a route.
type ClimbsResponse struct {
	RouteID string        `json:"route_id"`
	Climbs  []model.Climb `json:"climbs"`
}

// UploadAck acknowledges an accepted upload.
type UploadAck struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// SummaryFromAnalysis converts an analysis to its list-view shape.
func SummaryFromAnalysis(a model.Analysis) RouteSummary {
	return RouteSummary{
		ID:             a.Route.ID,
		Name:           a.Route.Name,
		UploadedAt:     a.Route.UploadedAt,
		PointCount:     a.Route.PointCount,
		TotalDistanceM: a.Route.TotalDistanceM,
		TotalAscentM:   a.Route.TotalAscentM,
		ClimbCount:     len(a.Climbs),
		TotalScore:     a.TotalDifficultyScore(),
	}
}

// ResponseFromAnalysis converts an analysis to its detail shape. Climbs
// are never null in the JSON, even for flat routes.
func ResponseFromAnalysis(a model.Analysis) AnalysisResponse {
	climbs := a.Climbs
	if climbs == nil {
		climbs = []model.Climb{}
	}
	return AnalysisResponse{
		Route:  SummaryFromAnalysis(a),
		Climbs: climbs,
		Stats:  a.Stats,
	}
}
