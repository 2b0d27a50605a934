// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/grimpeur/ascent/internal/domain/dedupe"
	"github.com/grimpeur/ascent/internal/domain/detect"
	"github.com/grimpeur/ascent/internal/domain/job"
	"github.com/grimpeur/ascent/internal/domain/model"
	"github.com/grimpeur/ascent/internal/domain/types"
)

// Default request limits, overridable per server.
const (
	defaultMaxUploadBytes = 8 << 20
	defaultMaxListLimit   = 1000
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes an analysis job for async processing.
	// Returns false on backpressure.
	Enqueue(ctx context.Context, job job.AnalysisJob) bool

	// CheckGPX validates uploaded bytes before they are queued.
	CheckGPX(ctx context.Context, data []byte) error

	// DetectionDefaults returns the configured detection baseline that
	// per-upload overrides start from.
	DetectionDefaults() detect.Config

	// Read operations expose analyzed routes.
	List(ctx context.Context, limit int) ([]model.Analysis, error)
	Get(ctx context.Context, id string) (model.Analysis, error)
	TopN(ctx context.Context, n int) ([]types.RankedRoute, error)
}

// Renderer turns analyses into visual artifacts.
type Renderer interface {
	Chart(a model.Analysis) ([]byte, error)
	ProfilePNG(a model.Analysis) ([]byte, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	routesHandler    *RoutesHandler
	rankingHandler   *RankingHandler
	renderHandler    *RenderHandler
	stravaHandler    *StravaHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	cfg := serverConfig{
		maxUploadBytes: defaultMaxUploadBytes,
		maxListLimit:   defaultMaxListLimit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		routesHandler:    NewRoutesHandler(deps, cfg.maxUploadBytes, cfg.maxListLimit),
		rankingHandler:   NewRankingHandler(deps, cfg.maxListLimit),
		renderHandler:    NewRenderHandler(deps, cfg.renderer),
		stravaHandler:    NewStravaHandler(deps, cfg.strava, cfg.sessions),
		dashboardHandler: newdashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /routes", MetricsMiddleware(s.routesHandler.HandleUpload, "routes_upload"))
	mux.HandleFunc("GET /routes", MetricsMiddleware(s.routesHandler.HandleList, "routes_list"))
	mux.HandleFunc("GET /routes/top", MetricsMiddleware(s.rankingHandler.HandleTop, "routes_top"))
	mux.HandleFunc("GET /routes/{id}", MetricsMiddleware(s.routesHandler.HandleGet, "routes_get"))
	mux.HandleFunc("GET /routes/{id}/climbs", MetricsMiddleware(s.routesHandler.HandleClimbs, "routes_climbs"))
	mux.HandleFunc("GET /routes/{id}/chart", MetricsMiddleware(s.renderHandler.HandleChart, "routes_chart"))
	mux.HandleFunc("GET /routes/{id}/profile.png", MetricsMiddleware(s.renderHandler.HandleProfilePNG, "routes_png"))
	mux.HandleFunc("GET /routes/{id}/segments", MetricsMiddleware(s.stravaHandler.HandleSegments, "routes_segments"))

	mux.HandleFunc("GET /strava/login", MetricsMiddleware(s.stravaHandler.HandleLogin, "strava_login"))
	mux.HandleFunc("GET /strava/callback", MetricsMiddleware(s.stravaHandler.HandleCallback, "strava_callback"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
