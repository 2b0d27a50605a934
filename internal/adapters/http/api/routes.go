// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grimpeur/ascent/internal/adapters/gpx"
	"github.com/grimpeur/ascent/internal/adapters/repository"
	"github.com/grimpeur/ascent/internal/domain/dedupe"
	"github.com/grimpeur/ascent/internal/domain/detect"
	"github.com/grimpeur/ascent/internal/domain/job"
	"github.com/grimpeur/ascent/internal/domain/model"
	"github.com/grimpeur/ascent/internal/domain/types"
	"github.com/grimpeur/ascent/pkg/metrics"
)

// RoutesHandler handles upload and read requests for routes.
type RoutesHandler struct {
	deps           Dependencies
	maxUploadBytes int64
	maxListLimit   int
}

// NewRoutesHandler creates a new routes handler.
func NewRoutesHandler(deps Dependencies, maxUploadBytes int64, maxListLimit int) *RoutesHandler {
	return &RoutesHandler{
		deps:           deps,
		maxUploadBytes: maxUploadBytes,
		maxListLimit:   maxListLimit,
	}
}

// HandleUpload handles POST /routes requests. The GPX comes either as a
// multipart "file" field or as the raw request body. Detection tunables
// may be overridden per upload via query or form values.
func (h *RoutesHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.upload_route"

	data, name, err := readUpload(r, h.maxUploadBytes)
	if err != nil {
		if errors.Is(err, ErrUploadTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, err))
		return
	}

	cfg, err := detectionOverrides(r, h.deps.DetectionDefaults())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, err))
		return
	}

	if err := h.deps.CheckGPX(r.Context(), data); err != nil {
		if errors.Is(err, gpx.ErrTooFewPoints) {
			writeError(w, http.StatusUnprocessableEntity, "too_few_points", err)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, err))
		return
	}

	// Idempotency check against the upload content hash.
	fingerprint := dedupe.Fingerprint(data)
	if h.deps.SeenAndRecord(r.Context(), fingerprint) {
		metrics.RecordRouteDuplicate()
		writeError(w, http.StatusConflict, "duplicate", ErrDuplicate)
		return
	}

	newJob := job.AnalysisJob{
		RouteID:     uuid.NewString(),
		Name:        name,
		GPX:         data,
		Fingerprint: fingerprint,
		Detection:   cfg,
		SubmittedAt: time.Now().UTC(),
	}
	if ok := h.deps.Enqueue(r.Context(), newJob); !ok {
		// Roll back the "seen" status since enqueue failed.
		h.deps.Unrecord(r.Context(), fingerprint)
		writeError(w, http.StatusServiceUnavailable, "backpressure", ErrBackpressure)
		return
	}
	writeJSON(w, http.StatusAccepted, types.UploadAck{ID: newJob.RouteID, Status: "accepted"})
}

// HandleList handles GET /routes?limit=N requests.
func (h *RoutesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_routes"

	limit := 50 // default page size
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		limit = n
	}
	if limit > h.maxListLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", ErrBadRequest)
		return
	}

	analyses, err := h.deps.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", fmt.Errorf("%s: %w", op, err))
		return
	}
	out := make([]types.RouteSummary, 0, len(analyses))
	for _, a := range analyses {
		out = append(out, types.SummaryFromAnalysis(a))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /routes/{id} requests.
func (h *RoutesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	a, ok := fetchAnalysis(w, r, h.deps)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, types.ResponseFromAnalysis(a))
}

// HandleClimbs handles GET /routes/{id}/climbs requests.
func (h *RoutesHandler) HandleClimbs(w http.ResponseWriter, r *http.Request) {
	a, ok := fetchAnalysis(w, r, h.deps)
	if !ok {
		return
	}
	climbs := a.Climbs
	if climbs == nil {
		climbs = []model.Climb{}
	}
	writeJSON(w, http.StatusOK, types.ClimbsResponse{RouteID: a.Route.ID, Climbs: climbs})
}

// fetchAnalysis resolves the {id} path value, writing the error response
// itself when the route is missing or the ID malformed.
func fetchAnalysis(w http.ResponseWriter, r *http.Request, deps Dependencies) (model.Analysis, bool) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return model.Analysis{}, false
	}
	a, err := deps.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return model.Analysis{}, false
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return model.Analysis{}, false
	}
	return a, true
}

// readUpload extracts the GPX bytes and an optional route name from a
// multipart form or the raw request body, enforcing the size cap.
func readUpload(r *http.Request, maxBytes int64) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			if maxBytesExceeded(err) {
				return nil, "", ErrUploadTooLarge
			}
			return nil, "", fmt.Errorf("parse multipart form: %w", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("missing file field: %w", err)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", fmt.Errorf("read file field: %w", err)
		}
		name := r.FormValue("name")
		if name == "" && header != nil {
			name = strings.TrimSuffix(header.Filename, ".gpx")
		}
		return data, name, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		if maxBytesExceeded(err) {
			return nil, "", ErrUploadTooLarge
		}
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty upload")
	}
	return data, r.URL.Query().Get("name"), nil
}

func maxBytesExceeded(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// detectionOverrides applies per-upload tunables on top of the defaults.
func detectionOverrides(r *http.Request, cfg detect.Config) (detect.Config, error) {
	get := func(key string) string {
		if v := r.URL.Query().Get(key); v != "" {
			return v
		}
		return r.FormValue(key)
	}

	assign := func(key string, dst *float64) error {
		v := get(key)
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = f
		return nil
	}

	if err := assign("min_gradient_pct", &cfg.MinGradientPct); err != nil {
		return cfg, err
	}
	if err := assign("min_elevation_gain_m", &cfg.MinElevationGainM); err != nil {
		return cfg, err
	}
	if err := assign("break_gradient_pct", &cfg.BreakGradientPct); err != nil {
		return cfg, err
	}
	if err := assign("merge_gap_m", &cfg.MergeGapM); err != nil {
		return cfg, err
	}
	if v := get("smoothing_window"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid smoothing_window: %w", err)
		}
		cfg.SmoothingWindow = n
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
