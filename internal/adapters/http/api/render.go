// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
)

// RenderHandler serves the chart and PNG views of an analysis.
type RenderHandler struct {
	deps     Dependencies
	renderer Renderer
}

// NewRenderHandler creates a new render handler.
func NewRenderHandler(deps Dependencies, renderer Renderer) *RenderHandler {
	return &RenderHandler{deps: deps, renderer: renderer}
}

// HandleChart handles GET /routes/{id}/chart requests.
func (h *RenderHandler) HandleChart(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", errors.New("renderer not configured"))
		return
	}
	a, ok := fetchAnalysis(w, r, h.deps)
	if !ok {
		return
	}
	out, err := h.renderer.Chart(a)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "render_error", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(out)
}

// HandleProfilePNG handles GET /routes/{id}/profile.png requests.
func (h *RenderHandler) HandleProfilePNG(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", errors.New("renderer not configured"))
		return
	}
	a, ok := fetchAnalysis(w, r, h.deps)
	if !ok {
		return
	}
	out, err := h.renderer.ProfilePNG(a)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "render_error", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(out)
}
