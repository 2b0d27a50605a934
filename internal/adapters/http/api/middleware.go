// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/grimpeur/ascent/pkg/metrics"
)

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		// Call the next handler
		next.ServeHTTP(wrapped, r)

		// Record metrics
		durationMs := float64(time.Since(start).Milliseconds())
		statusCodeStr := strconv.Itoa(wrapped.statusCode)

		metrics.RecordHTTPRequest(endpoint, r.Method, statusCodeStr)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, statusCodeStr, durationMs)
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}

// JSONErrors wraps a mux so its built-in plain-text 404 and 405 replies
// use the same JSON error envelope as the handlers.
func JSONErrors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&errorRewriter{ResponseWriter: w}, r)
	})
}

// errorRewriter intercepts 404/405 status writes that carry no JSON
// content type. Handlers writing their own JSON errors pass through.
type errorRewriter struct {
	http.ResponseWriter
	rewrote bool
}

func (w *errorRewriter) WriteHeader(status int) {
	notJSON := !strings.HasPrefix(w.Header().Get("Content-Type"), "application/json")
	if (status == http.StatusNotFound || status == http.StatusMethodNotAllowed) && notJSON {
		w.rewrote = true
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.ResponseWriter.WriteHeader(status)

		code := "not_found"
		if status == http.StatusMethodNotAllowed {
			code = "method_not_allowed"
		}
		_ = json.NewEncoder(w.ResponseWriter).Encode(errorResponse{
			Code:    code,
			Message: http.StatusText(status),
		})
		return
	}
	w.ResponseWriter.WriteHeader(status)
}

// Write drops the original plain-text body once the JSON reply is out.
func (w *errorRewriter) Write(b []byte) (int, error) {
	if w.rewrote {
		return len(b), nil
	}
	n, err := w.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}
