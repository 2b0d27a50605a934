// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/grimpeur/ascent/internal/adapters/strava"
	"github.com/grimpeur/ascent/internal/domain/model"
)

// StravaProvider defines the interface for Strava enrichment.
type StravaProvider interface {
	AuthorizeURL(state string) string
	Exchange(ctx context.Context, code string) (strava.Token, error)
	Refresh(ctx context.Context, refreshToken string) (strava.Token, error)
	MatchSegments(ctx context.Context, token string, a model.Analysis) ([]strava.SegmentMatch, error)
}

// StravaHandler handles the OAuth flow and segment match requests.
// A nil provider keeps every endpoint answering 503.
type StravaHandler struct {
	deps     Dependencies
	provider StravaProvider
	sessions *strava.SessionStore
}

// NewStravaHandler creates a new Strava handler.
func NewStravaHandler(deps Dependencies, provider StravaProvider, sessions *strava.SessionStore) *StravaHandler {
	return &StravaHandler{deps: deps, provider: provider, sessions: sessions}
}

func (h *StravaHandler) configured() bool {
	return h.provider != nil && h.sessions != nil
}

// HandleLogin handles GET /strava/login requests.
func (h *StravaHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.configured() {
		writeError(w, http.StatusServiceUnavailable, "strava_unconfigured", ErrNotConfigured)
		return
	}
	http.Redirect(w, r, h.provider.AuthorizeURL(""), http.StatusFound)
}

// HandleCallback handles GET /strava/callback requests: it exchanges the
// authorization code and hands the browser a session cookie.
func (h *StravaHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	const op = "api.strava_callback"
	if !h.configured() {
		writeError(w, http.StatusServiceUnavailable, "strava_unconfigured", ErrNotConfigured)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("no code returned"))
		return
	}

	tok, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		writeError(w, http.StatusBadGateway, "strava_error", err)
		return
	}
	sessionID, err := h.sessions.Create(tok)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     strava.CookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

// HandleSegments handles GET /routes/{id}/segments requests.
func (h *StravaHandler) HandleSegments(w http.ResponseWriter, r *http.Request) {
	if !h.configured() {
		writeError(w, http.StatusServiceUnavailable, "strava_unconfigured", ErrNotConfigured)
		return
	}

	cookie, err := r.Cookie(strava.CookieName)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no_session", strava.ErrNoSession)
		return
	}
	tok, ok := h.sessions.Get(cookie.Value)
	if !ok {
		writeError(w, http.StatusUnauthorized, "no_session", strava.ErrNoSession)
		return
	}
	if tok.Expired() {
		tok, ok = h.refreshSession(w, r, cookie.Value, tok)
		if !ok {
			return
		}
	}

	a, ok := fetchAnalysis(w, r, h.deps)
	if !ok {
		return
	}

	matches, err := h.provider.MatchSegments(r.Context(), tok.AccessToken, a)
	if errors.Is(err, strava.ErrUnauthorized) {
		// The token died between expiry checks; refresh once and retry.
		tok, ok = h.refreshSession(w, r, cookie.Value, tok)
		if !ok {
			return
		}
		matches, err = h.provider.MatchSegments(r.Context(), tok.AccessToken, a)
	}
	if err != nil {
		if errors.Is(err, strava.ErrRateLimited) {
			writeError(w, http.StatusServiceUnavailable, "rate_limited", err)
			return
		}
		writeError(w, http.StatusBadGateway, "strava_error", err)
		return
	}
	if matches == nil {
		matches = []strava.SegmentMatch{}
	}
	writeJSON(w, http.StatusOK, matches)
}

// refreshSession swaps an expired or rejected token for a fresh one and
// stores it back on the session. A failed refresh ends the session; the
// browser has to run the OAuth flow again.
func (h *StravaHandler) refreshSession(w http.ResponseWriter, r *http.Request, sessionID string, tok strava.Token) (strava.Token, bool) {
	fresh, err := h.provider.Refresh(r.Context(), tok.RefreshToken)
	if err != nil {
		h.sessions.Delete(sessionID)
		writeError(w, http.StatusUnauthorized, "session_expired", strava.ErrNoSession)
		return strava.Token{}, false
	}
	h.sessions.Update(sessionID, fresh)
	return fresh, true
}
