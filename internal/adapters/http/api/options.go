package api

import "github.com/grimpeur/ascent/internal/adapters/strava"

// serverConfig carries per-server tunables and optional collaborators.
type serverConfig struct {
	maxUploadBytes int64
	maxListLimit   int
	renderer       Renderer
	strava         StravaProvider
	sessions       *strava.SessionStore
}

// ServerOption applies a configuration option to the API server.
type ServerOption func(*serverConfig)

// WithMaxUploadBytes caps the accepted GPX upload size.
func WithMaxUploadBytes(n int64) ServerOption {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxUploadBytes = n
		}
	}
}

// WithMaxListLimit caps the limit accepted by list and ranking queries.
func WithMaxListLimit(n int) ServerOption {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxListLimit = n
		}
	}
}

// WithRenderer attaches the chart/PNG renderer.
func WithRenderer(r Renderer) ServerOption {
	return func(c *serverConfig) {
		c.renderer = r
	}
}

// WithStrava attaches the optional Strava enrichment provider and its
// session store. Leaving both nil keeps the endpoints responding 503.
func WithStrava(p StravaProvider, sessions *strava.SessionStore) ServerOption {
	return func(c *serverConfig) {
		c.strava = p
		c.sessions = sessions
	}
}
