package strava

import (
	"net/http"

	"github.com/grimpeur/ascent/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithCache attaches a segment detail cache.
func WithCache(cache *SegmentCache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithBaseURLs overrides the API, authorize, and token endpoints.
// Used by tests pointing the client at a local server.
func WithBaseURLs(apiBase, authURL, tokenURL string) Option {
	return func(c *Client) {
		if apiBase != "" {
			c.apiBase = apiBase
		}
		if authURL != "" {
			c.authURL = authURL
		}
		if tokenURL != "" {
			c.tokenURL = tokenURL
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
