// Package strava enriches analyzed routes with Strava segment matches.
// The whole adapter is optional: without client credentials every entry
// point returns ErrNotConfigured.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/grimpeur/ascent/pkg/logger"
	"github.com/grimpeur/ascent/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultAPIBase   = "https://www.strava.com/api/v3"
	defaultAuthURL   = "https://www.strava.com/oauth/authorize"
	defaultTokenURL  = "https://www.strava.com/oauth/token"
	defaultRetryWait = 30 * time.Second
)

// Config carries the credentials and matching tunables.
type Config struct {
	ClientID          string
	ClientSecret      string
	RedirectURL       string
	SampleIntervalM   float64
	ExploreRadiusM    float64
	OverlapThreshold  float64
	PauseBetweenCalls time.Duration
}

// Token is the OAuth token triple returned by Strava.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Expired reports whether the access token's expiry has passed.
func (t Token) Expired() bool {
	return t.ExpiresAt != 0 && time.Now().Unix() >= t.ExpiresAt
}

// Client talks to the Strava v3 API.
type Client struct {
	cfg      Config
	apiBase  string
	authURL  string
	tokenURL string
	http     *http.Client
	cache    *SegmentCache
	logger   logger.Logger
}

// NewClient creates a Strava client with configuration options.
// Returns ErrNotConfigured when credentials are missing.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrNotConfigured
	}
	if cfg.SampleIntervalM <= 0 {
		cfg.SampleIntervalM = 500
	}
	if cfg.ExploreRadiusM <= 0 {
		cfg.ExploreRadiusM = 150
	}
	if cfg.OverlapThreshold <= 0 {
		cfg.OverlapThreshold = 0.6
	}

	c := &Client{
		cfg:      cfg,
		apiBase:  defaultAPIBase,
		authURL:  defaultAuthURL,
		tokenURL: defaultTokenURL,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   logger.Get().Named("strava"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close releases the segment cache, if any.
func (c *Client) Close() error {
	if c.cache != nil {
		return c.cache.Close()
	}
	return nil
}

// AuthorizeURL builds the OAuth authorize redirect target.
func (c *Client) AuthorizeURL(state string) string {
	params := url.Values{
		"client_id":       {c.cfg.ClientID},
		"response_type":   {"code"},
		"redirect_uri":    {c.cfg.RedirectURL},
		"approval_prompt": {"auto"},
		"scope":           {"read"},
	}
	if state != "" {
		params.Set("state", state)
	}
	return c.authURL + "?" + params.Encode()
}

// Exchange trades an authorization code for a token.
func (c *Client) Exchange(ctx context.Context, code string) (Token, error) {
	return c.tokenRequest(ctx, url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
	})
}

// Refresh trades a refresh token for a fresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Token, error) {
	return c.tokenRequest(ctx, url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	})
}

func (c *Client) tokenRequest(ctx context.Context, form url.Values) (Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	metrics.RecordStravaCall("oauth/token", strconv.Itoa(resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		return Token{}, fmt.Errorf("%w: token endpoint returned %d", ErrAPIStatus, resp.StatusCode)
	}

	var tok Token
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return Token{}, fmt.Errorf("decode token response: %w", err)
	}
	return tok, nil
}

// get performs one authenticated API call. A 429 is retried once after
// the Retry-After wait; every call is followed by the configured pause
// so bursts stay under the Strava rate limits.
func (c *Client) get(ctx context.Context, path string, token string, params url.Values, out interface{}) error {
	body, status, retryAfter, err := c.doGet(ctx, path, token, params)
	if err != nil {
		return err
	}

	if status == http.StatusTooManyRequests {
		wait := defaultRetryWait
		metrics.RecordStravaRateWait()
		if retryAfter > 0 {
			wait = retryAfter
		}
		c.logger.Warn(ctx, "strava rate limited, backing off",
			logger.String("path", path),
			logger.Duration("wait", wait),
		)
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
		body, status, _, err = c.doGet(ctx, path, token, params)
		if err != nil {
			return err
		}
		if status == http.StatusTooManyRequests {
			return ErrRateLimited
		}
	}

	if status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: GET %s returned %d", ErrAPIStatus, path, status)
	}

	if c.cfg.PauseBetweenCalls > 0 {
		if err := sleepCtx(ctx, c.cfg.PauseBetweenCalls); err != nil {
			return err
		}
	}
	return json.Unmarshal(body, out)
}

// doGet performs a single API call. On a 429 the parsed Retry-After
// value rides back on the return so concurrent callers never share
// mutable client state.
func (c *Client) doGet(ctx context.Context, path string, token string, params url.Values) ([]byte, int, time.Duration, error) {
	u := c.apiBase + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	metrics.RecordStravaCall(path, strconv.Itoa(resp.StatusCode))
	var retryAfter time.Duration
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, retryAfter, nil
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return defaultRetryWait
	}
	return time.Duration(secs) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
