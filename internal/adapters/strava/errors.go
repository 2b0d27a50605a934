package strava

import "errors"

// Sentinel kinds for Strava errors.
var (
	ErrNotConfigured = errors.New("strava not configured")
	ErrNoSession     = errors.New("no strava session")
	ErrRateLimited   = errors.New("strava rate limited")
	ErrUnauthorized  = errors.New("strava token rejected")
	ErrAPIStatus     = errors.New("unexpected strava status")
)
