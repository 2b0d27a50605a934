package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrBackpressure   = errors.New("queue full")
	ErrDuplicate      = errors.New("duplicate upload")
	ErrUploadTooLarge = errors.New("upload too large")
	ErrNotConfigured  = errors.New("strava not configured")
)
