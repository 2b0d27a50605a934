package render

import "errors"

// Sentinel kinds for render errors.
var (
	ErrEmptyProfile = errors.New("empty elevation profile")
	ErrRenderFailed = errors.New("render failed")
)
