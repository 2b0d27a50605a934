package config

import (
	"errors"
)

// Sentinel error kinds for this package. Callers branch with errors.Is.
var (
	// ErrInvalidConfig marks settings the service cannot start with.
	ErrInvalidConfig = errors.New("invalid service config")

	// ErrLoadConfig marks a failure reading or decoding a config source.
	ErrLoadConfig = errors.New("load config failed")
)
