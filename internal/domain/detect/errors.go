package detect

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInvalidInput marks a profile that cannot be analyzed: fewer than
	// two points, a negative distance, or a non-monotonic distance sequence.
	ErrInvalidInput = errors.New("invalid profile")

	// ErrInvalidConfig marks a configuration that fails validation before
	// any computation starts.
	ErrInvalidConfig = errors.New("invalid detection config")
)
