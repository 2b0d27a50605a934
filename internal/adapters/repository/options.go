// Package repository defines the analysis store interface and errors.
package repository

import "time"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithCapacity bounds the number of retained analyses. Once full, storing
// a new analysis evicts the oldest upload. Values <= 0 mean unbounded.
func WithCapacity(capacity int) Option {
	return func(s *TreapStore) {
		s.capacity = capacity
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *TreapStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}
