// Package repository defines the analysis store interface and errors.
package repository

import (
	"context"

	"github.com/grimpeur/ascent/internal/domain/model"
)

// RankedEntry is one row of the difficulty ranking.
type RankedEntry struct {
	Rank       int
	RouteID    string
	Name       string
	ClimbCount int
	TotalScore float64
}

// Store provides read/write access to completed route analyses.
type Store interface {
	// Put stores an analysis, replacing any previous one with the same ID.
	Put(ctx context.Context, a model.Analysis) error

	// Get returns the analysis for a route ID.
	// Returns ErrNotFound if the route is unknown.
	Get(ctx context.Context, id string) (model.Analysis, error)

	// List returns up to limit analyses, newest upload first.
	List(ctx context.Context, limit int) ([]model.Analysis, error)

	// TopN returns the n hardest routes ordered by total difficulty score desc.
	TopN(ctx context.Context, n int) ([]RankedEntry, error)

	// Delete removes an analysis. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored analyses.
	Count(ctx context.Context) int
}
