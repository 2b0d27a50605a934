package strava

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/grimpeur/ascent/pkg/metrics"
)

// SegmentCache persists segment detail responses in sqlite so repeated
// matches against the same segments stay off the Strava API.
type SegmentCache struct {
	db *sql.DB
}

const createSegmentsTable = `
CREATE TABLE IF NOT EXISTS segments (
	id INTEGER PRIMARY KEY,
	json TEXT,
	last_fetch INTEGER
)`

// OpenCache opens (and initializes) the sqlite cache at path.
func OpenCache(path string) (*SegmentCache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open segment cache: %w", err)
	}
	if _, err := db.Exec(createSegmentsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("init segment cache: %w", err)
	}
	return &SegmentCache{db: db}, nil
}

// Lookup returns the cached JSON for a segment ID, or ok=false on a miss.
func (c *SegmentCache) Lookup(ctx context.Context, segID int64) ([]byte, bool, error) {
	var raw []byte
	err := c.db.QueryRowContext(ctx, "SELECT json FROM segments WHERE id = ?", segID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordSegmentCacheMiss()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("segment cache lookup: %w", err)
	}
	metrics.RecordSegmentCacheHit()
	return raw, true, nil
}

// Store upserts the JSON for a segment ID with the current fetch time.
func (c *SegmentCache) Store(ctx context.Context, segID int64, raw []byte) error {
	_, err := c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO segments (id, json, last_fetch) VALUES (?, ?, ?)",
		segID, string(raw), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("segment cache store: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (c *SegmentCache) Close() error {
	return c.db.Close()
}
