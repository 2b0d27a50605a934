// Package dedupe tracks fingerprints of uploaded route files so that
// re-uploads of the same content are rejected before analysis.
package dedupe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"
)

// Fingerprint returns the canonical fingerprint of an uploaded file:
// the hex-encoded SHA-256 digest of its raw bytes.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Deduper records seen upload fingerprints to ensure at-most-once analysis.
type Deduper interface {
	// SeenAndRecord atomically checks if fp was seen and records it if not.
	// Returns true if fp was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, fp string) bool

	// Unrecord removes a fingerprint, allowing the upload to be retried.
	// Use it when an upload was recorded but could not be enqueued
	// (e.g. queue backpressure).
	Unrecord(ctx context.Context, fp string)

	Size() int64
}

// defaultMaxSize bounds the tracker when no option overrides it.
const defaultMaxSize = 100_000

// node is a single entry in the recency list.
type node struct {
	fp   string
	next *node
}

// reset clears the node state for reuse.
func (n *node) reset() {
	n.fp = ""
	n.next = nil
}

// inMemoryDeduper implements Deduper with a map plus a recency list.
// Bounded mode (maxSize > 0) evicts the oldest fingerprint once full and
// recycles nodes through a sync.Pool. Unbounded mode (maxSize <= 0) keeps
// a plain map with no eviction.
type inMemoryDeduper struct {
	mu       sync.RWMutex
	seen     map[string]*node // fp -> node in bounded mode, nil in unbounded
	head     *node            // most recently recorded fingerprint
	maxSize  int              // 0 or negative means unbounded
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]*node)

	if d.maxSize > 0 {
		d.nodePool = sync.Pool{
			New: func() interface{} {
				return &node{}
			},
		}
	}

	return d
}

// SeenAndRecord atomically checks if fp was seen and records it if not.
// Returns true if fp was already seen, false if it was newly recorded.
func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, fp string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[fp]; exists {
		return true
	}

	if d.maxSize > 0 {
		// Bounded: evict before inserting so the cap holds.
		if len(d.seen) >= d.maxSize {
			d.evictOldest()
		}

		n := d.nodePool.Get().(*node)
		n.fp = fp
		n.next = d.head

		d.head = n
		d.seen[fp] = n
	} else {
		d.seen[fp] = nil
	}
	d.size.Add(1)
	return false
}

// Unrecord removes a fingerprint, allowing the upload to be retried.
func (d *inMemoryDeduper) Unrecord(ctx context.Context, fp string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.maxSize > 0 {
		node, exists := d.seen[fp]
		if !exists {
			return
		}
		delete(d.seen, fp)

		// Unlink from the recency list.
		if d.head == node {
			d.head = node.next
		} else {
			current := d.head
			for current != nil && current.next != node {
				current = current.next
			}
			if current != nil {
				current.next = node.next
			}
		}

		node.reset()
		d.nodePool.Put(node)

		d.size.Add(-1)
		return
	}

	if _, exists := d.seen[fp]; exists {
		delete(d.seen, fp)
		d.size.Add(-1)
	}
}

// evictOldest removes the oldest entry (tail of the recency list).
// Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	if len(d.seen) == 0 || d.head == nil {
		return
	}

	var prev *node
	current := d.head

	// Single entry: drop it and clear the list.
	if current.next == nil {
		delete(d.seen, current.fp)
		current.reset()
		d.nodePool.Put(current)
		d.head = nil
		d.size.Add(-1)
		return
	}

	// Walk to the tail, tracking the node before it.
	for current.next != nil {
		prev = current
		current = current.next
	}

	if prev != nil {
		prev.next = nil
		delete(d.seen, current.fp)
		current.reset()
		d.nodePool.Put(current)
		d.size.Add(-1)
	}
}

// Size returns the current number of tracked fingerprints.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
