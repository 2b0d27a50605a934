// Package repository defines the analysis store interface and errors.
package repository

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/grimpeur/ascent/internal/domain/model"
	"github.com/grimpeur/ascent/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// The treap orders routes by total difficulty score DESC, then route ID
// ASC (deterministic), so an in-order traversal produces the difficulty
// ranking from hardest to easiest. A parallel insertion-order list serves
// List (newest upload first) and capacity eviction (oldest out first).

// scoreScale controls fixed-point scaling from float64. Scores are compared
// in fixed point so ordering stays exact across platforms.
const scoreScale = 1_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	scaled := x * scoreScale
	if scaled > float64(math.MaxInt64) {
		return scoreFP(math.MaxInt64)
	}
	if scaled < float64(math.MinInt64) {
		return scoreFP(math.MinInt64)
	}
	return scoreFP(math.Round(scaled))
}

// treap node
type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) should appear before (bScore, bID)
// in the ranking (harder routes first).
func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore // higher score ranks earlier
	}
	return aID < bID // tie-breaker by id asc
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// scoreToPriority converts a score to a heap priority. Higher scores get
// higher priorities, keeping hard routes near the root where TopN looks.
func scoreToPriority(score scoreFP) uint64 {
	const offset = uint64(1) << 63 // shift negatives into the positive range
	return uint64(score) + offset
}

func insert(n *node, id string, score scoreFP) *node {
	if n == nil {
		return &node{id: id, score: score, prio: scoreToPriority(score), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	if score == n.score && id == n.id {
		// Merge children by rotating the higher priority up until leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	} else if less(score, id, n.score, n.id) {
		n.left = deleteNode(n.left, id, score)
	} else {
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// collectTopN appends up to limit entries in rank order (hardest first).
// In-order traversal of the treap is exactly the ranking order.
func collectTopN(n *node, limit int, byID map[string]model.Analysis, out *[]RankedEntry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, byID, out)
	if len(*out) < limit {
		if a, ok := byID[n.id]; ok {
			*out = append(*out, RankedEntry{
				RouteID:    n.id,
				Name:       a.Route.Name,
				ClimbCount: len(a.Climbs),
				TotalScore: a.TotalDifficultyScore(),
			})
		}
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, byID, out)
	}
}

// TreapStore implements Store.
type TreapStore struct {
	mu       sync.RWMutex
	root     *node
	byID     map[string]model.Analysis
	order    []string // route IDs in insertion order, oldest first
	capacity int      // 0 or negative means unbounded

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// defaultMetricsUpdateInterval paces the background gauge refresh.
const defaultMetricsUpdateInterval = 5 * time.Second

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:                  make(map[string]model.Analysis),
		metricsUpdateInterval: defaultMetricsUpdateInterval,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)

	return s
}

// Close stops the background metrics goroutine.
func (s *TreapStore) Close() error {
	select {
	case <-s.stopChan:
		// already closed
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// Put stores an analysis in O(log n) expected time.
func (s *TreapStore) Put(ctx context.Context, a model.Analysis) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	score := toFixedPoint(a.TotalDifficultyScore())

	s.mu.Lock()
	if old, ok := s.byID[a.Route.ID]; ok {
		s.root = deleteNode(s.root, a.Route.ID, toFixedPoint(old.TotalDifficultyScore()))
		s.removeFromOrder(a.Route.ID)
	} else if s.capacity > 0 && len(s.byID) >= s.capacity {
		s.evictOldest()
	}
	s.byID[a.Route.ID] = a
	s.order = append(s.order, a.Route.ID)
	s.root = insert(s.root, a.Route.ID, score)
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateRoutesStored(count)
	return nil
}

// evictOldest drops the analysis at the front of the insertion order.
// Must be called with s.mu held.
func (s *TreapStore) evictOldest() {
	if len(s.order) == 0 {
		return
	}
	oldest := s.order[0]
	s.order = s.order[1:]
	if a, ok := s.byID[oldest]; ok {
		s.root = deleteNode(s.root, oldest, toFixedPoint(a.TotalDifficultyScore()))
		delete(s.byID, oldest)
	}
}

// removeFromOrder drops one ID from the insertion-order list.
// Must be called with s.mu held.
func (s *TreapStore) removeFromOrder(id string) {
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// Get returns the analysis for a route ID.
func (s *TreapStore) Get(ctx context.Context, id string) (model.Analysis, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return model.Analysis{}, ErrNotFound
	}
	return a, nil
}

// List returns up to limit analyses, newest upload first.
func (s *TreapStore) List(ctx context.Context, limit int) ([]model.Analysis, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Milliseconds()))
	}()

	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := limit
	if n > len(s.order) {
		n = len(s.order)
	}
	out := make([]model.Analysis, 0, n)
	for i := len(s.order) - 1; i >= 0 && len(out) < n; i-- {
		if a, ok := s.byID[s.order[i]]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// TopN returns the n hardest routes ordered by total difficulty score desc.
func (s *TreapStore) TopN(ctx context.Context, n int) ([]RankedEntry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RankedEntry, 0, n)
	collectTopN(s.root, n, s.byID, &out)
	assignRanksWithTies(out)
	return out, nil
}

// Delete removes an analysis.
func (s *TreapStore) Delete(ctx context.Context, id string) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	s.root = deleteNode(s.root, id, toFixedPoint(a.TotalDifficultyScore()))
	delete(s.byID, id)
	s.removeFromOrder(id)

	metrics.UpdateRoutesStored(len(s.byID))
	return nil
}

// Count returns the total number of stored analyses.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// startMetricsUpdater starts a background goroutine refreshing store gauges.
func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateRoutesStored(s.Count(ctx))
			}
		}
	}()
}

// assignRanksWithTies assigns ranks where equal scores share a rank and
// the next distinct score takes the following consecutive rank.
func assignRanksWithTies(entries []RankedEntry) {
	if len(entries) == 0 {
		return
	}

	currentRank := 1
	for i := 0; i < len(entries); i++ {
		entries[i].Rank = currentRank

		sameScoreCount := 1
		for j := i + 1; j < len(entries) && entries[j].TotalScore == entries[i].TotalScore; j++ {
			entries[j].Rank = currentRank
			sameScoreCount++
		}

		currentRank++
		i += sameScoreCount - 1
	}
}
