package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/grimpeur/ascent/internal/domain/model"
)

// floatEqual compares two float64 values with a small tolerance for floating-point precision
func floatEqual(a, b float64) bool {
	const tolerance = 1e-9
	return math.Abs(a-b) < tolerance
}

// analysisWithScore builds a minimal analysis whose total difficulty score
// equals the given value, spread over climbCount climbs.
func analysisWithScore(id, name string, climbCount int, total float64) model.Analysis {
	climbs := make([]model.Climb, climbCount)
	for i := range climbs {
		climbs[i] = model.Climb{DifficultyScore: total / float64(climbCount)}
	}
	return model.Analysis{
		Route: model.Route{
			ID:         id,
			Name:       name,
			UploadedAt: time.Now(),
		},
		Climbs: climbs,
	}
}

func mustPut(t *testing.T, store *TreapStore, a model.Analysis) {
	t.Helper()
	if err := store.Put(context.Background(), a); err != nil {
		t.Fatalf("put %s: %v", a.Route.ID, err)
	}
}

func TestTreapStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	// Empty store
	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// First analysis
	if err := store.Put(ctx, analysisWithScore("route1", "Col A", 2, 4200)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	got, err := store.Get(ctx, "route1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Route.Name != "Col A" {
		t.Errorf("expected name Col A, got %s", got.Route.Name)
	}

	// TopN with a single route
	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Rank != 1 || entries[0].RouteID != "route1" {
		t.Errorf("unexpected top entry: %+v", entries[0])
	}
	if !floatEqual(entries[0].TotalScore, 4200) {
		t.Errorf("expected score 4200, got %f", entries[0].TotalScore)
	}
	if entries[0].ClimbCount != 2 {
		t.Errorf("expected 2 climbs, got %d", entries[0].ClimbCount)
	}
}

func TestTreapStore_Ranking(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	mustPut(t, store, analysisWithScore("easy", "Rolling Hills", 1, 800))
	mustPut(t, store, analysisWithScore("hard", "Col du Nord", 3, 9000))
	mustPut(t, store, analysisWithScore("medium", "Cote Verte", 2, 3000))

	entries, err := store.TopN(ctx, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"hard", "medium", "easy"}
	for i, id := range want {
		if entries[i].RouteID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, entries[i].RouteID)
		}
		if entries[i].Rank != i+1 {
			t.Errorf("position %d: expected rank %d, got %d", i, i+1, entries[i].Rank)
		}
	}

	// Limit smaller than the store
	entries, err = store.TopN(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].RouteID != "hard" {
		t.Errorf("expected only the hardest route, got %+v", entries)
	}

	if _, err := store.TopN(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestTreapStore_TieBreaking(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	mustPut(t, store, analysisWithScore("b-route", "B", 1, 5000))
	mustPut(t, store, analysisWithScore("a-route", "A", 1, 5000))
	mustPut(t, store, analysisWithScore("c-route", "C", 1, 1000))

	entries, err := store.TopN(ctx, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Same score: shared rank, deterministic ID order.
	if entries[0].RouteID != "a-route" || entries[1].RouteID != "b-route" {
		t.Errorf("expected tie broken by ID asc, got %s then %s", entries[0].RouteID, entries[1].RouteID)
	}
	if entries[0].Rank != 1 || entries[1].Rank != 1 {
		t.Errorf("expected shared rank 1, got %d and %d", entries[0].Rank, entries[1].Rank)
	}
	if entries[2].Rank != 2 {
		t.Errorf("expected consecutive rank 2 after tie, got %d", entries[2].Rank)
	}
}

func TestTreapStore_PutReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	mustPut(t, store, analysisWithScore("route1", "First pass", 1, 1000))
	mustPut(t, store, analysisWithScore("route1", "Second pass", 2, 7000))

	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1 after replace, got %d", count)
	}
	got, err := store.Get(ctx, "route1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Route.Name != "Second pass" {
		t.Errorf("expected replacement to win, got %s", got.Route.Name)
	}

	entries, err := store.TopN(ctx, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || !floatEqual(entries[0].TotalScore, 7000) {
		t.Errorf("expected single entry at new score, got %+v", entries)
	}
}

func TestTreapStore_List(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	for i := 0; i < 5; i++ {
		mustPut(t, store, analysisWithScore(fmt.Sprintf("route%d", i), fmt.Sprintf("Route %d", i), 1, float64(i*100)))
	}

	got, err := store.List(ctx, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 analyses, got %d", len(got))
	}
	// Newest upload first.
	for i, want := range []string{"route4", "route3", "route2"} {
		if got[i].Route.ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, got[i].Route.ID)
		}
	}

	if _, err := store.List(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestTreapStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	mustPut(t, store, analysisWithScore("route1", "A", 1, 100))
	mustPut(t, store, analysisWithScore("route2", "B", 1, 200))

	if err := store.Delete(ctx, "route1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "route1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "route1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	entries, err := store.TopN(ctx, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].RouteID != "route2" {
		t.Errorf("expected route2 to remain in ranking, got %+v", entries)
	}
}

func TestTreapStore_CapacityEviction(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx, WithCapacity(3))
	defer store.Close()

	for i := 0; i < 5; i++ {
		mustPut(t, store, analysisWithScore(fmt.Sprintf("route%d", i), fmt.Sprintf("Route %d", i), 1, float64(i)))
	}

	if count := store.Count(ctx); count != 3 {
		t.Fatalf("expected capacity to hold at 3, got %d", count)
	}
	// Oldest uploads evicted first.
	for _, id := range []string{"route0", "route1"} {
		if _, err := store.Get(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected %s to be evicted, got %v", id, err)
		}
	}
	for _, id := range []string{"route2", "route3", "route4"} {
		if _, err := store.Get(ctx, id); err != nil {
			t.Errorf("expected %s to be retained, got %v", id, err)
		}
	}

	// Ranking must not contain evicted routes.
	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 ranked entries, got %d", len(entries))
	}
}

func TestTreapStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	const writers = 8
	const perWriter = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				id := fmt.Sprintf("route-%d-%d", w, i)
				_ = store.Put(ctx, analysisWithScore(id, id, 1, float64(w*1000+i)))
				_, _ = store.TopN(ctx, 5)
				_, _ = store.List(ctx, 5)
			}
		}(w)
	}
	wg.Wait()

	if count := store.Count(ctx); count != writers*perWriter {
		t.Errorf("expected %d analyses, got %d", writers*perWriter, count)
	}

	// Ranking order must be strictly non-increasing.
	entries, err := store.TopN(ctx, writers*perWriter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].TotalScore > entries[i-1].TotalScore {
			t.Fatalf("ranking out of order at %d: %f > %f", i, entries[i].TotalScore, entries[i-1].TotalScore)
		}
	}
}

func TestTreapStore_CloseIsIdempotent(t *testing.T) {
	store := NewTreapStore(context.Background(), WithMetricsUpdateInterval(10*time.Millisecond))
	if err := store.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("unexpected error on second close: %v", err)
	}
}
