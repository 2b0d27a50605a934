package testroutes

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// verifyAnalyses polls the service until every accepted route has an
// analysis, then compares it against the expectation baked into its case.
func verifyAnalyses(ctx context.Context, config *Config, routes []RouteCase, stats *Stats) error {
	log.Printf("Verifying analyses for %d routes with %d workers...", len(routes), config.Workers)

	client := newHTTPClient(config.Timeout)

	var (
		retrieved int64
		mismatch  int64
	)

	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indexChan {
				rc := &routes[index]
				if rc.RouteID == "" {
					continue // never accepted
				}

				analysis, err := awaitAnalysis(ctx, client, config.BaseURL, rc.RouteID)
				if err != nil {
					atomic.AddInt64(&mismatch, 1)
					log.Printf("route %s (%s): analysis never appeared: %v", rc.Name, rc.RouteID, err)
					continue
				}
				atomic.AddInt64(&retrieved, 1)

				if err := checkExpectation(rc, analysis); err != nil {
					atomic.AddInt64(&mismatch, 1)
					log.Printf("route %s: %v", rc.Name, err)
				} else if config.Verbose {
					log.Printf("route %s: %d climbs as expected", rc.Name, len(analysis.Climbs))
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range routes {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	stats.AnalysesRetrieved = int(atomic.LoadInt64(&retrieved))
	stats.ExpectationsFailed = int(atomic.LoadInt64(&mismatch))

	log.Printf(`Analysis verification completed:
   Retrieved: %d
   Mismatches: %d
`, stats.AnalysesRetrieved, stats.ExpectationsFailed)

	if stats.ExpectationsFailed > 0 {
		return fmt.Errorf("%d routes did not match their expected analysis", stats.ExpectationsFailed)
	}
	return nil
}

// awaitAnalysis polls GET /routes/{id} until the async pipeline stores it.
func awaitAnalysis(ctx context.Context, client *HTTPClient, baseURL, routeID string) (AnalysisResponse, error) {
	url := fmt.Sprintf("%s/routes/%s", baseURL, routeID)
	deadline := time.Now().Add(AnalysisPollTimeout)

	for {
		resp, err := client.Get(ctx, url)
		if err != nil {
			return AnalysisResponse{}, fmt.Errorf("request failed: %w", err)
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return AnalysisResponse{}, fmt.Errorf("failed to read response: %w", err)
		}

		switch resp.StatusCode {
		case StatusOK:
			var analysis AnalysisResponse
			if err := json.Unmarshal(body, &analysis); err != nil {
				return AnalysisResponse{}, fmt.Errorf("failed to parse response: %w", err)
			}
			return analysis, nil
		case StatusNotFound:
			// still in the queue
		default:
			return AnalysisResponse{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}

		if time.Now().After(deadline) {
			return AnalysisResponse{}, fmt.Errorf("timed out after %s", AnalysisPollTimeout)
		}
		select {
		case <-ctx.Done():
			return AnalysisResponse{}, ctx.Err()
		case <-time.After(AnalysisPollInterval):
		}
	}
}

// checkExpectation compares a retrieved analysis against its route case.
func checkExpectation(rc *RouteCase, analysis AnalysisResponse) error {
	if len(analysis.Climbs) != rc.ExpectClimbs {
		return fmt.Errorf("expected %d climbs, got %d", rc.ExpectClimbs, len(analysis.Climbs))
	}
	if rc.ExpectCategory == "" {
		return nil
	}
	hardest := hardestCategory(analysis.Climbs)
	if hardest != rc.ExpectCategory {
		return fmt.Errorf("expected hardest category %s, got %s", rc.ExpectCategory, hardest)
	}
	return nil
}

// categoryRank orders categories hardest first for comparison.
var categoryRank = map[string]int{"HC": 0, "1": 1, "2": 2, "3": 3, "4": 4}

func hardestCategory(climbs []Climb) string {
	best := ""
	bestRank := len(categoryRank)
	for _, c := range climbs {
		if r, ok := categoryRank[c.Category]; ok && r < bestRank {
			best = c.Category
			bestRank = r
		}
	}
	return best
}
