package testroutes

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// getRanking retrieves the top N ranking entries.
func getRanking(ctx context.Context, config *Config, stats *Stats) ([]RankedRoute, error) {
	log.Printf("Getting top %d ranking entries...", config.TopN)

	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/routes/top?n=%d", config.BaseURL, config.TopN)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var ranking []RankedRoute
	if err := json.Unmarshal(body, &ranking); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.RankingEntries = len(ranking)
	log.Printf("Retrieved %d ranking entries", len(ranking))

	return ranking, nil
}

// verifyRanking checks the ranking is ordered and consistent with the
// climb counts the analyses reported.
func verifyRanking(ctx context.Context, routes []RouteCase, ranking []RankedRoute) error {
	log.Println("Verifying ranking...")

	if len(ranking) == 0 {
		return fmt.Errorf("empty ranking")
	}

	for i := 1; i < len(ranking); i++ {
		if ranking[i].TotalScore > ranking[i-1].TotalScore {
			return fmt.Errorf("ranking not sorted: entry %d outscores entry %d", i, i-1)
		}
	}

	// Flat routes never outrank routes with climbs.
	climbless := make(map[string]bool)
	for _, rc := range routes {
		if rc.RouteID != "" && rc.ExpectClimbs == 0 {
			climbless[rc.RouteID] = true
		}
	}
	for _, entry := range ranking {
		if climbless[entry.RouteID] && entry.TotalScore > 0 {
			return fmt.Errorf("flat route %s carries a nonzero score %.1f", entry.RouteID, entry.TotalScore)
		}
	}

	top := ranking[0]
	log.Printf("Hardest route: %s (climbs: %d, score: %.1f)", top.Name, top.ClimbCount, top.TotalScore)

	log.Println("Ranking verification completed")
	return nil
}
