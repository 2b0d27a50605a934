package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/grimpeur/ascent/internal/domain/model"
	"github.com/grimpeur/ascent/pkg/logger"
	"github.com/grimpeur/ascent/pkg/metrics"
)

// matchToleranceM is how far a segment point may sit from the climb path
// and still count as overlapping.
const matchToleranceM = 30.0

// exploreResponse is the /segments/explore payload.
type exploreResponse struct {
	Segments []exploreSegment `json:"segments"`
}

type exploreSegment struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Points string `json:"points"` // encoded polyline
}

// segmentDetail is the subset of /segments/{id} we use.
type segmentDetail struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Distance      float64   `json:"distance"`
	AvgGrade      float64   `json:"average_grade"`
	ClimbCategory int       `json:"climb_category"`
	StartLatLng   []float64 `json:"start_latlng"`
	EndLatLng     []float64 `json:"end_latlng"`
	Map           struct {
		Polyline string `json:"polyline"`
	} `json:"map"`
	SummaryPolyline string `json:"summary_polyline"`
}

// SegmentMatch is one Strava segment overlapping a detected climb.
type SegmentMatch struct {
	SegmentID       int64   `json:"segment_id"`
	Name            string  `json:"name"`
	DistanceM       float64 `json:"distance_m"`
	AvgGradePct     float64 `json:"avg_grade_pct"`
	ClimbCategory   int     `json:"climb_category"`
	OverlapFraction float64 `json:"overlap_fraction"`
	ClimbIndex      int     `json:"climb_index"`
}

// MatchSegments finds Strava segments overlapping the detected climbs of
// an analysis. The route is sampled at the configured interval, segments
// are explored around every sample inside a climb, and each candidate's
// polyline is overlap-checked against the climb path.
func (c *Client) MatchSegments(ctx context.Context, token string, a model.Analysis) ([]SegmentMatch, error) {
	if len(a.Coords) != len(a.Points) || len(a.Points) == 0 || len(a.Climbs) == 0 {
		return nil, nil
	}

	sampled := sampleIndices(a.Points, c.cfg.SampleIntervalM)

	var matches []SegmentMatch
	seen := make(map[int64]bool)
	for ci, climb := range a.Climbs {
		climbPath := coordsInSpan(a, climb.StartDistanceM, climb.EndDistanceM)
		if len(climbPath) < 2 {
			continue
		}

		candidates, err := c.exploreClimb(ctx, token, a, sampled, climb)
		if err != nil {
			return matches, err
		}

		for _, id := range candidates {
			if seen[id] {
				continue
			}
			seen[id] = true

			detail, err := c.fetchSegment(ctx, token, id)
			if err != nil {
				return matches, err
			}

			frac := overlapFraction(segmentCoords(detail), climbPath)
			if frac < c.cfg.OverlapThreshold {
				continue
			}
			metrics.RecordSegmentMatch()
			matches = append(matches, SegmentMatch{
				SegmentID:       detail.ID,
				Name:            detail.Name,
				DistanceM:       detail.Distance,
				AvgGradePct:     detail.AvgGrade,
				ClimbCategory:   detail.ClimbCategory,
				OverlapFraction: frac,
				ClimbIndex:      ci,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].ClimbIndex != matches[j].ClimbIndex {
			return matches[i].ClimbIndex < matches[j].ClimbIndex
		}
		return matches[i].OverlapFraction > matches[j].OverlapFraction
	})

	c.logger.Debug(ctx, "segment matching done",
		logger.String("route_id", a.Route.ID),
		logger.Int("candidates", len(seen)),
		logger.Int("matches", len(matches)),
	)
	return matches, nil
}

// exploreClimb collects candidate segment IDs around every sampled point
// inside one climb.
func (c *Client) exploreClimb(ctx context.Context, token string, a model.Analysis, sampled []int, climb model.Climb) ([]int64, error) {
	var ids []int64
	seen := make(map[int64]bool)
	for _, idx := range sampled {
		d := a.Points[idx].DistanceM
		if d < climb.StartDistanceM || d > climb.EndDistanceM {
			continue
		}
		segs, err := c.explore(ctx, token, a.Coords[idx].Lat, a.Coords[idx].Lon)
		if err != nil {
			return ids, err
		}
		for _, s := range segs {
			if !seen[s.ID] {
				seen[s.ID] = true
				ids = append(ids, s.ID)
			}
		}
	}
	return ids, nil
}

// explore queries /segments/explore with a bounding box around a point.
func (c *Client) explore(ctx context.Context, token string, lat, lon float64) ([]exploreSegment, error) {
	latD := metersToDegLat(c.cfg.ExploreRadiusM)
	lonD := metersToDegLon(c.cfg.ExploreRadiusM, lat)
	bounds := fmt.Sprintf("%f,%f,%f,%f", lat-latD, lon-lonD, lat+latD, lon+lonD)

	var resp exploreResponse
	err := c.get(ctx, "/segments/explore", token, url.Values{
		"bounds":        {bounds},
		"activity_type": {"riding"},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Segments, nil
}

// fetchSegment returns segment detail, consulting the sqlite cache first.
func (c *Client) fetchSegment(ctx context.Context, token string, segID int64) (segmentDetail, error) {
	var detail segmentDetail

	if c.cache != nil {
		if raw, ok, err := c.cache.Lookup(ctx, segID); err == nil && ok {
			if err := json.Unmarshal(raw, &detail); err == nil {
				return detail, nil
			}
		}
	}

	var raw json.RawMessage
	if err := c.get(ctx, "/segments/"+strconv.FormatInt(segID, 10), token, nil, &raw); err != nil {
		return detail, err
	}
	if err := json.Unmarshal(raw, &detail); err != nil {
		return detail, fmt.Errorf("decode segment %d: %w", segID, err)
	}

	if c.cache != nil {
		if err := c.cache.Store(ctx, segID, raw); err != nil {
			c.logger.Warn(ctx, "segment cache store failed",
				logger.Int64("segment_id", segID),
				logger.Error(err),
			)
		}
	}
	return detail, nil
}

// segmentCoords returns the segment path: decoded polyline when present,
// otherwise the start/end straight line.
func segmentCoords(d segmentDetail) [][2]float64 {
	if d.Map.Polyline != "" {
		return decodePolyline(d.Map.Polyline)
	}
	if d.SummaryPolyline != "" {
		return decodePolyline(d.SummaryPolyline)
	}
	if len(d.StartLatLng) == 2 && len(d.EndLatLng) == 2 {
		return [][2]float64{
			{d.StartLatLng[0], d.StartLatLng[1]},
			{d.EndLatLng[0], d.EndLatLng[1]},
		}
	}
	return nil
}

// sampleIndices picks profile indices roughly every interval meters,
// always including the first point, deduplicated and ordered.
func sampleIndices(points []model.TrackPoint, intervalM float64) []int {
	total := points[len(points)-1].DistanceM
	if total <= 0 || intervalM <= 0 {
		return []int{0}
	}

	var indices []int
	last := -1
	for target := 0.0; target <= total; target += intervalM {
		idx := sort.Search(len(points), func(i int) bool {
			return points[i].DistanceM >= target
		})
		if idx >= len(points) {
			idx = len(points) - 1
		}
		if idx != last {
			indices = append(indices, idx)
			last = idx
		}
	}
	return indices
}

// coordsInSpan returns the coordinates of points inside a distance span.
func coordsInSpan(a model.Analysis, startM, endM float64) [][2]float64 {
	var out [][2]float64
	for i, p := range a.Points {
		if p.DistanceM < startM || p.DistanceM > endM {
			continue
		}
		out = append(out, [2]float64{a.Coords[i].Lat, a.Coords[i].Lon})
	}
	return out
}

// overlapFraction returns the fraction of the segment path lying within
// matchToleranceM of the climb path.
func overlapFraction(seg, climb [][2]float64) float64 {
	if len(seg) < 2 || len(climb) < 2 {
		return 0
	}

	within := func(p [2]float64) bool {
		for _, q := range climb {
			if haversineM(p[0], p[1], q[0], q[1]) <= matchToleranceM {
				return true
			}
		}
		return false
	}

	var total, matched float64
	prevIn := within(seg[0])
	for i := 1; i < len(seg); i++ {
		step := haversineM(seg[i-1][0], seg[i-1][1], seg[i][0], seg[i][1])
		total += step
		in := within(seg[i])
		if in && prevIn {
			matched += step
		}
		prevIn = in
	}
	if total <= 0 {
		return 0
	}
	return matched / total
}
