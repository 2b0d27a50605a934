// Package gpx turns an uploaded GPX file into an elevation profile. It is
// the only place the service touches a file format; everything downstream
// works on cumulative distance and elevation.
package gpx

import (
	"context"
	"fmt"
	"time"

	gpxgo "github.com/tkrajina/gpxgo/gpx"

	"github.com/grimpeur/ascent/internal/domain/model"
	"github.com/grimpeur/ascent/pkg/metrics"
)

// minProfilePoints is the smallest profile detection can run on.
const minProfilePoints = 2

// Parser builds route data from raw GPX bytes.
type Parser struct{}

// NewParser creates a GPX parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse flattens all tracks and segments of the document in order into one
// profile. Cumulative distance comes from the 2D haversine distance between
// consecutive points, so the profile is monotonic by construction. Points
// without elevation data are skipped.
func (p *Parser) Parse(ctx context.Context, data []byte) (model.RouteData, error) {
	start := time.Now()
	defer func() {
		metrics.RecordParseLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := ctx.Err(); err != nil {
		return model.RouteData{}, fmt.Errorf("gpx parse: %w", err)
	}

	doc, err := gpxgo.ParseBytes(data)
	if err != nil {
		metrics.RecordParseError()
		return model.RouteData{}, fmt.Errorf("%w: %w", ErrUnparseable, err)
	}

	var (
		points []model.TrackPoint
		coords []model.GeoPoint
		total  float64
		prev   *gpxgo.GPXPoint
	)
	for ti := range doc.Tracks {
		for si := range doc.Tracks[ti].Segments {
			seg := &doc.Tracks[ti].Segments[si]
			for pi := range seg.Points {
				pt := &seg.Points[pi]
				if pt.Elevation.Null() {
					continue
				}
				if prev != nil {
					total += prev.Distance2D(pt)
				}
				points = append(points, model.TrackPoint{
					DistanceM:  total,
					ElevationM: pt.Elevation.Value(),
				})
				coords = append(coords, model.GeoPoint{Lat: pt.Latitude, Lon: pt.Longitude})
				prev = pt
			}
		}
	}

	if len(points) == 0 {
		metrics.RecordParseError()
		return model.RouteData{}, ErrNoTrack
	}
	if len(points) < minProfilePoints {
		metrics.RecordParseError()
		return model.RouteData{}, fmt.Errorf("%w: got %d", ErrTooFewPoints, len(points))
	}

	return model.RouteData{
		Name:   routeName(doc),
		Points: points,
		Coords: coords,
	}, nil
}

// routeName prefers the first track's name, then the document name.
func routeName(doc *gpxgo.GPX) string {
	for i := range doc.Tracks {
		if doc.Tracks[i].Name != "" {
			return doc.Tracks[i].Name
		}
	}
	if doc.Name != "" {
		return doc.Name
	}
	return "Unnamed route"
}
