package render

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/grimpeur/ascent/internal/domain/model"
	"github.com/grimpeur/ascent/pkg/metrics"
)

// ProfilePNG renders a static elevation profile image. The smoothed
// profile is drawn as a line, every climb gets a filled band in its
// category color, and summits are marked with a dot.
func (r *Renderer) ProfilePNG(a model.Analysis) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRenderLatency("png", float64(time.Since(start).Milliseconds()))
	}()

	if len(a.Points) == 0 {
		metrics.RecordRenderError("png")
		return nil, ErrEmptyProfile
	}

	elev := profileElevations(a)

	p := plot.New()
	p.Title.Text = a.Route.Name
	p.X.Label.Text = "Distance (km)"
	p.Y.Label.Text = "Elevation (m)"

	floor := elev[0]
	profile := make(plotter.XYs, len(a.Points))
	for i, pt := range a.Points {
		profile[i] = plotter.XY{X: pt.DistanceM / 1000, Y: elev[i]}
		if elev[i] < floor {
			floor = elev[i]
		}
	}

	// Filled bands per climb, under the profile down to the lowest point.
	legendDone := make(map[string]bool, len(categoryOrder))
	for _, c := range a.Climbs {
		band := climbBand(a.Points, elev, c, floor)
		if len(band) < 3 {
			continue
		}
		poly, err := plotter.NewPolygon(band)
		if err != nil {
			metrics.RecordRenderError("png")
			return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
		}
		poly.Color = categoryFill(c.Category)
		poly.LineStyle.Color = color.Transparent
		p.Add(poly)
		if !legendDone[c.Category] {
			p.Legend.Add("cat "+c.Category, poly)
			legendDone[c.Category] = true
		}
	}

	line, err := plotter.NewLine(profile)
	if err != nil {
		metrics.RecordRenderError("png")
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	line.Color = color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xFF}
	line.Width = vg.Points(1)
	p.Add(line)

	if len(a.Climbs) > 0 {
		summits := make(plotter.XYs, len(a.Climbs))
		for i, c := range a.Climbs {
			summits[i] = plotter.XY{X: c.EndDistanceM / 1000, Y: c.EndElevationM}
		}
		scatter, err := plotter.NewScatter(summits)
		if err != nil {
			metrics.RecordRenderError("png")
			return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
		}
		scatter.GlyphStyle.Color = color.RGBA{R: 0x1D, G: 0x35, B: 0x57, A: 0xFF}
		scatter.GlyphStyle.Radius = vg.Points(2.5)
		p.Add(scatter)
	}

	p.Legend.Top = true
	p.Legend.Left = true

	wt, err := p.WriterTo(vg.Length(r.pngWidthIn)*vg.Inch, vg.Length(r.pngHeightIn)*vg.Inch, "png")
	if err != nil {
		metrics.RecordRenderError("png")
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		metrics.RecordRenderError("png")
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}

// climbBand builds the polygon outlining one climb: the profile between
// start and end, closed down to the floor elevation.
func climbBand(points []model.TrackPoint, elev []float64, c model.Climb, floor float64) plotter.XYs {
	band := make(plotter.XYs, 0, 16)
	band = append(band, plotter.XY{X: c.StartDistanceM / 1000, Y: floor})
	for i, pt := range points {
		if pt.DistanceM < c.StartDistanceM || pt.DistanceM > c.EndDistanceM {
			continue
		}
		band = append(band, plotter.XY{X: pt.DistanceM / 1000, Y: elev[i]})
	}
	band = append(band, plotter.XY{X: c.EndDistanceM / 1000, Y: floor})
	return band
}
