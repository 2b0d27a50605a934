// Package render turns route analyses into visual artifacts: an
// interactive HTML elevation chart and a static PNG profile.
package render

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/grimpeur/ascent/internal/domain/model"
	"github.com/grimpeur/ascent/pkg/metrics"
)

// Default renderer configuration constants.
const (
	defaultMaxChartPoints = 2000
	defaultPNGWidthIn     = 14
	defaultPNGHeightIn    = 6
)

// Renderer produces elevation profile visualizations.
type Renderer struct {
	maxChartPoints int
	pngWidthIn     float64
	pngHeightIn    float64
}

// NewRenderer creates a renderer with configuration options.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		maxChartPoints: defaultMaxChartPoints,
		pngWidthIn:     defaultPNGWidthIn,
		pngHeightIn:    defaultPNGHeightIn,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// profileElevations picks the smoothed profile when available, raw
// elevations otherwise. The two are parallel to a.Points by index.
func profileElevations(a model.Analysis) []float64 {
	if len(a.SmoothedElevationM) == len(a.Points) {
		return a.SmoothedElevationM
	}
	elev := make([]float64, len(a.Points))
	for i, p := range a.Points {
		elev[i] = p.ElevationM
	}
	return elev
}

// climbCategoryAt returns the category of the climb covering distance d,
// or "" when d lies outside every climb.
func climbCategoryAt(climbs []model.Climb, d float64) string {
	for _, c := range climbs {
		if d >= c.StartDistanceM && d <= c.EndDistanceM {
			return c.Category
		}
	}
	return ""
}

// Chart renders an interactive HTML elevation chart for one analysis.
// The smoothed profile is drawn in gray with one overlay series per climb
// category present, plus a summit marker at the top of every climb.
func (r *Renderer) Chart(a model.Analysis) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRenderLatency("chart", float64(time.Since(start).Milliseconds()))
	}()

	if len(a.Points) == 0 {
		metrics.RecordRenderError("chart")
		return nil, ErrEmptyProfile
	}

	elev := profileElevations(a)

	// Downsample by stride to keep the page light on long routes.
	stride := 1
	if len(a.Points) > r.maxChartPoints {
		stride = int(math.Ceil(float64(len(a.Points)) / float64(r.maxChartPoints)))
	}

	xLabels := make([]string, 0, len(a.Points)/stride+1)
	base := make([]opts.LineData, 0, len(a.Points)/stride+1)
	perCategory := make(map[string][]opts.LineData, len(categoryOrder))
	present := make(map[string]bool, len(categoryOrder))

	for i := 0; i < len(a.Points); i += stride {
		d := a.Points[i].DistanceM
		label := fmt.Sprintf("%.2f", d/1000)
		xLabels = append(xLabels, label)
		base = append(base, opts.LineData{Value: elev[i]})

		cat := climbCategoryAt(a.Climbs, d)
		for _, c := range categoryOrder {
			v := interface{}("-") // missing value, leaves a gap in the series
			if c == cat {
				v = elev[i]
				present[c] = true
			}
			perCategory[c] = append(perCategory[c], opts.LineData{Value: v})
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: a.Route.Name,
			Width:     "1200px",
			Height:    "520px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: a.Route.Name,
			Subtitle: fmt.Sprintf("%.1f km, %.0f m ascent, %d climbs, score %.0f",
				a.Route.TotalDistanceM/1000, a.Stats.TotalAscentM, len(a.Climbs), a.TotalDifficultyScore()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Distance (km)", NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Elevation (m)", NameLocation: "middle", NameGap: 45, Scale: opts.Bool(true)}),
	)

	line.SetXAxis(xLabels).AddSeries("elevation", base,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(false)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorBase}),
		charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.15)}),
	)

	for _, cat := range categoryOrder {
		if !present[cat] {
			continue
		}
		line.AddSeries("cat "+cat, perCategory[cat],
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: categoryColor(cat)}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.35)}),
		)
	}

	// Summit markers at the top of every climb.
	summits := make([]opts.ScatterData, 0, len(a.Climbs))
	for _, c := range a.Climbs {
		summits = append(summits, opts.ScatterData{
			Name:  fmt.Sprintf("cat %s summit", c.Category),
			Value: []interface{}{fmt.Sprintf("%.2f", c.EndDistanceM/1000), c.EndElevationM},
		})
	}
	if len(summits) > 0 {
		scatter := charts.NewScatter()
		scatter.AddSeries("summits", summits,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#1D3557"}),
		)
		line.Overlap(scatter)
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		metrics.RecordRenderError("chart")
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}
