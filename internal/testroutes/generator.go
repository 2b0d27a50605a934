package testroutes

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/grimpeur/ascent/pkg/logger"
)

// Profile generation constants. Points are spaced stepM apart along a
// meridian so cumulative distance is predictable.
const (
	stepM          = 100.0
	stepDegLat     = stepM / 111195.0
	baseLat        = 45.0
	baseLon        = 7.0
	baseElevationM = 250.0
	noiseDivisor   = 1000
)

// profileKind names the route shapes the generator produces.
const (
	kindFlat         = "flat"
	kindNoisyFlat    = "noisy-flat"
	kindSingleClimb  = "single-climb"
	kindMultiClimb   = "multi-climb"
	kindSubThreshold = "sub-threshold"
	kindHorsCat      = "hors-categorie"
)

// profileKinds cycles deterministically so every run covers all shapes.
var profileKinds = []string{
	kindFlat, kindNoisyFlat, kindSingleClimb,
	kindMultiClimb, kindSubThreshold, kindHorsCat,
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(noiseDivisor))
	return float64(n.Int64()) / float64(noiseDivisor)
}

// generateRoutes creates the requested number of route cases, cycling
// through the profile shapes.
func generateRoutes(ctx context.Context, config *Config, stats *Stats) ([]RouteCase, error) {
	logger.Get().Info(ctx, "generating synthetic routes", logger.Int("numRoutes", config.NumRoutes))

	routes := make([]RouteCase, config.NumRoutes)
	for i := 0; i < config.NumRoutes; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during route generation: %w", err)
		}
		kind := profileKinds[i%len(profileKinds)]
		routes[i] = generateSingleRoute(i, kind)
	}

	stats.RoutesGenerated = len(routes)
	logger.Get().Info(ctx, "generated routes successfully", logger.Int("count", len(routes)))

	return routes, nil
}

// generateSingleRoute builds one GPX document of the given shape. The
// index salts the elevations so no two documents share a fingerprint.
func generateSingleRoute(index int, kind string) RouteCase {
	// A per-route elevation offset below 50m keeps every document unique
	// without changing any gradient.
	salt := float64(index%500) / 10.0

	rc := RouteCase{
		Name: fmt.Sprintf("%s-%04d", kind, index),
		Kind: kind,
	}

	var elevations []float64
	switch kind {
	case kindFlat:
		// 10km dead flat: no climbs.
		elevations = flatProfile(100, salt)
		rc.ExpectClimbs = 0
	case kindNoisyFlat:
		// 10km with sub-metre noise: smoothing must suppress it.
		elevations = noisyProfile(100, salt)
		rc.ExpectClimbs = 0
	case kindSingleClimb:
		// 2km flat, 6km at 6% (360m gain), 4km descent: one cat 3 climb.
		elevations = concat(
			flatProfile(20, salt),
			rampProfile(60, 6, last(flatProfile(20, salt))),
		)
		elevations = concat(elevations, rampProfile(40, -3, last(elevations)))
		rc.ExpectClimbs = 1
		rc.ExpectCategory = "3"
	case kindMultiClimb:
		// Two climbs split by a 3km descent: 4km at 6% (cat 4) and
		// 5km at 7% (cat 3).
		elevations = flatProfile(10, salt)
		elevations = concat(elevations, rampProfile(40, 6, last(elevations)))
		elevations = concat(elevations, rampProfile(30, -4, last(elevations)))
		elevations = concat(elevations, rampProfile(50, 7, last(elevations)))
		rc.ExpectClimbs = 2
		rc.ExpectCategory = "3"
	case kindSubThreshold:
		// A 400m bump at 4% gains only 16m: below the admission floor.
		elevations = flatProfile(30, salt)
		elevations = concat(elevations, rampProfile(4, 4, last(elevations)))
		elevations = concat(elevations, flatProfile(30, last(elevations)-baseElevationM))
		rc.ExpectClimbs = 0
	case kindHorsCat:
		// 16km at 8% gains 1280m: hors categorie.
		elevations = concat(flatProfile(10, salt), rampProfile(160, 8, baseElevationM+salt))
		rc.ExpectClimbs = 1
		rc.ExpectCategory = "HC"
	}

	rc.GPX = buildGPX(rc.Name, elevations)
	return rc
}

// flatProfile yields n points at the base elevation plus offset.
func flatProfile(n int, offset float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = baseElevationM + offset
	}
	return out
}

// noisyProfile yields n points with random sub-metre jitter.
func noisyProfile(n int, offset float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = baseElevationM + offset + (getRandomFloat()-0.5)*1.5
	}
	return out
}

// rampProfile yields n points climbing at gradientPct from the start
// elevation, one step per point.
func rampProfile(n int, gradientPct, startElevation float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = startElevation + float64(i+1)*stepM*gradientPct/100
	}
	return out
}

func concat(a, b []float64) []float64 {
	return append(a, b...)
}

func last(s []float64) float64 {
	return s[len(s)-1]
}

// buildGPX renders the elevation series as a GPX track heading due north.
func buildGPX(name string, elevations []float64) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<gpx version="1.1" creator="ascent-test"><trk><name>`)
	b.WriteString(name)
	b.WriteString(`</name><trkseg>` + "\n")
	for i, ele := range elevations {
		fmt.Fprintf(&b, `<trkpt lat="%.7f" lon="%.7f"><ele>%.2f</ele></trkpt>`+"\n",
			baseLat+float64(i)*stepDegLat, baseLon, ele)
	}
	b.WriteString(`</trkseg></trk></gpx>` + "\n")
	return []byte(b.String())
}
