package detect

import (
	"math"
	"testing"

	"github.com/grimpeur/ascent/internal/domain/model"
)

// rollingProfile builds a long profile with repeating climbs and descents.
func rollingProfile(points int) []model.TrackPoint {
	profile := make([]model.TrackPoint, points)
	for i := range profile {
		d := float64(i) * 25
		profile[i] = model.TrackPoint{
			DistanceM:  d,
			ElevationM: 500 + 400*math.Sin(d/4000) + 15*math.Sin(d/180),
		}
	}
	return profile
}

func BenchmarkDetect(b *testing.B) {
	profile := rollingProfile(50_000)
	cfg := DefaultConfig()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Detect(profile, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSmooth(b *testing.B) {
	profile := rollingProfile(50_000)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		smooth(profile, defaultSmoothingWindow)
	}
}

func BenchmarkGradients(b *testing.B) {
	profile := rollingProfile(50_000)
	elev := smooth(profile, defaultSmoothingWindow)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		gradients(profile, elev)
	}
}
