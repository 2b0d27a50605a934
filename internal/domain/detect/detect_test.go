package detect_test

import (
	"errors"
	"reflect"
	"testing"

	detect "github.com/grimpeur/ascent/internal/domain/detect"
	"github.com/grimpeur/ascent/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// linearProfile builds points every stepM meters rising riseM per step.
func linearProfile(points int, stepM, riseM float64) []model.TrackPoint {
	profile := make([]model.TrackPoint, points)
	for i := range profile {
		profile[i] = model.TrackPoint{
			DistanceM:  float64(i) * stepM,
			ElevationM: float64(i) * riseM,
		}
	}
	return profile
}

// flatProfile builds points every stepM meters at a constant elevation.
func flatProfile(points int, stepM, elevM float64) []model.TrackPoint {
	profile := make([]model.TrackPoint, points)
	for i := range profile {
		profile[i] = model.TrackPoint{
			DistanceM:  float64(i) * stepM,
			ElevationM: elevM,
		}
	}
	return profile
}

func TestDetectScenarios(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		cfg := detect.DefaultConfig()

		Convey("When detecting on a flat route", func() {
			result, err := detect.Detect(flatProfile(100, 100, 250), cfg)

			Convey("Then no climbs are reported", func() {
				So(err, ShouldBeNil)
				So(result.Climbs, ShouldBeEmpty)
				So(len(result.SmoothedElevationM), ShouldEqual, 100)
			})
		})

		Convey("When detecting on a steady 10% rise of 1000 m over 10 km", func() {
			result, err := detect.Detect(linearProfile(101, 100, 10), cfg)

			Convey("Then exactly one hors-categorie climb is reported", func() {
				So(err, ShouldBeNil)
				So(len(result.Climbs), ShouldEqual, 1)

				climb := result.Climbs[0]
				So(climb.ElevationGainM, ShouldAlmostEqual, 1000, 0.5)
				So(climb.AvgGradientPct, ShouldAlmostEqual, 10, 0.05)
				So(climb.Category, ShouldEqual, "HC")
			})
		})

		Convey("When a 5% climb of 25 m gain has a one-sample dip in the middle", func() {
			profile := linearProfile(11, 50, 2.5)
			profile[5].ElevationM -= 1

			result, err := detect.Detect(profile, cfg)

			Convey("Then it is still reported as a single climb", func() {
				So(err, ShouldBeNil)
				So(len(result.Climbs), ShouldEqual, 1)
				So(result.Climbs[0].StartDistanceM, ShouldEqual, 0)
				So(result.Climbs[0].EndDistanceM, ShouldEqual, 500)
				So(result.Climbs[0].ElevationGainM, ShouldBeGreaterThanOrEqualTo, cfg.MinElevationGainM)
			})
		})

		Convey("When a rise stays below the minimum gain", func() {
			// 10 m over 100 m is steep but too small to count.
			result, err := detect.Detect(linearProfile(11, 10, 1), cfg)

			Convey("Then the result is empty", func() {
				So(err, ShouldBeNil)
				So(result.Climbs, ShouldBeEmpty)
			})
		})

		Convey("When the profile contains duplicate-distance points", func() {
			profile := []model.TrackPoint{
				{DistanceM: 0, ElevationM: 0},
				{DistanceM: 100, ElevationM: 10},
				{DistanceM: 100, ElevationM: 10},
				{DistanceM: 200, ElevationM: 20},
				{DistanceM: 300, ElevationM: 30},
			}
			cfg.SmoothingWindow = 1

			result, err := detect.Detect(profile, cfg)

			Convey("Then the zero-length step is skipped, not an error", func() {
				So(err, ShouldBeNil)
				So(len(result.Climbs), ShouldEqual, 1)
				So(result.Climbs[0].ElevationGainM, ShouldAlmostEqual, 30)
				So(result.Climbs[0].MaxGradientPct, ShouldAlmostEqual, 10)
			})
		})
	})
}

// twoClimbProfile builds two 10% climbs of 50 m gain each, separated by a
// 1 m descent step and then a flat run, with gapM meters between the end
// of the first climb and the start of the second. Smoothing must be off
// for the distances to stay exact.
func twoClimbProfile(gapM float64) []model.TrackPoint {
	var profile []model.TrackPoint
	// First climb: 0..500 m, 0..50 m elevation.
	for i := 0; i <= 5; i++ {
		profile = append(profile, model.TrackPoint{
			DistanceM:  float64(i) * 100,
			ElevationM: float64(i) * 10,
		})
	}
	// Breaking descent right after the top, then flat until the gap ends.
	profile = append(profile, model.TrackPoint{DistanceM: 600, ElevationM: 49})
	start := 500 + gapM
	profile = append(profile, model.TrackPoint{DistanceM: start, ElevationM: 49})
	// Second climb: 50 m gain at 10%.
	for i := 1; i <= 5; i++ {
		profile = append(profile, model.TrackPoint{
			DistanceM:  start + float64(i)*100,
			ElevationM: 49 + float64(i)*10,
		})
	}
	return profile
}

func TestDetectMerging(t *testing.T) {
	Convey("Given two candidate climbs and no smoothing", t, func() {
		cfg := detect.DefaultConfig()
		cfg.SmoothingWindow = 1

		Convey("When the gap equals the merge distance", func() {
			result, err := detect.Detect(twoClimbProfile(cfg.MergeGapM), cfg)

			Convey("Then the candidates merge into one climb", func() {
				So(err, ShouldBeNil)
				So(len(result.Climbs), ShouldEqual, 1)

				climb := result.Climbs[0]
				So(climb.StartDistanceM, ShouldEqual, 0)
				So(climb.EndDistanceM, ShouldEqual, 500+cfg.MergeGapM+500)

				Convey("And the gain is the span's net rise, not the sum of the parts", func() {
					So(climb.ElevationGainM, ShouldAlmostEqual, 99)
				})

				Convey("And the max gradient comes from the original samples", func() {
					So(climb.MaxGradientPct, ShouldAlmostEqual, 10)
				})
			})
		})

		Convey("When the gap exceeds the merge distance", func() {
			result, err := detect.Detect(twoClimbProfile(cfg.MergeGapM+0.5), cfg)

			Convey("Then the candidates stay separate", func() {
				So(err, ShouldBeNil)
				So(len(result.Climbs), ShouldEqual, 2)

				Convey("And the climbs are ordered and non-overlapping", func() {
					So(result.Climbs[0].StartDistanceM, ShouldBeLessThan, result.Climbs[1].StartDistanceM)
					So(result.Climbs[0].EndDistanceM, ShouldBeLessThanOrEqualTo, result.Climbs[1].StartDistanceM)
				})

				Convey("And both satisfy the admission thresholds", func() {
					for _, climb := range result.Climbs {
						So(climb.ElevationGainM, ShouldBeGreaterThanOrEqualTo, cfg.MinElevationGainM)
						So(climb.AvgGradientPct, ShouldBeGreaterThanOrEqualTo, cfg.MinGradientPct)
					}
				})
			})
		})

		Convey("When a chain of three candidates sits within the merge distance", func() {
			var profile []model.TrackPoint
			dist, elev := 0.0, 0.0
			for part := 0; part < 3; part++ {
				for i := 0; i < 5; i++ {
					profile = append(profile, model.TrackPoint{DistanceM: dist, ElevationM: elev})
					dist += 100
					elev += 10
				}
				profile = append(profile, model.TrackPoint{DistanceM: dist, ElevationM: elev})
				// Short dip that closes the segment but stays mergeable.
				dist += 50
				elev -= 1
				profile = append(profile, model.TrackPoint{DistanceM: dist, ElevationM: elev})
			}

			result, err := detect.Detect(profile, cfg)

			Convey("Then the chain collapses transitively into one climb", func() {
				So(err, ShouldBeNil)
				So(len(result.Climbs), ShouldEqual, 1)
			})
		})
	})
}

func TestDetectCategories(t *testing.T) {
	Convey("Given profiles engineered for each tier", t, func() {
		cfg := detect.DefaultConfig()
		cfg.SmoothingWindow = 1

		cases := []struct {
			name     string
			points   int
			stepM    float64
			riseM    float64
			category string
		}{
			{"a 50 m rise at 5%", 11, 100, 5, "4"},
			{"a 350 m rise at 7%", 51, 100, 7, "3"},
			{"a 600 m rise at 7.5%", 81, 100, 7.5, "2"},
			{"an 850 m rise at 7.1%", 121, 100, 850.0 / 120.0, "1"},
			{"a 1000 m rise at 10%", 101, 100, 10, "HC"},
		}

		for _, tc := range cases {
			tc := tc
			Convey("When detecting on "+tc.name, func() {
				result, err := detect.Detect(linearProfile(tc.points, tc.stepM, tc.riseM), cfg)

				Convey("Then the climb lands in category "+tc.category, func() {
					So(err, ShouldBeNil)
					So(len(result.Climbs), ShouldEqual, 1)
					So(result.Climbs[0].Category, ShouldEqual, tc.category)
				})
			})
		}

		Convey("When a custom table is supplied", func() {
			cfg.Categories = []detect.CategoryThreshold{
				{Name: "brutal", MinGainM: 500, MinScore: 4000},
				{Name: "honest", MinGainM: 0, MinScore: 0},
			}

			result, err := detect.Detect(linearProfile(101, 100, 10), cfg)

			Convey("Then its names are used", func() {
				So(err, ShouldBeNil)
				So(len(result.Climbs), ShouldEqual, 1)
				So(result.Climbs[0].Category, ShouldEqual, "brutal")
			})
		})
	})
}

func TestDetectDeterminism(t *testing.T) {
	Convey("Given an arbitrary hilly profile", t, func() {
		profile := make([]model.TrackPoint, 0, 400)
		elev := 100.0
		for i := 0; i < 400; i++ {
			// Repeatable pseudo-terrain: rises for 60 points, falls for 40.
			if i%100 < 60 {
				elev += 4
			} else {
				elev -= 3
			}
			profile = append(profile, model.TrackPoint{DistanceM: float64(i) * 50, ElevationM: elev})
		}
		cfg := detect.DefaultConfig()

		Convey("When detecting twice on the same input", func() {
			first, err1 := detect.Detect(profile, cfg)
			second, err2 := detect.Detect(profile, cfg)

			Convey("Then the outputs are identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(reflect.DeepEqual(first, second), ShouldBeTrue)
			})

			Convey("And every climb satisfies the admission and ordering invariants", func() {
				So(len(first.Climbs), ShouldBeGreaterThan, 0)
				for i, climb := range first.Climbs {
					So(climb.ElevationGainM, ShouldBeGreaterThanOrEqualTo, cfg.MinElevationGainM)
					So(climb.AvgGradientPct, ShouldBeGreaterThanOrEqualTo, cfg.MinGradientPct)
					So(climb.LengthM, ShouldBeGreaterThan, 0)
					So(climb.EndDistanceM, ShouldBeGreaterThan, climb.StartDistanceM)
					if i > 0 {
						So(climb.StartDistanceM, ShouldBeGreaterThanOrEqualTo, first.Climbs[i-1].EndDistanceM)
					}
				}
			})
		})
	})
}

func TestDetectInvalidInput(t *testing.T) {
	Convey("Given invalid profiles", t, func() {
		cfg := detect.DefaultConfig()

		Convey("When the profile has fewer than two points", func() {
			_, err := detect.Detect([]model.TrackPoint{{DistanceM: 0, ElevationM: 10}}, cfg)

			Convey("Then detection fails with the input sentinel", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, detect.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When a distance is negative", func() {
			profile := []model.TrackPoint{
				{DistanceM: -5, ElevationM: 0},
				{DistanceM: 100, ElevationM: 10},
			}
			_, err := detect.Detect(profile, cfg)

			Convey("Then detection fails with the input sentinel", func() {
				So(errors.Is(err, detect.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When distances decrease", func() {
			profile := []model.TrackPoint{
				{DistanceM: 0, ElevationM: 0},
				{DistanceM: 200, ElevationM: 10},
				{DistanceM: 100, ElevationM: 20},
			}
			_, err := detect.Detect(profile, cfg)

			Convey("Then detection fails with the input sentinel", func() {
				So(errors.Is(err, detect.ErrInvalidInput), ShouldBeTrue)
			})
		})
	})
}

func TestConfigValidation(t *testing.T) {
	Convey("Given configuration variants", t, func() {
		Convey("When the defaults are validated", func() {
			So(detect.DefaultConfig().Validate(), ShouldBeNil)
		})

		Convey("When a threshold is negative", func() {
			for _, mutate := range []func(*detect.Config){
				func(c *detect.Config) { c.MinGradientPct = -1 },
				func(c *detect.Config) { c.MinElevationGainM = -1 },
				func(c *detect.Config) { c.BreakGradientPct = -1 },
				func(c *detect.Config) { c.MergeGapM = -1 },
			} {
				cfg := detect.DefaultConfig()
				mutate(&cfg)
				So(errors.Is(cfg.Validate(), detect.ErrInvalidConfig), ShouldBeTrue)
			}
		})

		Convey("When the continuation threshold reaches the entry threshold", func() {
			cfg := detect.DefaultConfig()
			cfg.BreakGradientPct = cfg.MinGradientPct

			So(errors.Is(cfg.Validate(), detect.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When the smoothing window is even or non-positive", func() {
			for _, window := range []int{0, -3, 4} {
				cfg := detect.DefaultConfig()
				cfg.SmoothingWindow = window
				So(errors.Is(cfg.Validate(), detect.ErrInvalidConfig), ShouldBeTrue)
			}
		})

		Convey("When the category table does not descend strictly", func() {
			cfg := detect.DefaultConfig()
			cfg.Categories = []detect.CategoryThreshold{
				{Name: "HC", MinGainM: 800, MinScore: 5000},
				{Name: "1", MinGainM: 800, MinScore: 4000},
				{Name: "4", MinGainM: 0, MinScore: 0},
			}

			So(errors.Is(cfg.Validate(), detect.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When the final category is not a catch-all", func() {
			cfg := detect.DefaultConfig()
			cfg.Categories = []detect.CategoryThreshold{
				{Name: "HC", MinGainM: 1200, MinScore: 8000},
				{Name: "1", MinGainM: 800, MinScore: 5000},
			}

			So(errors.Is(cfg.Validate(), detect.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When a category has no name", func() {
			cfg := detect.DefaultConfig()
			cfg.Categories = []detect.CategoryThreshold{
				{Name: "", MinGainM: 0, MinScore: 0},
			}

			So(errors.Is(cfg.Validate(), detect.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When an invalid config reaches Detect", func() {
			cfg := detect.DefaultConfig()
			cfg.SmoothingWindow = 2

			_, err := detect.Detect(linearProfile(10, 100, 5), cfg)

			Convey("Then it fails before touching the profile", func() {
				So(errors.Is(err, detect.ErrInvalidConfig), ShouldBeTrue)
			})
		})
	})
}
