package config_test

import (
	"runtime"
	"testing"

	"github.com/grimpeur/ascent/internal/config"
	"github.com/grimpeur/ascent/internal/domain/detect"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.MaxUploadBytes, convey.ShouldEqual, 8<<20)
			convey.So(cfg.MaxListLimit, convey.ShouldEqual, 100)
			convey.So(cfg.StoreCapacity, convey.ShouldEqual, 10_000)
		})

		convey.Convey("Then detection defaults should match the detector's", func() {
			d := detect.DefaultConfig()
			convey.So(cfg.MinGradientPct, convey.ShouldEqual, d.MinGradientPct)
			convey.So(cfg.MinElevationGainM, convey.ShouldEqual, d.MinElevationGainM)
			convey.So(cfg.BreakGradientPct, convey.ShouldEqual, d.BreakGradientPct)
			convey.So(cfg.SmoothingWindow, convey.ShouldEqual, d.SmoothingWindow)
			convey.So(cfg.MergeGapM, convey.ShouldEqual, d.MergeGapM)
		})

		convey.Convey("Then Strava integration should be off without credentials", func() {
			convey.So(cfg.StravaEnabled(), convey.ShouldBeFalse)
			convey.So(cfg.SampleIntervalM, convey.ShouldEqual, 500)
			convey.So(cfg.ExploreRadiusM, convey.ShouldEqual, 150)
			convey.So(cfg.OverlapThreshold, convey.ShouldEqual, 0.6)
			convey.So(cfg.StravaPauseMS, convey.ShouldEqual, 250)
		})
	})
}

func TestConfig_Detection(t *testing.T) {
	convey.Convey("Given a config with category overrides", t, func() {
		cfg := config.New()
		cfg.Categories = []config.CategoryThreshold{
			{Name: "hard", MinGainM: 400, MinScore: 2000},
			{Name: "easy", MinGainM: 0, MinScore: 0},
		}

		convey.Convey("When converting to a detection config", func() {
			dc := cfg.Detection()

			convey.Convey("Then the table carries over", func() {
				convey.So(len(dc.Categories), convey.ShouldEqual, 2)
				convey.So(dc.Categories[0].Name, convey.ShouldEqual, "hard")
				convey.So(dc.Categories[0].MinGainM, convey.ShouldEqual, 400)
				convey.So(dc.Validate(), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a config without category overrides", t, func() {
		dc := config.New().Detection()

		convey.Convey("Then the detection config validates with the builtin table", func() {
			convey.So(dc.Categories, convey.ShouldBeNil)
			convey.So(dc.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_StravaEnabled(t *testing.T) {
	convey.Convey("Given Strava credentials", t, func() {
		cfg := config.New()
		cfg.StravaClientID = "12345"
		cfg.StravaClientSecret = "shhh"

		convey.Convey("Then the integration reports enabled", func() {
			convey.So(cfg.StravaEnabled(), convey.ShouldBeTrue)
		})

		convey.Convey("When either credential is missing", func() {
			cfg.StravaClientSecret = ""

			convey.Convey("Then the integration reports disabled", func() {
				convey.So(cfg.StravaEnabled(), convey.ShouldBeFalse)
			})
		})
	})
}
