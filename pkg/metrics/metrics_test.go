package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRefreshInterval(10*time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given metrics recording", t, func() {
		Convey("When recording analysis metrics", func() {
			Convey("Then it should record analyzed routes", func() {
				So(func() {
					RecordRouteAnalyzed()
					RecordRouteAnalyzed()
				}, ShouldNotPanic)
			})

			Convey("And it should record duplicate uploads", func() {
				So(func() {
					RecordRouteDuplicate()
					RecordRouteDuplicate()
				}, ShouldNotPanic)
			})

			Convey("And it should record detected climbs by category", func() {
				So(func() {
					RecordClimbDetected("HC")
					RecordClimbDetected("1")
					RecordClimbDetected("4")
				}, ShouldNotPanic)
			})

			Convey("And it should record detection latency", func() {
				So(func() {
					RecordDetectionLatency(2.0)
					RecordDetectionLatency(15.0)
				}, ShouldNotPanic)
			})

			Convey("And it should record parse outcomes", func() {
				So(func() {
					RecordParseLatency(30.0)
					RecordParseError()
					RecordDetectionError()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording store metrics", func() {
			Convey("Then it should update stored routes", func() {
				So(func() {
					UpdateRoutesStored(10)
					UpdateRoutesStored(25)
				}, ShouldNotPanic)
			})

			Convey("And it should record store latencies", func() {
				So(func() {
					RecordStoreWriteLatency(1.0)
					RecordStoreReadLatency(0.5)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording queue metrics", func() {
			Convey("Then it should update queue gauges", func() {
				So(func() {
					UpdateQueueSize(100)
					UpdateQueueCapacity(1000)
					UpdateQueueUtilization(0.1)
				}, ShouldNotPanic)
			})

			Convey("And it should record queue counters", func() {
				So(func() {
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueEnqueueError()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording worker metrics", func() {
			Convey("Then it should update worker gauges", func() {
				So(func() {
					UpdateWorkerCount(8)
					UpdateWorkerActiveCount(3)
				}, ShouldNotPanic)
			})

			Convey("And it should record worker outcomes", func() {
				So(func() {
					RecordWorkerLatency(42.0)
					RecordWorkerError()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording HTTP metrics", func() {
			Convey("Then it should record HTTP requests", func() {
				So(func() {
					RecordHTTPRequest("/healthz", "GET", "200")
					RecordHTTPRequest("/routes", "POST", "202")
					RecordHTTPRequest("/routes/{id}", "GET", "200")
				}, ShouldNotPanic)
			})

			Convey("And it should record HTTP request duration", func() {
				So(func() {
					RecordHTTPRequestDuration("/healthz", "GET", "200", 5.0)
					RecordHTTPRequestDuration("/routes", "POST", "202", 10.0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording render metrics", func() {
			Convey("Then it should record render latency and errors", func() {
				So(func() {
					RecordRenderLatency("html", 12.0)
					RecordRenderLatency("png", 80.0)
					RecordRenderError("png")
				}, ShouldNotPanic)
			})
		})

		Convey("When recording Strava metrics", func() {
			Convey("Then it should record API calls and cache activity", func() {
				So(func() {
					RecordStravaCall("explore", "200")
					RecordStravaCall("segment", "429")
					RecordStravaRateWait()
					RecordSegmentCacheHit()
					RecordSegmentCacheMiss()
					RecordSegmentMatch()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording system metrics", func() {
			Convey("Then it should update system gauges", func() {
				So(func() {
					UpdateSystemMemoryUsage(1024 * 1024)
					UpdateSystemGoroutineCount(42)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the metrics registry", t, func() {
		Convey("When retrieving the global registry", func() {
			registry := GetRegistry()

			Convey("Then it should not be nil", func() {
				So(registry, ShouldNotBeNil)
			})

			Convey("And it should gather without error", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}
