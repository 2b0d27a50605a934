package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/grimpeur/ascent/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

// fp builds a deterministic fingerprint from fake GPX content.
func fp(i int) string {
	return dedupe.Fingerprint([]byte(fmt.Sprintf("<gpx>route-%d</gpx>", i)))
}

func TestFingerprint(t *testing.T) {
	Convey("Given GPX content", t, func() {
		Convey("When fingerprinting the same bytes twice", func() {
			a := dedupe.Fingerprint([]byte("<gpx>alpe</gpx>"))
			b := dedupe.Fingerprint([]byte("<gpx>alpe</gpx>"))

			Convey("Then the fingerprints should match", func() {
				So(a, ShouldEqual, b)
			})

			Convey("And the fingerprint should be hex-encoded sha256", func() {
				So(a, ShouldHaveLength, 64)
			})
		})

		Convey("When fingerprinting different bytes", func() {
			a := dedupe.Fingerprint([]byte("<gpx>alpe</gpx>"))
			b := dedupe.Fingerprint([]byte("<gpx>ventoux</gpx>"))

			Convey("Then the fingerprints should differ", func() {
				So(a, ShouldNotEqual, b)
			})
		})

		Convey("When fingerprinting empty input", func() {
			Convey("Then it should still produce a stable value", func() {
				So(dedupe.Fingerprint(nil), ShouldEqual, dedupe.Fingerprint([]byte{}))
			})
		})
	})
}

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should start empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording fingerprints", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the fingerprint is new", func() {
				seen := d.SeenAndRecord(context.Background(), fp(1))

				Convey("Then it should return false and record it", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the fingerprint was already seen", func() {
				d.SeenAndRecord(context.Background(), fp(1))

				seen := d.SeenAndRecord(context.Background(), fp(1))

				Convey("Then it should return true", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And several uploads are recorded", func() {
				for i := 0; i < 5; i++ {
					So(d.SeenAndRecord(context.Background(), fp(i)), ShouldBeFalse)
				}

				Convey("Then all of them should be remembered", func() {
					So(d.Size(), ShouldEqual, 5)
					for i := 0; i < 5; i++ {
						So(d.SeenAndRecord(context.Background(), fp(i)), ShouldBeTrue)
					}
				})
			})
		})

		Convey("When unrecording fingerprints", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the fingerprint exists", func() {
				d.SeenAndRecord(context.Background(), fp(1))
				So(d.Size(), ShouldEqual, 1)

				d.Unrecord(context.Background(), fp(1))

				Convey("Then the upload can be retried", func() {
					So(d.Size(), ShouldEqual, 0)
					So(d.SeenAndRecord(context.Background(), fp(1)), ShouldBeFalse)
				})
			})

			Convey("And the fingerprint doesn't exist", func() {
				d.Unrecord(context.Background(), fp(99))

				Convey("Then it should not affect the size", func() {
					So(d.Size(), ShouldEqual, 0)
				})
			})
		})

		Convey("When using bounded mode with eviction", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

			Convey("And the deduper is at capacity", func() {
				for i := 1; i <= 3; i++ {
					So(d.SeenAndRecord(context.Background(), fp(i)), ShouldBeFalse)
				}
				So(d.Size(), ShouldEqual, 3)

				seen := d.SeenAndRecord(context.Background(), fp(4))

				Convey("Then it should evict the oldest and stay at capacity", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 3)

					// The oldest fingerprint was evicted, so it records as new
					// again without growing the cache.
					So(d.SeenAndRecord(context.Background(), fp(1)), ShouldBeFalse)
					So(d.Size(), ShouldEqual, 3)
				})
			})
		})

		Convey("When using unbounded mode", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

			Convey("And many fingerprints are recorded", func() {
				const numRoutes = 1000
				for i := 0; i < numRoutes; i++ {
					So(d.SeenAndRecord(context.Background(), fp(i)), ShouldBeFalse)
				}

				Convey("Then nothing should be evicted", func() {
					So(d.Size(), ShouldEqual, int64(numRoutes))
					for i := 0; i < numRoutes; i++ {
						So(d.SeenAndRecord(context.Background(), fp(i)), ShouldBeTrue)
					}
				})
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(10_000))
		const numGoroutines = 10
		const routesPerGoroutine = 100

		Convey("When multiple goroutines record fingerprints concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func(id int) {
					defer wg.Done()
					for j := 0; j < routesPerGoroutine; j++ {
						d.SeenAndRecord(context.Background(), fp(id*routesPerGoroutine+j))
					}
				}(i)
			}
			wg.Wait()

			Convey("Then every distinct fingerprint should be recorded once", func() {
				So(d.Size(), ShouldEqual, int64(numGoroutines*routesPerGoroutine))
			})
		})

		Convey("When multiple goroutines unrecord fingerprints concurrently", func() {
			const numRoutes = 500
			for i := 0; i < numRoutes; i++ {
				d.SeenAndRecord(context.Background(), fp(i))
			}
			So(d.Size(), ShouldEqual, int64(numRoutes))

			var wg sync.WaitGroup
			perWorker := numRoutes / numGoroutines
			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func(id int) {
					defer wg.Done()
					for j := 0; j < perWorker; j++ {
						d.Unrecord(context.Background(), fp(id*perWorker+j))
					}
				}(i)
			}
			wg.Wait()

			Convey("Then the cache should end up empty", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})
}

func TestDedupeEdgeCases(t *testing.T) {
	Convey("Given a deduper with edge cases", t, func() {
		Convey("When recording an empty fingerprint", func() {
			d := dedupe.NewInMemoryDeduper()

			seen := d.SeenAndRecord(context.Background(), "")

			Convey("Then it should be treated like any other key", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
				So(d.SeenAndRecord(context.Background(), ""), ShouldBeTrue)
			})
		})

		Convey("When using a capacity of one", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1))

			Convey("And adding two fingerprints", func() {
				So(d.SeenAndRecord(context.Background(), fp(1)), ShouldBeFalse)
				So(d.SeenAndRecord(context.Background(), fp(2)), ShouldBeFalse)

				Convey("Then only the newest should survive", func() {
					So(d.Size(), ShouldEqual, 1)
					So(d.SeenAndRecord(context.Background(), fp(1)), ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})
		})

		Convey("When using a negative max size", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(-1))

			Convey("Then it should be unbounded", func() {
				for i := 0; i < 1000; i++ {
					So(d.SeenAndRecord(context.Background(), fp(i)), ShouldBeFalse)
				}
				So(d.Size(), ShouldEqual, 1000)
			})
		})
	})
}
