package gpx_test

import (
	"context"
	"errors"
	"testing"

	"github.com/grimpeur/ascent/internal/adapters/gpx"
	. "github.com/smartystreets/goconvey/convey"
)

const sampleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk>
    <name>Col de Test</name>
    <trkseg>
      <trkpt lat="45.0000" lon="6.0000"><ele>1000</ele></trkpt>
      <trkpt lat="45.0010" lon="6.0000"><ele>1010</ele></trkpt>
      <trkpt lat="45.0020" lon="6.0000"><ele>1025</ele></trkpt>
      <trkpt lat="45.0030" lon="6.0000"><ele>1040</ele></trkpt>
    </trkseg>
  </trk>
</gpx>`

const twoSegmentGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk>
    <trkseg>
      <trkpt lat="45.0000" lon="6.0000"><ele>100</ele></trkpt>
      <trkpt lat="45.0010" lon="6.0000"><ele>110</ele></trkpt>
    </trkseg>
    <trkseg>
      <trkpt lat="45.0020" lon="6.0000"><ele>120</ele></trkpt>
      <trkpt lat="45.0030" lon="6.0000"><ele>130</ele></trkpt>
    </trkseg>
  </trk>
</gpx>`

const noElevationGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk>
    <trkseg>
      <trkpt lat="45.0000" lon="6.0000"></trkpt>
      <trkpt lat="45.0010" lon="6.0000"></trkpt>
    </trkseg>
  </trk>
</gpx>`

func TestParse(t *testing.T) {
	Convey("Given a GPX parser", t, func() {
		p := gpx.NewParser()
		ctx := context.Background()

		Convey("When parsing a valid single-segment track", func() {
			data, err := p.Parse(ctx, []byte(sampleGPX))

			Convey("Then parsing succeeds", func() {
				So(err, ShouldBeNil)
			})

			Convey("Then the track name is carried over", func() {
				So(data.Name, ShouldEqual, "Col de Test")
			})

			Convey("Then every point appears with monotonic distance", func() {
				So(data.Points, ShouldHaveLength, 4)
				So(data.Coords, ShouldHaveLength, 4)
				So(data.Points[0].DistanceM, ShouldEqual, 0)
				for i := 1; i < len(data.Points); i++ {
					So(data.Points[i].DistanceM, ShouldBeGreaterThan, data.Points[i-1].DistanceM)
				}
			})

			Convey("Then elevations come straight from the file", func() {
				So(data.Points[0].ElevationM, ShouldEqual, 1000)
				So(data.Points[3].ElevationM, ShouldEqual, 1040)
			})
		})

		Convey("When parsing a track with two segments", func() {
			data, err := p.Parse(ctx, []byte(twoSegmentGPX))

			Convey("Then segments are flattened in order", func() {
				So(err, ShouldBeNil)
				So(data.Points, ShouldHaveLength, 4)
				So(data.Points[3].DistanceM, ShouldBeGreaterThan, data.Points[0].DistanceM)
			})

			Convey("Then the unnamed track gets a fallback name", func() {
				So(data.Name, ShouldEqual, "Unnamed route")
			})
		})

		Convey("When parsing bytes that are not GPX", func() {
			_, err := p.Parse(ctx, []byte("not xml at all"))

			Convey("Then the unparseable sentinel is returned", func() {
				So(errors.Is(err, gpx.ErrUnparseable), ShouldBeTrue)
			})
		})

		Convey("When parsing a GPX without elevation data", func() {
			_, err := p.Parse(ctx, []byte(noElevationGPX))

			Convey("Then the no-track sentinel is returned", func() {
				So(errors.Is(err, gpx.ErrNoTrack), ShouldBeTrue)
			})
		})

		Convey("When parsing a GPX with no tracks", func() {
			_, err := p.Parse(ctx, []byte(`<?xml version="1.0"?><gpx version="1.1" creator="t" xmlns="http://www.topografix.com/GPX/1/1"></gpx>`))

			Convey("Then the no-track sentinel is returned", func() {
				So(errors.Is(err, gpx.ErrNoTrack), ShouldBeTrue)
			})
		})
	})
}
