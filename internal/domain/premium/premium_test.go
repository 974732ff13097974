package premium_test

import (
	"math"
	"testing"

	"github.com/okian/premium/internal/domain/premium"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFormatter(t *testing.T) {
	Convey("Given a default formatter", t, func() {
		f := premium.NewFormatter()

		Convey("Then it should round to whole units", func() {
			So(f.Format(12345.4), ShouldEqual, 12345.0)
			So(f.Format(12345.5), ShouldEqual, 12346.0)
			So(f.Precision(), ShouldEqual, 0)
		})

		Convey("Then negative estimates should clamp to zero", func() {
			out, clamped := f.FormatClamped(-250)
			So(out, ShouldEqual, 0.0)
			So(clamped, ShouldBeTrue)
		})

		Convey("Then NaN should map to the floor", func() {
			So(f.Format(math.NaN()), ShouldEqual, 0.0)
		})

		Convey("Then formatting should be idempotent", func() {
			for _, x := range []float64{0, 0.49, 0.5, 999.5, 123456.789, -3} {
				once := f.Format(x)
				So(f.Format(once), ShouldEqual, once)
				So(once, ShouldBeGreaterThanOrEqualTo, 0)
			}
		})
	})

	Convey("Given a formatter with a floor and two decimals", t, func() {
		f := premium.NewFormatter(premium.WithFloor(1000), premium.WithPrecision(2))

		Convey("Then values below the floor should be raised", func() {
			out, clamped := f.FormatClamped(999.994)
			So(out, ShouldEqual, 1000.0)
			So(clamped, ShouldBeTrue)
		})

		Convey("Then values above the floor should keep two decimals", func() {
			So(f.Format(1234.5678), ShouldAlmostEqual, 1234.57, 1e-9)
			_, clamped := f.FormatClamped(1500)
			So(clamped, ShouldBeFalse)
		})
	})

	Convey("Given out-of-range options", t, func() {
		f := premium.NewFormatter(premium.WithFloor(-10), premium.WithPrecision(12))

		Convey("Then the floor should be zero and precision capped", func() {
			So(f.Floor(), ShouldEqual, 0.0)
			So(f.Precision(), ShouldEqual, 6)
		})

		Convey("Then negative precision should mean whole units", func() {
			g := premium.NewFormatter(premium.WithPrecision(-1))
			So(g.Format(10.6), ShouldEqual, 11.0)
		})
	})
}
