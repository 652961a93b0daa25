package types_test

import (
	"math"
	"testing"

	types "github.com/okian/synaptic/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPlanarDistance(t *testing.T) {
	Convey("Given two positions", t, func() {
		a := types.Vec3{X: 0, Y: 0, Z: 0}

		Convey("When they differ only in height", func() {
			b := types.Vec3{X: 0, Y: 10, Z: 0}

			Convey("Then the planar distance should ignore y", func() {
				So(types.PlanarDistance(a, b), ShouldEqual, 0)
			})
		})

		Convey("When they form a 3-4-5 triangle on the plane", func() {
			b := types.Vec3{X: 3, Y: 2, Z: 4}

			Convey("Then the distance should be 5", func() {
				So(types.PlanarDistance(a, b), ShouldEqual, 5)
			})
		})
	})
}

func TestMoveToward(t *testing.T) {
	Convey("Given a start and a destination 10 units apart", t, func() {
		from := types.Vec3{X: 0, Y: 1, Z: 0}
		to := types.Vec3{X: 10, Y: 0, Z: 0}

		Convey("When stepping 2 units", func() {
			got := types.MoveToward(from, to, 2)

			Convey("Then the position advances along the line and keeps its height", func() {
				So(got.X, ShouldAlmostEqual, 2)
				So(got.Z, ShouldAlmostEqual, 0)
				So(got.Y, ShouldEqual, 1)
			})
		})

		Convey("When stepping past the destination", func() {
			got := types.MoveToward(from, to, 50)

			Convey("Then it should stop on the destination", func() {
				So(got.X, ShouldEqual, 10)
				So(got.Z, ShouldEqual, 0)
			})
		})

		Convey("When stepping a non-positive amount", func() {
			So(types.MoveToward(from, to, 0), ShouldResemble, from)
			So(types.MoveToward(from, to, -1), ShouldResemble, from)
		})
	})
}

func TestClamp(t *testing.T) {
	cases := []struct {
		v, lo, hi, want float64
	}{
		{0.5, 0, 1, 0.5},
		{-1, 0, 1, 0},
		{3, 0.5, 2, 2},
		{math.NaN(), 0.5, 2, 0.5},
		{math.Inf(1), 0, 1, 1},
	}
	for _, c := range cases {
		if got := types.Clamp(c.v, c.lo, c.hi); got != c.want {
			t.Errorf("Clamp(%v, %v, %v) = %v, want %v", c.v, c.lo, c.hi, got, c.want)
		}
	}
}
