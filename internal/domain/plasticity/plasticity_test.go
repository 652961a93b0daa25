package plasticity_test

import (
	"math"
	"testing"

	"github.com/okian/synaptic/internal/domain/plasticity"
	. "github.com/smartystreets/goconvey/convey"
)

func inBounds(s plasticity.State) bool {
	return s.GrowthFactor >= plasticity.MinGrowth && s.GrowthFactor <= plasticity.MaxGrowth &&
		s.ConnectionStrength >= plasticity.MinStrength && s.ConnectionStrength <= plasticity.MaxStrength
}

func TestModel_New(t *testing.T) {
	Convey("Given a model with default options", t, func() {
		m := plasticity.New()

		Convey("Then it should start from the default state", func() {
			s := m.State()
			So(s.GrowthFactor, ShouldEqual, plasticity.DefaultGrowth)
			So(s.ConnectionStrength, ShouldEqual, plasticity.DefaultStrength)
			So(s.NeurogenesisRate, ShouldEqual, plasticity.DefaultNeurogenesisRate)
		})
	})

	Convey("Given an out-of-range initial state", t, func() {
		m := plasticity.New(plasticity.WithInitialState(4, 0.1))

		Convey("Then it should be clamped on construction", func() {
			So(m.State().GrowthFactor, ShouldEqual, 1.0)
			So(m.State().ConnectionStrength, ShouldEqual, 0.5)
		})
	})
}

func TestModel_Advance(t *testing.T) {
	Convey("Given a model at growth 0.23", t, func() {
		m := plasticity.New(plasticity.WithInitialState(0.23, 1.0))

		Convey("When advancing one second at focus 0.8", func() {
			s := m.Advance(1.0, 0.8)

			Convey("Then growth and strength should follow the integration rule", func() {
				wantGrowth := 0.23 + 0.01*1.0*0.8
				So(s.GrowthFactor, ShouldAlmostEqual, wantGrowth, 1e-12)
				So(s.ConnectionStrength, ShouldAlmostEqual, 1.0+0.005*1.0*(wantGrowth/0.5), 1e-12)
			})
		})

		Convey("When advancing with dt=0", func() {
			s := m.Advance(0, 1)

			Convey("Then nothing should change", func() {
				So(s.GrowthFactor, ShouldEqual, 0.23)
				So(s.ConnectionStrength, ShouldEqual, 1.0)
			})
		})

		Convey("When advancing with a negative dt", func() {
			s := m.Advance(-5, 1)

			Convey("Then it should be treated as zero", func() {
				So(s.GrowthFactor, ShouldEqual, 0.23)
			})
		})
	})

	Convey("Given any dt and focus in range", t, func() {
		dts := []float64{0, 0.001, 0.016, 1, 60, 1000, math.Inf(1)}
		foci := []float64{0, 0.1, 0.5, 1}

		Convey("Then the state should stay within bounds after every advance", func() {
			for _, dt := range dts {
				for _, f := range foci {
					m := plasticity.New()
					s := m.Advance(dt, f)
					So(inBounds(s), ShouldBeTrue)
				}
			}
		})

		Convey("And a huge dt should saturate both variables", func() {
			m := plasticity.New()
			s := m.Advance(1000, 1)
			So(s.GrowthFactor, ShouldEqual, 1.0)
			So(s.ConnectionStrength, ShouldEqual, 2.0)
		})
	})
}

func TestModel_Reward(t *testing.T) {
	Convey("Given a default model", t, func() {
		m := plasticity.New()

		Convey("When rewarding 0.1 with the default multiplier", func() {
			s := m.RewardDefault(0.1)

			Convey("Then growth gains the full amount and strength half of it", func() {
				So(s.GrowthFactor, ShouldAlmostEqual, 0.33, 1e-12)
				So(s.ConnectionStrength, ShouldAlmostEqual, 1.05, 1e-12)
			})
		})

		Convey("When rewarding with a focus multiplier", func() {
			s := m.Reward(0.1, 2)

			Convey("Then the boost should be scaled", func() {
				So(s.GrowthFactor, ShouldAlmostEqual, 0.43, 1e-12)
				So(s.ConnectionStrength, ShouldAlmostEqual, 1.1, 1e-12)
			})
		})

		Convey("When a negative reward drives the values down", func() {
			s := m.Reward(-10, 1)

			Convey("Then both values clamp at their lower bounds", func() {
				So(s.GrowthFactor, ShouldEqual, 0.0)
				So(s.ConnectionStrength, ShouldEqual, 0.5)
			})
		})

		Convey("When rewards and advances are interleaved many times", func() {
			for i := 0; i < 500; i++ {
				if i%3 == 0 {
					m.Reward(0.7, 3)
				} else {
					m.Advance(float64(i), 1)
				}
				So(inBounds(m.State()), ShouldBeTrue)
			}

			Convey("Then the values should be pinned at the upper bounds", func() {
				So(m.State().GrowthFactor, ShouldEqual, 1.0)
				So(m.State().ConnectionStrength, ShouldEqual, 2.0)
			})
		})
	})
}

func TestModel_ApplyStress(t *testing.T) {
	Convey("Given a model at growth 0.5", t, func() {
		m := plasticity.New(plasticity.WithInitialState(0.5, 1.0))

		Convey("When applying stress 1", func() {
			s := m.ApplyStress(1)

			Convey("Then the rate drops and growth takes the immediate penalty", func() {
				So(s.NeurogenesisRate, ShouldAlmostEqual, 0.005, 1e-12)
				So(s.GrowthFactor, ShouldAlmostEqual, 0.4, 1e-12)
				So(m.Stress(), ShouldEqual, 1)
			})
		})

		Convey("When applying extreme stress", func() {
			s := m.ApplyStress(100)

			Convey("Then the rate floors at 0.001 and growth at 0.1", func() {
				So(s.NeurogenesisRate, ShouldEqual, 0.001)
				So(s.GrowthFactor, ShouldEqual, 0.1)
			})
		})

		Convey("When stress is lifted", func() {
			m.ApplyStress(1)
			s := m.ApplyStress(0)

			Convey("Then the base rate is restored without a further penalty", func() {
				So(s.NeurogenesisRate, ShouldEqual, plasticity.DefaultNeurogenesisRate)
				So(s.GrowthFactor, ShouldAlmostEqual, 0.4, 1e-12)
			})
		})
	})

	Convey("Given a model with growth below the stress floor", t, func() {
		m := plasticity.New(plasticity.WithInitialState(0.05, 1.0))

		Convey("When a zero stress factor is applied", func() {
			s := m.ApplyStress(0)

			Convey("Then growth is lifted to the floor and the base rate kept", func() {
				So(s.GrowthFactor, ShouldEqual, 0.1)
				So(s.NeurogenesisRate, ShouldEqual, plasticity.DefaultNeurogenesisRate)
				So(m.Stress(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a custom base rate", t, func() {
		m := plasticity.New(plasticity.WithNeurogenesisRate(0.02), plasticity.WithMyelinRate(0.01))

		Convey("Then stress is measured against that base", func() {
			So(m.ApplyStress(2).NeurogenesisRate, ShouldAlmostEqual, 0.01, 1e-12)
		})
	})
}
