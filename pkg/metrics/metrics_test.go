package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "synaptic")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("pfx"),
				WithTickBuckets([]float64{0.1, 0.5, 1.0}),
				WithLatencyBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.ticksTotal.Inc()

			Convey("Then metric names should carry namespace, subsystem and prefix", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_pfx_ticks_total" {
						found = true
						labels := f.GetMetric()[0].GetLabel()
						So(len(labels), ShouldEqual, 1)
						So(labels[0].GetName(), ShouldEqual, "env")
						So(labels[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When bucket options are unsorted", func() {
			manager := NewManager(
				WithPrometheusRegistry(prometheus.NewRegistry()),
				WithTickBuckets([]float64{5, 1}),
				WithLatencyBuckets([]float64{10, 2}),
			)

			Convey("Then the defaults are kept", func() {
				So(manager.tickBuckets, ShouldResemble, DefaultTickBuckets)
				So(manager.latencyBuckets, ShouldResemble, DefaultLatencyBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording a tick", func() {
			before := sampleValue("synaptic_sim_ticks_total", "")
			RecordTick(0.016, 0.2)

			Convey("Then the tick counter should advance", func() {
				So(sampleValue("synaptic_sim_ticks_total", ""), ShouldEqual, before+1)
			})
		})

		Convey("When updating model gauges", func() {
			UpdatePlasticity(0.4, 1.2, 0.01)
			UpdateFocusLevel(0.8)

			Convey("Then the gauges should hold the latest values", func() {
				So(sampleValue("synaptic_sim_growth_factor", ""), ShouldEqual, 0.4)
				So(sampleValue("synaptic_sim_connection_strength", ""), ShouldEqual, 1.2)
				So(sampleValue("synaptic_sim_focus_level", ""), ShouldEqual, 0.8)
			})
		})

		Convey("When marking the feed state", func() {
			all := []string{"disconnected", "connecting", "streaming", "simulated"}
			UpdateFeedState("simulated", all)

			Convey("Then exactly one state should be set", func() {
				So(sampleValue("synaptic_sim_feed_state", "simulated"), ShouldEqual, 1)
				So(sampleValue("synaptic_sim_feed_state", "streaming"), ShouldEqual, 0)
			})
		})

		Convey("When recording combat metrics", func() {
			So(func() {
				UpdatePopulation(3)
				RecordSpawn()
				RecordKill()
				RecordDamageOutcome("destroyed")
				RecordAbilityActivation("dendritic_lightning", "activated")
				RecordAbilityHits("dendritic_lightning", 2)
				RecordAchievement("BDNF Master")
				UpdateSessionScore(20)
				UpdateStressFactor(0.25)
				RecordFeedSample()
				RecordFeedConnect("ok")
			}, ShouldNotPanic)
		})

		Convey("When recording queue, recorder and HTTP metrics", func() {
			So(func() {
				UpdateQueueCapacity("commands", 64)
				UpdateQueueSize("commands", 1)
				RecordQueueEnqueue("commands")
				RecordQueueDequeue("commands")
				RecordQueueEnqueueError("commands", "full")
				RecordRecorderWrite(1.5)
				RecordRecorderError()
				RecordHTTPRequest("/snapshot", "GET", "200")
				RecordHTTPRequestDuration("/snapshot", "GET", "200", 0.5)
				RecordErrorByComponent("feed", "connect_failed")
				RecordErrorByEndpoint("/abilities", "POST", "not_found")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)
		})

		Convey("When gathering the custom registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then only synaptic metrics should be exposed", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "synaptic_sim_"), ShouldBeTrue)
				}
			})
		})
	})
}

// sampleValue reads a counter or gauge from the custom registry. label, when
// set, selects the series whose first label value matches.
func sampleValue(name, label string) float64 {
	families, err := GetRegistry().Gather()
	if err != nil {
		return -1
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if label != "" {
				pairs := m.GetLabel()
				if len(pairs) == 0 || pairs[0].GetValue() != label {
					continue
				}
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return 0
}
