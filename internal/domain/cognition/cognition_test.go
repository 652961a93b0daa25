package cognition_test

import (
	"testing"
	"time"

	"github.com/okian/synaptic/internal/domain/biosignal"
	"github.com/okian/synaptic/internal/domain/cognition"
	"github.com/okian/synaptic/internal/domain/plasticity"
	. "github.com/smartystreets/goconvey/convey"
)

var start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestAggregator(t *testing.T) {
	Convey("Given a new aggregator", t, func() {
		a := cognition.NewAggregator(start, cognition.WithSessionID("session-1"))
		state := plasticity.State{GrowthFactor: 0.4, ConnectionStrength: 1.5, NeurogenesisRate: 0.01}

		Convey("Then the session starts neutral and empty", func() {
			last := a.Last()
			So(a.SessionID(), ShouldEqual, "session-1")
			So(last.AttentionSpan, ShouldEqual, 0.5)
			So(last.Score, ShouldEqual, 0)
		})

		Convey("When recording ability uses and kills", func() {
			a.RecordAbilityUse()
			a.RecordAbilityUse()
			a.RecordKill()
			snap := a.Snapshot(state, biosignal.Sample{}, start.Add(5*time.Second))

			Convey("Then each use scores 10 and kills do not score", func() {
				So(snap.AbilitiesUsed, ShouldEqual, 2)
				So(snap.Score, ShouldEqual, 20)
				So(snap.Kills, ShouldEqual, 1)
			})
		})

		Convey("When activation events are recorded", func() {
			a.RecordActivation("dendritic_lightning", start.Add(2*time.Second))
			a.RecordActivation("serotonin_tsunami", start.Add(3*time.Second))
			a.RecordActivation("dendritic_lightning", start.Add(5*time.Second))
			sum := a.Summary(start.Add(6 * time.Second))

			Convey("Then they score and are counted per ability", func() {
				So(sum.FinalScore, ShouldEqual, 30)
				So(sum.AbilitiesUsed, ShouldEqual, 3)
				So(sum.AbilityUses, ShouldResemble, map[string]int{"dendritic_lightning": 2, "serotonin_tsunami": 1})
				So(sum.LastActivation, ShouldEqual, start.Add(5*time.Second))
			})
		})

		Convey("When snapshotting a streaming sample", func() {
			sample := biosignal.Sample{Focus: 0.8, Alpha: 0.4, Beta: 0.6, Theta: 0.2, Connected: true}
			snap := a.Snapshot(state, sample, start.Add(90*time.Second))

			Convey("Then derived metrics follow the model and the feed", func() {
				So(snap.CognitivePerformance, ShouldEqual, 0.4)
				So(snap.AttentionSpan, ShouldEqual, 0.8)
				So(snap.MemoryRecall, ShouldAlmostEqual, 1.05, 1e-12)
				So(snap.ProcessingSpeed, ShouldAlmostEqual, 0.9, 1e-12)
				So(snap.SessionSeconds, ShouldEqual, 90.0)
			})
		})

		Convey("When the sample is not streaming", func() {
			snap := a.Snapshot(state, biosignal.Sample{Focus: 0.9}, start)

			Convey("Then attention is neutral", func() {
				So(snap.AttentionSpan, ShouldEqual, biosignal.NeutralFocus)
			})
		})

		Convey("When the clock reads earlier than the start", func() {
			snap := a.Snapshot(state, biosignal.Sample{}, start.Add(-time.Minute))

			Convey("Then the session time never goes negative", func() {
				So(snap.SessionSeconds, ShouldEqual, 0.0)
			})
		})

		Convey("When summarizing", func() {
			a.RecordAbilityUse()
			a.RecordKill()
			a.Snapshot(state, biosignal.Sample{Focus: 0.7, Connected: true}, start.Add(time.Second))
			sum := a.Summary(start.Add(2 * time.Minute))

			Convey("Then totals and the last metrics are reported", func() {
				So(sum.SessionID, ShouldEqual, "session-1")
				So(sum.DurationSeconds, ShouldEqual, 120.0)
				So(sum.FinalScore, ShouldEqual, 10)
				So(sum.AbilitiesUsed, ShouldEqual, 1)
				So(sum.Kills, ShouldEqual, 1)
				So(sum.CognitivePerformance, ShouldEqual, 0.4)
				So(sum.AttentionSpan, ShouldEqual, 0.7)
			})
		})
	})

	Convey("Given no session id option", t, func() {
		a := cognition.NewAggregator(start)
		b := cognition.NewAggregator(start)

		Convey("Then each session gets its own id", func() {
			So(a.SessionID(), ShouldNotBeBlank)
			So(a.SessionID(), ShouldNotEqual, b.SessionID())
		})
	})
}

func TestReport(t *testing.T) {
	Convey("Given a session with some activity", t, func() {
		a := cognition.NewAggregator(start, cognition.WithSessionID("session-2"))
		a.RecordAbilityUse()
		state := plasticity.State{GrowthFactor: 0.5, ConnectionStrength: 1.2, NeurogenesisRate: 0.01}
		sample := biosignal.Sample{Focus: 0.9, Alpha: 0.3, Beta: 0.8, Theta: 0.1, Connected: true}
		ach := []cognition.Achievement{{Key: "bdnf_master", Title: "BDNF Master"}}

		Convey("When building a report", func() {
			r := a.Report(state, sample, ach, start.Add(30*time.Second))

			Convey("Then the session group carries the counters", func() {
				So(r.Timestamp, ShouldEqual, start.Add(30*time.Second))
				So(r.Session.ID, ShouldEqual, "session-2")
				So(r.Session.DurationSeconds, ShouldEqual, 30.0)
				So(r.Session.Score, ShouldEqual, 10)
				So(r.Session.Achievements, ShouldResemble, []string{"BDNF Master"})
			})

			Convey("Then the plasticity group mirrors the model", func() {
				So(r.Neuroplasticity.BDNF, ShouldEqual, 0.5)
				So(r.Neuroplasticity.SynapticStrength, ShouldEqual, 1.2)
				So(r.Neuroplasticity.NeurogenesisRate, ShouldEqual, 0.01)
				So(r.Neuroplasticity.ProjectedBDNF, ShouldAlmostEqual, 0.525, 1e-12)
			})

			Convey("Then the eeg group carries bands and normalized values", func() {
				So(r.EEG.FocusLevel, ShouldEqual, 0.9)
				So(r.EEG.Beta, ShouldEqual, 0.8)
				So(r.EEG.FocusScore, ShouldBeBetween, 0.0, 1.0)
				So(r.EEG.Normalized[1], ShouldEqual, 1.0)
				So(r.EEG.Normalized[2], ShouldEqual, 0.0)
			})

			Convey("Then the cognitive group mirrors the snapshot", func() {
				So(r.Cognitive.Performance, ShouldEqual, 0.5)
				So(r.Cognitive.Attention, ShouldEqual, 0.9)
				So(r.Cognitive.Memory, ShouldAlmostEqual, 0.84, 1e-12)
				So(r.Cognitive.Processing, ShouldAlmostEqual, 0.72, 1e-12)
			})
		})
	})
}

func TestAchievements(t *testing.T) {
	Convey("Given a fresh achievement tracker", t, func() {
		a := cognition.NewAchievements()

		Convey("When growth is below every threshold", func() {
			fresh := a.Evaluate(plasticity.State{GrowthFactor: 0.49, ConnectionStrength: 1.49})

			Convey("Then nothing unlocks", func() {
				So(fresh, ShouldBeEmpty)
				So(a.Unlocked(), ShouldBeEmpty)
			})
		})

		Convey("When growth reaches 0.5", func() {
			fresh := a.Evaluate(plasticity.State{GrowthFactor: 0.5, ConnectionStrength: 1.0})

			Convey("Then BDNF Master unlocks once", func() {
				So(len(fresh), ShouldEqual, 1)
				So(fresh[0].Title, ShouldEqual, "BDNF Master")
				So(a.Has("bdnf_master"), ShouldBeTrue)
				So(a.Evaluate(plasticity.State{GrowthFactor: 0.9, ConnectionStrength: 1.0}), ShouldBeEmpty)
			})

			Convey("And later strength reaches 1.5", func() {
				more := a.Evaluate(plasticity.State{GrowthFactor: 0.9, ConnectionStrength: 1.5})

				Convey("Then only Synaptic Champion is new", func() {
					So(len(more), ShouldEqual, 1)
					So(more[0].Title, ShouldEqual, "Synaptic Champion")
					So(len(a.Unlocked()), ShouldEqual, 2)
				})
			})
		})

		Convey("When both thresholds are crossed together", func() {
			fresh := a.Evaluate(plasticity.State{GrowthFactor: 1, ConnectionStrength: 2})

			Convey("Then both unlock in order", func() {
				So(len(fresh), ShouldEqual, 2)
				So(fresh[0].Key, ShouldEqual, "bdnf_master")
				So(fresh[1].Key, ShouldEqual, "synaptic_champion")
			})
		})
	})
}
