package cognition

import (
	"time"

	"github.com/okian/synaptic/internal/domain/biosignal"
	"github.com/okian/synaptic/internal/domain/neuromath"
	"github.com/okian/synaptic/internal/domain/plasticity"
)

// Report is the research export of one moment in a session.
type Report struct {
	Timestamp       time.Time       `json:"timestamp" yaml:"timestamp"`
	Session         SessionGroup    `json:"session" yaml:"session"`
	Neuroplasticity PlasticityGroup `json:"neuroplasticity" yaml:"neuroplasticity"`
	EEG             EEGGroup        `json:"eeg" yaml:"eeg"`
	Cognitive       CognitiveGroup  `json:"cognitive" yaml:"cognitive"`
}

// SessionGroup holds the session counters.
type SessionGroup struct {
	ID              string    `json:"id" yaml:"id"`
	StartedAt       time.Time `json:"started_at" yaml:"started_at"`
	DurationSeconds float64   `json:"duration" yaml:"duration"`
	Score           int       `json:"score" yaml:"score"`
	AbilitiesUsed   int       `json:"abilities_used" yaml:"abilities_used"`
	Kills           int       `json:"kills" yaml:"kills"`
	Achievements    []string  `json:"achievements" yaml:"achievements"`
}

// PlasticityGroup holds the plasticity model variables.
type PlasticityGroup struct {
	BDNF             float64 `json:"bdnf" yaml:"bdnf"`
	SynapticStrength float64 `json:"synaptic_strength" yaml:"synaptic_strength"`
	NeurogenesisRate float64 `json:"neurogenesis_rate" yaml:"neurogenesis_rate"`
	// ProjectedBDNF is one logistic step ahead of BDNF at the current rate.
	ProjectedBDNF float64 `json:"projected_bdnf" yaml:"projected_bdnf"`
}

// EEGGroup holds the latest band powers. Normalized rescales alpha, beta
// and theta against each other.
type EEGGroup struct {
	Connected  bool       `json:"connected" yaml:"connected"`
	FocusLevel float64    `json:"focus_level" yaml:"focus_level"`
	FocusScore float64    `json:"focus_score" yaml:"focus_score"`
	Alpha      float64    `json:"alpha_waves" yaml:"alpha_waves"`
	Beta       float64    `json:"beta_waves" yaml:"beta_waves"`
	Theta      float64    `json:"theta_waves" yaml:"theta_waves"`
	Normalized [3]float64 `json:"normalized" yaml:"normalized"`
}

// CognitiveGroup holds the derived cognitive metrics.
type CognitiveGroup struct {
	Performance float64 `json:"performance" yaml:"performance"`
	Attention   float64 `json:"attention" yaml:"attention"`
	Memory      float64 `json:"memory" yaml:"memory"`
	Processing  float64 `json:"processing" yaml:"processing"`
}

// Report snapshots the session and shapes it into the export groups.
// achievements lists the titles unlocked so far.
func (a *Aggregator) Report(state plasticity.State, sample biosignal.Sample, achievements []Achievement, now time.Time) Report {
	snap := a.Snapshot(state, sample, now)

	titles := make([]string, len(achievements))
	for i, ach := range achievements {
		titles[i] = ach.Title
	}

	var normalized [3]float64
	copy(normalized[:], neuromath.NormalizeBrainwave([]float64{sample.Alpha, sample.Beta, sample.Theta}))

	rateRatio := state.NeurogenesisRate / plasticity.DefaultNeurogenesisRate

	return Report{
		Timestamp: now.UTC(),
		Session: SessionGroup{
			ID:              a.sessionID,
			StartedAt:       a.start.UTC(),
			DurationSeconds: snap.SessionSeconds,
			Score:           snap.Score,
			AbilitiesUsed:   snap.AbilitiesUsed,
			Kills:           snap.Kills,
			Achievements:    titles,
		},
		Neuroplasticity: PlasticityGroup{
			BDNF:             state.GrowthFactor,
			SynapticStrength: state.ConnectionStrength,
			NeurogenesisRate: state.NeurogenesisRate,
			ProjectedBDNF:    neuromath.LogisticGrowth(state.GrowthFactor, rateRatio, 1),
		},
		EEG: EEGGroup{
			Connected:  sample.Connected,
			FocusLevel: snap.AttentionSpan,
			FocusScore: neuromath.FocusScore(sample.Alpha, sample.Beta, sample.Theta),
			Alpha:      sample.Alpha,
			Beta:       sample.Beta,
			Theta:      sample.Theta,
			Normalized: normalized,
		},
		Cognitive: CognitiveGroup{
			Performance: snap.CognitivePerformance,
			Attention:   snap.AttentionSpan,
			Memory:      snap.MemoryRecall,
			Processing:  snap.ProcessingSpeed,
		},
	}
}
