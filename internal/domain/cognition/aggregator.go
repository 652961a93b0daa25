// Package cognition derives session level cognitive metrics from the
// plasticity state and the biosignal feed, and shapes them into reports.
package cognition

import (
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/okian/synaptic/internal/domain/biosignal"
	"github.com/okian/synaptic/internal/domain/plasticity"
)

// Scoring constants.
const (
	AbilityUseScore = 10

	memoryRecallWeight    = 0.7
	processingSpeedWeight = 0.6
)

// Snapshot is the cognitive metrics view at one instant. Score,
// AbilitiesUsed and Kills are cumulative for the session.
type Snapshot struct {
	SessionID            string  `json:"session_id" yaml:"session_id"`
	CognitivePerformance float64 `json:"cognitive_performance" yaml:"cognitive_performance"`
	AttentionSpan        float64 `json:"attention_span" yaml:"attention_span"`
	MemoryRecall         float64 `json:"memory_recall" yaml:"memory_recall"`
	ProcessingSpeed      float64 `json:"processing_speed" yaml:"processing_speed"`
	SessionSeconds       float64 `json:"session_seconds" yaml:"session_seconds"`
	Score                int     `json:"score" yaml:"score"`
	AbilitiesUsed        int     `json:"abilities_used" yaml:"abilities_used"`
	Kills                int     `json:"kills" yaml:"kills"`
}

// Summary closes out a session.
type Summary struct {
	SessionID            string         `json:"session_id" yaml:"session_id"`
	DurationSeconds      float64        `json:"duration_seconds" yaml:"duration_seconds"`
	FinalScore           int            `json:"final_score" yaml:"final_score"`
	AbilitiesUsed        int            `json:"abilities_used" yaml:"abilities_used"`
	Kills                int            `json:"kills" yaml:"kills"`
	CognitivePerformance float64        `json:"cognitive_performance" yaml:"cognitive_performance"`
	AttentionSpan        float64        `json:"attention_span" yaml:"attention_span"`
	// AbilityUses counts activation events per ability id.
	AbilityUses          map[string]int `json:"ability_uses" yaml:"ability_uses"`
	LastActivation       time.Time      `json:"last_activation" yaml:"last_activation"`
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(a *Aggregator) {
		if id != "" {
			a.sessionID = id
		}
	}
}

// Aggregator accumulates session counters and recomputes the derived
// metrics on every Snapshot. It is not safe for concurrent use.
type Aggregator struct {
	sessionID string
	start     time.Time

	score          int
	abilitiesUsed  int
	kills          int
	uses           map[string]int
	lastActivation time.Time

	last Snapshot
}

// NewAggregator starts a session at start.
func NewAggregator(start time.Time, opts ...Option) *Aggregator {
	a := &Aggregator{
		sessionID: uuid.NewString(),
		start:     start,
		uses:      make(map[string]int),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.last = Snapshot{
		SessionID:            a.sessionID,
		CognitivePerformance: biosignal.NeutralFocus,
		AttentionSpan:        biosignal.NeutralFocus,
		MemoryRecall:         biosignal.NeutralFocus,
		ProcessingSpeed:      biosignal.NeutralFocus,
	}
	return a
}

// SessionID returns the id of the current session.
func (a *Aggregator) SessionID() string {
	return a.sessionID
}

// StartedAt returns the session start time.
func (a *Aggregator) StartedAt() time.Time {
	return a.start
}

// RecordAbilityUse counts one successful activation.
func (a *Aggregator) RecordAbilityUse() {
	a.abilitiesUsed++
	a.score += AbilityUseScore
}

// RecordActivation counts an ability activated event. It scores like
// RecordAbilityUse and also tracks per-ability use.
func (a *Aggregator) RecordActivation(abilityID string, at time.Time) {
	a.RecordAbilityUse()
	a.uses[abilityID]++
	if at.After(a.lastActivation) {
		a.lastActivation = at
	}
}

// RecordKill counts one destroyed adversary. It does not change the score.
func (a *Aggregator) RecordKill() {
	a.kills++
}

// Snapshot recomputes the derived metrics. Attention follows the sample
// focus while the feed is streaming and is neutral otherwise.
func (a *Aggregator) Snapshot(state plasticity.State, sample biosignal.Sample, now time.Time) Snapshot {
	attention := biosignal.NeutralFocus
	if sample.Connected {
		attention = sample.Focus
	}
	a.last = Snapshot{
		SessionID:            a.sessionID,
		CognitivePerformance: state.GrowthFactor,
		AttentionSpan:        attention,
		MemoryRecall:         state.ConnectionStrength * memoryRecallWeight,
		ProcessingSpeed:      state.ConnectionStrength * processingSpeedWeight,
		SessionSeconds:       a.elapsed(now),
		Score:                a.score,
		AbilitiesUsed:        a.abilitiesUsed,
		Kills:                a.kills,
	}
	return a.last
}

// Last returns the most recent snapshot.
func (a *Aggregator) Last() Snapshot {
	return a.last
}

// Summary reports the session totals as of now.
func (a *Aggregator) Summary(now time.Time) Summary {
	return Summary{
		SessionID:            a.sessionID,
		DurationSeconds:      a.elapsed(now),
		FinalScore:           a.score,
		AbilitiesUsed:        a.abilitiesUsed,
		Kills:                a.kills,
		CognitivePerformance: a.last.CognitivePerformance,
		AttentionSpan:        a.last.AttentionSpan,
		AbilityUses:          maps.Clone(a.uses),
		LastActivation:       a.lastActivation,
	}
}

func (a *Aggregator) elapsed(now time.Time) float64 {
	d := now.Sub(a.start).Seconds()
	if d < 0 {
		return 0
	}
	return d
}
