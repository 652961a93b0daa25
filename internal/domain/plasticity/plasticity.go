// Package plasticity integrates focus over time into two bounded state
// variables: a growth factor and a connection strength.
package plasticity

import (
	"math"

	"github.com/okian/synaptic/internal/domain/types"
)

// Bounds and defaults for the model.
const (
	MinGrowth   = 0.0
	MaxGrowth   = 1.0
	MinStrength = 0.5
	MaxStrength = 2.0

	DefaultNeurogenesisRate = 0.01
	DefaultMyelinRate       = 0.005
	DefaultGrowth           = 0.23
	DefaultStrength         = 1.0

	// growthReference normalizes growth when it drives strength.
	growthReference = 0.5
	// rewardStrengthShare is the fraction of a reward routed to strength.
	rewardStrengthShare = 0.5

	minNeurogenesisRate = 0.001
	stressRatePenalty   = 0.005
	stressGrowthPenalty = 0.1
	stressGrowthFloor   = 0.1
)

// State is a read-only copy of the model's variables.
type State struct {
	GrowthFactor       float64 `json:"growth_factor"`
	ConnectionStrength float64 `json:"connection_strength"`
	NeurogenesisRate   float64 `json:"neurogenesis_rate"`
}

// Model owns the plasticity state. It is not safe for concurrent use; the
// simulation loop is its only writer.
type Model struct {
	growth   float64
	strength float64

	baseRate         float64
	neurogenesisRate float64
	myelinRate       float64
	stress           float64
}

// Option applies a configuration option to the Model.
type Option func(*Model)

// WithNeurogenesisRate sets the base growth rate. Non-positive values are ignored.
func WithNeurogenesisRate(rate float64) Option {
	return func(m *Model) {
		if rate > 0 {
			m.baseRate = rate
			m.neurogenesisRate = rate
		}
	}
}

// WithMyelinRate sets the strength growth rate. Non-positive values are ignored.
func WithMyelinRate(rate float64) Option {
	return func(m *Model) {
		if rate > 0 {
			m.myelinRate = rate
		}
	}
}

// WithInitialState overrides the starting values; they are clamped.
func WithInitialState(growth, strength float64) Option {
	return func(m *Model) {
		m.growth = growth
		m.strength = strength
	}
}

// New creates a model with the default rates and starting state.
func New(opts ...Option) *Model {
	m := &Model{
		growth:           DefaultGrowth,
		strength:         DefaultStrength,
		baseRate:         DefaultNeurogenesisRate,
		neurogenesisRate: DefaultNeurogenesisRate,
		myelinRate:       DefaultMyelinRate,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.clamp()
	return m
}

// Advance integrates one tick of dt seconds at the given focus level.
// Negative or NaN inputs are treated as zero.
func (m *Model) Advance(dt, focus float64) State {
	dt = nonNegative(dt)
	focus = types.Clamp(focus, 0, 1)

	m.growth = types.Clamp(m.growth+finite(m.neurogenesisRate*dt*focus), MinGrowth, MaxGrowth)
	m.strength += finite(m.myelinRate * dt * (m.growth / growthReference))
	m.clamp()
	return m.State()
}

// Reward applies a one-shot boost scaled by focusMultiplier.
func (m *Model) Reward(amount, focusMultiplier float64) State {
	boost := amount * focusMultiplier
	if math.IsNaN(boost) {
		return m.State()
	}
	m.growth += boost
	m.strength += rewardStrengthShare * boost
	m.clamp()
	return m.State()
}

// RewardDefault is Reward with a focus multiplier of 1.
func (m *Model) RewardDefault(amount float64) State {
	return m.Reward(amount, 1.0)
}

// ApplyStress lowers the neurogenesis rate relative to the configured base
// and applies an immediate growth penalty floored at 0.1. A factor of zero
// restores the base rate; the floor still applies, so growth below 0.1 is
// lifted to it.
func (m *Model) ApplyStress(stressFactor float64) State {
	stressFactor = nonNegative(stressFactor)
	m.stress = stressFactor
	m.neurogenesisRate = math.Max(minNeurogenesisRate, m.baseRate-stressFactor*stressRatePenalty)
	m.growth = math.Max(stressGrowthFloor, m.growth-stressFactor*stressGrowthPenalty)
	m.clamp()
	return m.State()
}

// Stress returns the last applied stress factor.
func (m *Model) Stress() float64 {
	return m.stress
}

// State returns a copy of the current values.
func (m *Model) State() State {
	return State{
		GrowthFactor:       m.growth,
		ConnectionStrength: m.strength,
		NeurogenesisRate:   m.neurogenesisRate,
	}
}

func (m *Model) clamp() {
	m.growth = types.Clamp(m.growth, MinGrowth, MaxGrowth)
	m.strength = types.Clamp(m.strength, MinStrength, MaxStrength)
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// finite maps NaN (e.g. Inf*0) to 0 so a degenerate step is a no-op.
func finite(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
