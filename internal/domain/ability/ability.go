// Package ability defines player abilities, their cooldown bookkeeping and
// the pure area-of-effect resolution used by the simulation loop.
package ability

import (
	"fmt"
	"math"
	"slices"
)

// Kind classifies what an ability does to the targets it hits.
type Kind int

// Ability kinds.
const (
	Offensive Kind = iota
	Restorative
)

func (k Kind) String() string {
	switch k {
	case Offensive:
		return "offensive"
	case Restorative:
		return "restorative"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText renders the kind by name for JSON, YAML and CSV output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Built-in ability identifiers.
const (
	DendriticLightning = "dendritic_lightning"
	SerotoninTsunami   = "serotonin_tsunami"
)

// Ability is an immutable ability definition.
type Ability struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Kind        Kind     `json:"kind" yaml:"kind"`
	MaxCooldown float64  `json:"max_cooldown" yaml:"max_cooldown"`
	AreaRadius  float64  `json:"area_radius" yaml:"area_radius"`
	Magnitude   float64  `json:"magnitude" yaml:"magnitude"`
	EffectTags  []string `json:"effect_tags" yaml:"effect_tags"`
	// PlasticityReward is paid into the plasticity model on activation.
	PlasticityReward float64 `json:"plasticity_reward,omitempty" yaml:"plasticity_reward,omitempty"`
}

func (a Ability) validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidAbility)
	}
	if a.Kind != Offensive && a.Kind != Restorative {
		return fmt.Errorf("%w: %s has %s", ErrInvalidAbility, a.ID, a.Kind)
	}
	for name, v := range map[string]float64{
		"max_cooldown":      a.MaxCooldown,
		"area_radius":       a.AreaRadius,
		"magnitude":         a.Magnitude,
		"plasticity_reward": a.PlasticityReward,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s %s=%v", ErrInvalidAbility, a.ID, name, v)
		}
	}
	return nil
}

func (a Ability) clone() Ability {
	a.EffectTags = slices.Clone(a.EffectTags)
	return a
}

// Registry holds ability definitions in registration order.
type Registry struct {
	abilities []Ability
	index     map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// DefaultRegistry returns a registry with the built-in abilities.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, a := range Defaults() {
		if err := r.Register(a); err != nil {
			panic(err)
		}
	}
	return r
}

// Defaults returns the built-in ability definitions.
func Defaults() []Ability {
	return []Ability{
		{
			ID:          DendriticLightning,
			Name:        "Dendritic Lightning",
			Kind:        Offensive,
			MaxCooldown: 2.0,
			AreaRadius:  5.0,
			Magnitude:   25,
			EffectTags:  []string{"stun", "neuroboost"},
		},
		{
			ID:               SerotoninTsunami,
			Name:             "Serotonin Tsunami",
			Kind:             Restorative,
			MaxCooldown:      5.0,
			AreaRadius:       8.0,
			Magnitude:        40,
			EffectTags:       []string{"serotonin_boost"},
			PlasticityReward: 0.1,
		},
	}
}

// Register adds a. Ids must be unique and parameters non-negative.
func (r *Registry) Register(a Ability) error {
	if err := a.validate(); err != nil {
		return err
	}
	if _, ok := r.index[a.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAbility, a.ID)
	}
	a = a.clone()
	r.index[a.ID] = len(r.abilities)
	r.abilities = append(r.abilities, a)
	return nil
}

// Get returns the ability registered under id.
func (r *Registry) Get(id string) (Ability, bool) {
	i, ok := r.index[id]
	if !ok {
		return Ability{}, false
	}
	return r.abilities[i].clone(), true
}

// List returns the abilities in registration order.
func (r *Registry) List() []Ability {
	out := make([]Ability, len(r.abilities))
	for i, a := range r.abilities {
		out[i] = a.clone()
	}
	return out
}

// Len returns the number of registered abilities.
func (r *Registry) Len() int {
	return len(r.abilities)
}
