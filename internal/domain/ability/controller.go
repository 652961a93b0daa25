package ability

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/synaptic/pkg/logger"
)

// CooldownState is the per-ability cooldown bookkeeping.
type CooldownState struct {
	Remaining float64 `json:"remaining"`
	Active    bool    `json:"active"`
}

// Activation records a successful ability use.
type Activation struct {
	AbilityID string    `json:"ability_id"`
	Ability   Ability   `json:"-"`
	At        time.Time `json:"at"`
}

// Status is a read-only view of one ability and its cooldown.
type Status struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Kind        Kind    `json:"kind" yaml:"kind"`
	Remaining   float64 `json:"cooldown" yaml:"cooldown"`
	MaxCooldown float64 `json:"max_cooldown" yaml:"max_cooldown"`
	Active      bool    `json:"active" yaml:"active"`
	Ready       bool    `json:"ready" yaml:"ready"`
}

// Controller gates ability use behind cooldowns. It is driven by the
// simulation loop and is not safe for concurrent use.
type Controller struct {
	abilities []Ability
	cooldowns []CooldownState
	index     map[string]int
	events    []Activation

	now    func() time.Time
	logger logger.Logger
}

// NewController creates a controller over the abilities in reg, all ready.
// Later registrations are not seen by the controller.
func NewController(reg *Registry, opts ...Option) *Controller {
	list := reg.List()
	c := &Controller{
		abilities: list,
		cooldowns: make([]CooldownState, len(list)),
		index:     make(map[string]int, len(list)),
		now:       time.Now,
		logger:    logger.NamedOrNop("ability"),
	}
	for i, a := range list {
		c.index[a.ID] = i
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Activate starts the cooldown of ability id. It fails with
// ErrUnknownAbility or ErrNotReady and leaves state untouched in that case.
func (c *Controller) Activate(id string) (Activation, error) {
	i, ok := c.index[id]
	if !ok {
		return Activation{}, fmt.Errorf("activate %q: %w", id, ErrUnknownAbility)
	}
	cd := &c.cooldowns[i]
	if cd.Remaining > 0 {
		c.logger.Debug(context.Background(), "ability on cooldown",
			logger.String("ability", id),
			logger.Float64("remaining", cd.Remaining),
		)
		return Activation{}, fmt.Errorf("activate %q (%.1fs remaining): %w", id, cd.Remaining, ErrNotReady)
	}

	a := c.abilities[i]
	cd.Remaining = a.MaxCooldown
	cd.Active = true

	act := Activation{AbilityID: id, Ability: a.clone(), At: c.now()}
	c.events = append(c.events, act)
	c.logger.Info(context.Background(), "ability activated",
		logger.String("ability", id),
		logger.Float64("cooldown", a.MaxCooldown),
	)
	return act, nil
}

// Tick counts every cooldown down by dt seconds. Abilities reaching zero
// become ready and inactive.
func (c *Controller) Tick(dt float64) {
	if !(dt > 0) {
		return
	}
	for i := range c.cooldowns {
		cd := &c.cooldowns[i]
		if cd.Remaining <= 0 {
			continue
		}
		cd.Remaining = math.Max(0, cd.Remaining-dt)
		if cd.Remaining == 0 {
			cd.Active = false
		}
	}
}

// Drain returns and clears the activations recorded since the last call.
func (c *Controller) Drain() []Activation {
	ev := c.events
	c.events = nil
	return ev
}

// IsReady reports whether id exists and is off cooldown.
func (c *Controller) IsReady(id string) bool {
	i, ok := c.index[id]
	return ok && c.cooldowns[i].Remaining <= 0
}

// Cooldown returns the cooldown state of id.
func (c *Controller) Cooldown(id string) (CooldownState, bool) {
	i, ok := c.index[id]
	if !ok {
		return CooldownState{}, false
	}
	return c.cooldowns[i], true
}

// Status returns the status of id.
func (c *Controller) Status(id string) (Status, bool) {
	i, ok := c.index[id]
	if !ok {
		return Status{}, false
	}
	return c.status(i), true
}

// Statuses returns every ability status in registration order.
func (c *Controller) Statuses() []Status {
	out := make([]Status, len(c.abilities))
	for i := range c.abilities {
		out[i] = c.status(i)
	}
	return out
}

func (c *Controller) status(i int) Status {
	a, cd := c.abilities[i], c.cooldowns[i]
	return Status{
		ID:          a.ID,
		Name:        a.Name,
		Kind:        a.Kind,
		Remaining:   cd.Remaining,
		MaxCooldown: a.MaxCooldown,
		Active:      cd.Active,
		Ready:       cd.Remaining <= 0,
	}
}

// Ability returns the definition of id.
func (c *Controller) Ability(id string) (Ability, bool) {
	i, ok := c.index[id]
	if !ok {
		return Ability{}, false
	}
	return c.abilities[i].clone(), true
}
