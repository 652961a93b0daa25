// Package adversary manages the hostile population that spawns around the
// arena, walks toward the player and dies to ability damage.
package adversary

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/okian/synaptic/internal/domain/types"
	"github.com/okian/synaptic/pkg/logger"
)

// Population defaults.
const (
	DefaultMaxPopulation = 8
	DefaultSpawnInterval = 2 * time.Second
	DefaultHealth        = 100.0

	// StoppingRadius is the planar distance at which adversaries stop
	// approaching their target.
	StoppingRadius = 1.5
	// SpawnExtent is the half width of the square spawn area.
	SpawnExtent = 7.5

	minSpeed, speedSpan = 0.5, 1.0
	minScale, scaleSpan = 0.8, 0.4
	pulseRate           = 2.0
	pulseBase           = 0.8
	pulseAmplitude      = 0.2
)

// Adversary is a copy of one live population member.
type Adversary struct {
	ID            string     `json:"id" yaml:"id"`
	Position      types.Vec3 `json:"position" yaml:"position"`
	Health        float64    `json:"health" yaml:"health"`
	Speed         float64    `json:"speed" yaml:"speed"`
	RotationPhase float64    `json:"rotation_phase" yaml:"rotation_phase"`
	Scale         float64    `json:"scale" yaml:"scale"`
	Effects       []string   `json:"effects" yaml:"effects"`
}

func (a Adversary) clone() Adversary {
	a.Effects = slices.Clone(a.Effects)
	return a
}

// Outcome classifies the result of ApplyDamage.
type Outcome int

// Damage outcomes.
const (
	Damaged Outcome = iota
	Destroyed
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Damaged:
		return "damaged"
	case Destroyed:
		return "destroyed"
	case NotFound:
		return "not_found"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// DamageResult reports what a hit did. Remaining is only meaningful for
// Damaged.
type DamageResult struct {
	ID        string
	Outcome   Outcome
	Remaining float64
}

// Population owns the live adversaries. It is not safe for concurrent use;
// the simulation loop is its only writer.
type Population struct {
	members []Adversary
	index   map[string]int

	spawnTimer    float64
	spawnInterval float64
	maxPopulation int

	rng    *rand.Rand
	newID  func() string
	logger logger.Logger
}

// New creates an empty population.
func New(opts ...Option) *Population {
	p := &Population{
		index:         make(map[string]int),
		spawnInterval: DefaultSpawnInterval.Seconds(),
		maxPopulation: DefaultMaxPopulation,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // simulation noise, not security sensitive
		newID:         uuid.NewString,
		logger:        logger.NamedOrNop("adversary"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Tick advances the population by dt seconds toward target. It spawns at
// most one adversary per call and returns copies of what it spawned.
func (p *Population) Tick(dt float64, target types.Vec3) []Adversary {
	if !(dt > 0) || math.IsInf(dt, 1) {
		return nil
	}

	var spawned []Adversary
	p.spawnTimer += dt
	if p.spawnTimer >= p.spawnInterval && len(p.members) < p.maxPopulation {
		spawned = append(spawned, p.spawn())
		p.spawnTimer = 0
	}

	for i := range p.members {
		a := &p.members[i]
		if types.PlanarDistance(a.Position, target) > StoppingRadius {
			a.Position = types.MoveToward(a.Position, target, a.Speed*dt)
		}
		a.RotationPhase += pulseRate * dt
		a.Scale = pulseBase + pulseAmplitude*math.Sin(a.RotationPhase)
	}
	return spawned
}

func (p *Population) spawn() Adversary {
	a := Adversary{
		ID: p.newID(),
		Position: types.Vec3{
			X: (p.rng.Float64()*2 - 1) * SpawnExtent,
			Z: (p.rng.Float64()*2 - 1) * SpawnExtent,
		},
		Health: DefaultHealth,
		Speed:  minSpeed + p.rng.Float64()*speedSpan,
		Scale:  minScale + p.rng.Float64()*scaleSpan,
	}
	p.index[a.ID] = len(p.members)
	p.members = append(p.members, a)
	p.logger.Debug(context.Background(), "adversary spawned",
		logger.String("id", a.ID),
		logger.Int("population", len(p.members)),
	)
	return a.clone()
}

// ApplyDamage subtracts amount from the health of id. Negative and NaN
// amounts count as zero. Adversaries at or below zero health are removed.
func (p *Population) ApplyDamage(id string, amount float64) DamageResult {
	i, ok := p.index[id]
	if !ok {
		return DamageResult{ID: id, Outcome: NotFound}
	}
	if !(amount > 0) {
		amount = 0
	}
	a := &p.members[i]
	a.Health -= amount
	if a.Health <= 0 {
		p.remove(i)
		p.logger.Debug(context.Background(), "adversary destroyed",
			logger.String("id", id),
			logger.Int("remaining", len(p.members)),
		)
		return DamageResult{ID: id, Outcome: Destroyed}
	}
	return DamageResult{ID: id, Outcome: Damaged, Remaining: a.Health}
}

// remove swap-deletes the member at i.
func (p *Population) remove(i int) {
	last := len(p.members) - 1
	delete(p.index, p.members[i].ID)
	if i != last {
		p.members[i] = p.members[last]
		p.index[p.members[i].ID] = i
	}
	p.members[last] = Adversary{}
	p.members = p.members[:last]
}

// AttachEffects appends tags to the effects of id. It reports whether id
// was alive.
func (p *Population) AttachEffects(id string, tags []string) bool {
	i, ok := p.index[id]
	if !ok {
		return false
	}
	p.members[i].Effects = append(p.members[i].Effects, tags...)
	return true
}

// Clear removes every adversary and returns how many there were. The spawn
// timer keeps running.
func (p *Population) Clear() int {
	n := len(p.members)
	p.members = nil
	clear(p.index)
	p.logger.Info(context.Background(), "adversaries cleared", logger.Int("count", n))
	return n
}

// Len returns the live population size.
func (p *Population) Len() int {
	return len(p.members)
}

// Cap returns the population cap.
func (p *Population) Cap() int {
	return p.maxPopulation
}

// Get returns a copy of id.
func (p *Population) Get(id string) (Adversary, error) {
	i, ok := p.index[id]
	if !ok {
		return Adversary{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	return p.members[i].clone(), nil
}

// Snapshot returns copies of every live adversary.
func (p *Population) Snapshot() []Adversary {
	out := make([]Adversary, len(p.members))
	for i, a := range p.members {
		out[i] = a.clone()
	}
	return out
}

// Contacts counts adversaries within StoppingRadius of target.
func (p *Population) Contacts(target types.Vec3) int {
	n := 0
	for _, a := range p.members {
		if types.PlanarDistance(a.Position, target) <= StoppingRadius {
			n++
		}
	}
	return n
}
