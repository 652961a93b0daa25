// Package engine orchestrates one simulation tick across the biosignal feed,
// the plasticity model, abilities, adversaries and the cognition metrics.
package engine

import (
	"context"
	"errors"
	"math"
	"slices"
	"time"

	"github.com/okian/synaptic/internal/domain/ability"
	"github.com/okian/synaptic/internal/domain/adversary"
	"github.com/okian/synaptic/internal/domain/biosignal"
	"github.com/okian/synaptic/internal/domain/cognition"
	"github.com/okian/synaptic/internal/domain/plasticity"
	"github.com/okian/synaptic/internal/domain/types"
	"github.com/okian/synaptic/pkg/logger"
	"github.com/okian/synaptic/pkg/metrics"
)

// Player defaults.
const (
	MaxPlayerHealth = 100.0
	// PlayerTargetID names the player in restorative hit lists.
	PlayerTargetID = "player"

	stressPeriod = 1.0
)

// Player is the controllable entity abilities are cast from. Effects holds
// the tags restorative abilities attached, in cast order.
type Player struct {
	Position  types.Vec3 `json:"position" yaml:"position"`
	Health    float64    `json:"health" yaml:"health"`
	MaxHealth float64    `json:"max_health" yaml:"max_health"`
	Effects   []string   `json:"effects" yaml:"effects"`
}

// ActivationResult is the outcome of one activation request.
type ActivationResult struct {
	AbilityID string
	Err       error
	// Affected counts targets within the ability's area.
	Affected int
	Kills    int
	Healed   float64
}

// TickReport describes what happened during one tick.
type TickReport struct {
	Tick            uint64
	DT              float64
	Sample          biosignal.Sample
	SampleGenerated bool
	FocusLevel      float64
	Plasticity      plasticity.State
	Spawned         []adversary.Adversary
	Activations     []ActivationResult
	// Events are the activation events the ability controller emitted.
	Events          []ability.Activation
	Damage          []adversary.DamageResult
	Stress          float64
	StressApplied   bool
	Snapshot        cognition.Snapshot
	Achievements    []cognition.Achievement
}

// Loop runs the simulation. It is driven by a single goroutine and is not
// safe for concurrent use.
type Loop struct {
	feed         *biosignal.Feed
	model        *plasticity.Model
	abilities    *ability.Controller
	population   *adversary.Population
	aggregator   *cognition.Aggregator
	achievements *cognition.Achievements

	scene     Scene
	dashboard Dashboard
	audio     Audio

	player   Player
	requests []string
	ticks    uint64

	stressEnabled bool
	stressTimer   float64
	stressed      bool
	lastStress    float64

	feedStates []string
	now        func() time.Time
	logger     logger.Logger
}

// New creates a loop. Components not supplied through options get their
// defaults.
func New(opts ...Option) *Loop {
	l := &Loop{
		scene:         StaticScene{},
		dashboard:     nopDashboard{},
		audio:         nopAudio{},
		achievements:  cognition.NewAchievements(),
		player:        Player{Health: MaxPlayerHealth, MaxHealth: MaxPlayerHealth},
		stressEnabled: true,
		now:           time.Now,
		logger:        logger.NamedOrNop("engine"),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.feed == nil {
		l.feed = biosignal.New()
	}
	if l.model == nil {
		l.model = plasticity.New()
	}
	if l.abilities == nil {
		l.abilities = ability.NewController(ability.DefaultRegistry(), ability.WithClock(l.now))
	}
	if l.population == nil {
		l.population = adversary.New()
	}
	if l.aggregator == nil {
		l.aggregator = cognition.NewAggregator(l.now())
	}
	for _, s := range biosignal.States {
		l.feedStates = append(l.feedStates, s.String())
	}
	l.player.Position = l.scene.PlayerPosition()
	return l
}

// RequestActivation queues an activation for the next tick.
func (l *Loop) RequestActivation(abilityID string) {
	l.requests = append(l.requests, abilityID)
}

// Tick advances the simulation by dt seconds. Negative and NaN dt are
// treated as zero.
func (l *Loop) Tick(ctx context.Context, dt float64) TickReport {
	started := time.Now()
	if !(dt > 0) {
		dt = 0
	}
	l.ticks++
	rep := TickReport{Tick: l.ticks, DT: dt}

	// Feed.
	rep.Sample, rep.SampleGenerated = l.feed.Tick(dt)
	rep.FocusLevel = l.feed.FocusLevel()
	if rep.SampleGenerated {
		metrics.RecordFeedSample()
	}

	// Plasticity.
	l.model.Advance(dt, rep.FocusLevel)

	// Cooldowns.
	l.abilities.Tick(dt)

	// Adversaries.
	l.player.Position = l.scene.PlayerPosition()
	rep.Spawned = l.population.Tick(dt, l.player.Position)
	for _, a := range rep.Spawned {
		l.scene.AdversarySpawned(a)
		metrics.RecordSpawn()
	}
	if l.stressEnabled {
		rep.Stress, rep.StressApplied = l.evaluateStress(ctx, dt)
	}

	// Activations and damage.
	rep.Activations, rep.Damage = l.resolveActivations(ctx)
	rep.Events = l.abilities.Drain()
	for _, ev := range rep.Events {
		l.aggregator.RecordActivation(ev.AbilityID, ev.At)
	}

	// Metrics and achievements.
	rep.Plasticity = l.model.State()
	rep.Snapshot = l.aggregator.Snapshot(rep.Plasticity, rep.Sample, l.now())
	l.dashboard.Publish(rep.Snapshot)
	rep.Achievements = l.achievements.Evaluate(rep.Plasticity)
	for _, a := range rep.Achievements {
		l.dashboard.Achievement(a)
		metrics.RecordAchievement(a.Title)
		l.logger.Info(ctx, "achievement unlocked", logger.String("title", a.Title))
	}

	l.publishMetrics(rep, started)
	return rep
}

// evaluateStress samples adversary contact once per stressPeriod of
// simulated time.
func (l *Loop) evaluateStress(ctx context.Context, dt float64) (float64, bool) {
	l.stressTimer += dt
	if l.stressTimer < stressPeriod {
		return l.lastStress, false
	}
	l.stressTimer = math.Mod(l.stressTimer, stressPeriod)

	contacts := l.population.Contacts(l.player.Position)
	switch {
	case contacts > 0:
		l.lastStress = float64(contacts) / float64(l.population.Cap())
		l.model.ApplyStress(l.lastStress)
		l.stressed = true
		l.logger.Debug(ctx, "contact stress applied",
			logger.Int("contacts", contacts),
			logger.Float64("stress", l.lastStress),
		)
		return l.lastStress, true
	case l.stressed:
		l.lastStress = 0
		l.model.ApplyStress(0)
		l.stressed = false
		return 0, true
	default:
		return 0, false
	}
}

func (l *Loop) resolveActivations(ctx context.Context) ([]ActivationResult, []adversary.DamageResult) {
	if len(l.requests) == 0 {
		return nil, nil
	}
	requests := l.requests
	l.requests = nil

	var (
		results []ActivationResult
		damage  []adversary.DamageResult
	)
	for _, id := range requests {
		act, err := l.abilities.Activate(id)
		if err != nil {
			results = append(results, ActivationResult{AbilityID: id, Err: err})
			metrics.RecordAbilityActivation(id, activationOutcome(err))
			continue
		}
		metrics.RecordAbilityActivation(id, "activated")
		l.scene.AbilityEffect(id, l.player.Position)
		l.audio.Cue(id)

		res, dmg := l.applyEffect(ctx, act.Ability)
		results = append(results, res)
		damage = append(damage, dmg...)
		metrics.RecordAbilityHits(id, res.Affected)
	}
	return results, damage
}

func (l *Loop) applyEffect(ctx context.Context, a ability.Ability) (ActivationResult, []adversary.DamageResult) {
	res := ActivationResult{AbilityID: a.ID}

	if a.Kind == ability.Restorative {
		hits := ability.Resolve(l.player.Position, []ability.Target{{ID: PlayerTargetID, Position: l.player.Position}}, a)
		res.Affected = len(hits)
		for _, h := range hits {
			before := l.player.Health
			l.player.Health = math.Min(l.player.MaxHealth, l.player.Health+h.Amount)
			res.Healed += l.player.Health - before
			l.player.Effects = append(l.player.Effects, h.Tags...)
		}
		if a.PlasticityReward > 0 {
			l.model.RewardDefault(a.PlasticityReward)
		}
		return res, nil
	}

	snapshot := l.population.Snapshot()
	targets := make([]ability.Target, len(snapshot))
	for i, adv := range snapshot {
		targets[i] = ability.Target{ID: adv.ID, Position: adv.Position}
	}
	hits := ability.Resolve(l.player.Position, targets, a)
	res.Affected = len(hits)

	damage := make([]adversary.DamageResult, 0, len(hits))
	for _, h := range hits {
		d := l.population.ApplyDamage(h.TargetID, -h.Amount)
		damage = append(damage, d)
		metrics.RecordDamageOutcome(d.Outcome.String())
		switch d.Outcome {
		case adversary.Destroyed:
			res.Kills++
			l.aggregator.RecordKill()
			l.scene.AdversaryRemoved(h.TargetID)
			metrics.RecordKill()
		case adversary.Damaged:
			l.population.AttachEffects(h.TargetID, h.Tags)
		}
	}
	if res.Kills > 0 {
		l.logger.Info(ctx, "adversaries destroyed",
			logger.String("ability", a.ID),
			logger.Int("kills", res.Kills),
		)
	}
	return res, damage
}

func activationOutcome(err error) string {
	switch {
	case errors.Is(err, ability.ErrNotReady):
		return "not_ready"
	case errors.Is(err, ability.ErrUnknownAbility):
		return "unknown"
	default:
		return "error"
	}
}

func (l *Loop) publishMetrics(rep TickReport, started time.Time) {
	metrics.RecordTick(rep.DT, float64(time.Since(started).Microseconds())/1000)
	metrics.UpdatePlasticity(rep.Plasticity.GrowthFactor, rep.Plasticity.ConnectionStrength, rep.Plasticity.NeurogenesisRate)
	metrics.UpdateFocusLevel(rep.FocusLevel)
	metrics.UpdateFeedState(l.feed.Status().String(), l.feedStates)
	metrics.UpdatePopulation(l.population.Len())
	metrics.UpdateSessionScore(rep.Snapshot.Score)
	metrics.UpdateStressFactor(l.lastStress)
}

// ConnectFeed starts a device connection; see biosignal.Feed.Connect.
func (l *Loop) ConnectFeed(ctx context.Context) <-chan error {
	return l.feed.Connect(ctx)
}

// UseSimulatedData switches the feed to simulated samples.
func (l *Loop) UseSimulatedData() {
	l.feed.UseSimulatedData()
}

// DisconnectFeed stops the feed.
func (l *Loop) DisconnectFeed() {
	l.feed.Disconnect()
}

// FeedStatus returns the feed state.
func (l *Loop) FeedStatus() biosignal.State {
	return l.feed.Status()
}

// ClearAdversaries removes every adversary and returns how many there were.
func (l *Loop) ClearAdversaries() int {
	snapshot := l.population.Snapshot()
	n := l.population.Clear()
	for _, a := range snapshot {
		l.scene.AdversaryRemoved(a.ID)
	}
	metrics.UpdatePopulation(0)
	return n
}

// Snapshot returns the latest cognition snapshot.
func (l *Loop) Snapshot() cognition.Snapshot {
	return l.aggregator.Last()
}

// Report builds the research export for the current moment.
func (l *Loop) Report() cognition.Report {
	return l.aggregator.Report(l.model.State(), l.feed.Sample(), l.achievements.Unlocked(), l.now())
}

// Summary returns the session summary.
func (l *Loop) Summary() cognition.Summary {
	return l.aggregator.Summary(l.now())
}

// Adversaries returns copies of the live adversaries.
func (l *Loop) Adversaries() []adversary.Adversary {
	return l.population.Snapshot()
}

// Abilities returns the ability statuses.
func (l *Loop) Abilities() []ability.Status {
	return l.abilities.Statuses()
}

// Plasticity returns the plasticity state.
func (l *Loop) Plasticity() plasticity.State {
	return l.model.State()
}

// Player returns a copy of the player state.
func (l *Loop) Player() Player {
	p := l.player
	p.Effects = slices.Clone(l.player.Effects)
	return p
}

// SessionID returns the id of the running session.
func (l *Loop) SessionID() string {
	return l.aggregator.SessionID()
}
