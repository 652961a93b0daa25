package engine

import (
	"github.com/okian/synaptic/internal/domain/adversary"
	"github.com/okian/synaptic/internal/domain/cognition"
	"github.com/okian/synaptic/internal/domain/types"
)

// Scene is the presentation side of the world: it owns the player's
// position and renders spawns, removals and ability effects.
type Scene interface {
	PlayerPosition() types.Vec3
	AdversarySpawned(a adversary.Adversary)
	AdversaryRemoved(id string)
	AbilityEffect(abilityID string, at types.Vec3)
}

// Dashboard receives the per-tick metrics and achievement unlocks.
type Dashboard interface {
	Publish(s cognition.Snapshot)
	Achievement(a cognition.Achievement)
}

// Audio plays the cue for an activated ability.
type Audio interface {
	Cue(abilityID string)
}

// StaticScene keeps the player at a fixed position and renders nothing.
type StaticScene struct {
	Position types.Vec3
}

func (s StaticScene) PlayerPosition() types.Vec3         { return s.Position }
func (StaticScene) AdversarySpawned(adversary.Adversary) {}
func (StaticScene) AdversaryRemoved(string)              {}
func (StaticScene) AbilityEffect(string, types.Vec3)     {}

type nopDashboard struct{}

func (nopDashboard) Publish(cognition.Snapshot)        {}
func (nopDashboard) Achievement(cognition.Achievement) {}

type nopAudio struct{}

func (nopAudio) Cue(string) {}
