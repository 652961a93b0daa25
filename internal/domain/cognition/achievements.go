package cognition

import "github.com/okian/synaptic/internal/domain/plasticity"

// Achievement is a one-off milestone unlocked during a session.
type Achievement struct {
	Key         string `json:"key" yaml:"key"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

type milestone struct {
	Achievement
	reached func(plasticity.State) bool
}

var milestones = []milestone{
	{
		Achievement: Achievement{
			Key:         "bdnf_master",
			Title:       "BDNF Master",
			Description: "Your brain is producing optimal growth factors!",
		},
		reached: func(s plasticity.State) bool { return s.GrowthFactor >= 0.5 },
	},
	{
		Achievement: Achievement{
			Key:         "synaptic_champion",
			Title:       "Synaptic Champion",
			Description: "Neural connections are strengthening rapidly!",
		},
		reached: func(s plasticity.State) bool { return s.ConnectionStrength >= 1.5 },
	},
}

// Achievements tracks which milestones were already unlocked this session.
type Achievements struct {
	unlocked map[string]bool
	order    []Achievement
}

// NewAchievements creates a tracker with nothing unlocked.
func NewAchievements() *Achievements {
	return &Achievements{unlocked: make(map[string]bool, len(milestones))}
}

// Evaluate returns the milestones s reaches for the first time.
func (a *Achievements) Evaluate(s plasticity.State) []Achievement {
	var fresh []Achievement
	for _, m := range milestones {
		if a.unlocked[m.Key] || !m.reached(s) {
			continue
		}
		a.unlocked[m.Key] = true
		a.order = append(a.order, m.Achievement)
		fresh = append(fresh, m.Achievement)
	}
	return fresh
}

// Unlocked returns every unlocked achievement in unlock order.
func (a *Achievements) Unlocked() []Achievement {
	out := make([]Achievement, len(a.order))
	copy(out, a.order)
	return out
}

// Has reports whether key was unlocked.
func (a *Achievements) Has(key string) bool {
	return a.unlocked[key]
}
