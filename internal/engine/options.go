package engine

import (
	"time"

	"github.com/okian/synaptic/internal/domain/ability"
	"github.com/okian/synaptic/internal/domain/adversary"
	"github.com/okian/synaptic/internal/domain/biosignal"
	"github.com/okian/synaptic/internal/domain/cognition"
	"github.com/okian/synaptic/internal/domain/plasticity"
	"github.com/okian/synaptic/pkg/logger"
)

// Option applies a configuration option to the Loop.
type Option func(*Loop)

// WithFeed sets the biosignal feed.
func WithFeed(f *biosignal.Feed) Option {
	return func(l *Loop) {
		if f != nil {
			l.feed = f
		}
	}
}

// WithPlasticity sets the plasticity model.
func WithPlasticity(m *plasticity.Model) Option {
	return func(l *Loop) {
		if m != nil {
			l.model = m
		}
	}
}

// WithAbilities sets the ability controller.
func WithAbilities(c *ability.Controller) Option {
	return func(l *Loop) {
		if c != nil {
			l.abilities = c
		}
	}
}

// WithPopulation sets the adversary population.
func WithPopulation(p *adversary.Population) Option {
	return func(l *Loop) {
		if p != nil {
			l.population = p
		}
	}
}

// WithAggregator sets the cognition aggregator.
func WithAggregator(a *cognition.Aggregator) Option {
	return func(l *Loop) {
		if a != nil {
			l.aggregator = a
		}
	}
}

// WithScene sets the scene collaborator.
func WithScene(s Scene) Option {
	return func(l *Loop) {
		if s != nil {
			l.scene = s
		}
	}
}

// WithDashboard sets the dashboard collaborator.
func WithDashboard(d Dashboard) Option {
	return func(l *Loop) {
		if d != nil {
			l.dashboard = d
		}
	}
}

// WithAudio sets the audio collaborator.
func WithAudio(a Audio) Option {
	return func(l *Loop) {
		if a != nil {
			l.audio = a
		}
	}
}

// WithClock sets the wall clock used for session time.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		if now != nil {
			l.now = now
		}
	}
}

// WithStress enables or disables contact stress.
func WithStress(enabled bool) Option {
	return func(l *Loop) {
		l.stressEnabled = enabled
	}
}

// WithLogger sets a custom logger for the loop.
func WithLogger(lg logger.Logger) Option {
	return func(l *Loop) {
		if lg != nil {
			l.logger = lg
		}
	}
}
