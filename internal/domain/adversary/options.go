package adversary

import (
	"math/rand"
	"time"

	"github.com/okian/synaptic/pkg/logger"
)

// Option applies a configuration option to the Population.
type Option func(*Population)

// WithMaxPopulation caps the number of live adversaries. Values below 1 are ignored.
func WithMaxPopulation(n int) Option {
	return func(p *Population) {
		if n > 0 {
			p.maxPopulation = n
		}
	}
}

// WithSpawnInterval sets how much simulated time passes between spawns.
func WithSpawnInterval(d time.Duration) Option {
	return func(p *Population) {
		if d > 0 {
			p.spawnInterval = d.Seconds()
		}
	}
}

// WithRand sets the random source for spawn placement and speed.
func WithRand(r *rand.Rand) Option {
	return func(p *Population) {
		if r != nil {
			p.rng = r
		}
	}
}

// WithIDGenerator replaces the uuid based id generator.
func WithIDGenerator(gen func() string) Option {
	return func(p *Population) {
		if gen != nil {
			p.newID = gen
		}
	}
}

// WithLogger sets a custom logger for the population.
func WithLogger(l logger.Logger) Option {
	return func(p *Population) {
		if l != nil {
			p.logger = l
		}
	}
}
