package service

import (
	"time"

	"github.com/okian/synaptic/internal/adapters/repository"
	"github.com/okian/synaptic/internal/engine"
	"github.com/okian/synaptic/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTickInterval sets the wall time between frames.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithCommandQueueSize bounds the queue of pending commands.
func WithCommandQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.commandQueueSize = size
		}
	}
}

// WithRecordQueueSize bounds the queue of reports waiting to be written.
func WithRecordQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.recordQueueSize = size
		}
	}
}

// WithRecordInterval sets how much simulated time passes between persisted
// reports. Zero disables recording.
func WithRecordInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.recordInterval = d
		}
	}
}

// WithRecorderWorkers sets the number of report writers.
func WithRecorderWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recorderWorkers = n
		}
	}
}

// WithDedupeSize sets the size of the Idempotency-Key cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		s.dedupeSize = size
	}
}

// WithDBPath sets the sqlite file the service opens when no store is given.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithStore supplies the report store. The caller keeps ownership and
// closes it after Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithSeed seeds the feed and population random sources. Zero picks a
// time based seed.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithConnectLatency sets the simulated device handshake latency.
func WithConnectLatency(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.connectLatency = d
		}
	}
}

// WithSamplePeriod sets the simulated sample interval.
func WithSamplePeriod(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.samplePeriod = d
		}
	}
}

// WithPlasticityRates sets the neurogenesis and myelin base rates.
func WithPlasticityRates(neurogenesis, myelin float64) Option {
	return func(s *Service) {
		s.neurogenesisRate = neurogenesis
		s.myelinRate = myelin
	}
}

// WithMaxPopulation caps live adversaries.
func WithMaxPopulation(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxPopulation = n
		}
	}
}

// WithSpawnInterval sets the time between adversary spawns.
func WithSpawnInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.spawnInterval = d
		}
	}
}

// WithStress turns adversary contact stress on or off.
func WithStress(enabled bool) Option {
	return func(s *Service) {
		s.stressEnabled = enabled
	}
}

// WithEngineOptions appends options applied to the simulation loop after
// the service's own, so they take precedence.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithManualClock stops Start from running the frame clock; frames are then
// driven by Step.
func WithManualClock() Option {
	return func(s *Service) {
		s.manual = true
	}
}
