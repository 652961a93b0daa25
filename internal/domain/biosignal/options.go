package biosignal

import (
	"math/rand"
	"time"

	"github.com/okian/synaptic/pkg/logger"
)

// Option applies a configuration option to the Feed.
type Option func(*Feed)

// WithConnectLatency sets the simulated device handshake time.
func WithConnectLatency(d time.Duration) Option {
	return func(f *Feed) {
		if d >= 0 {
			f.latency = d
		}
	}
}

// WithSamplePeriod sets how much simulated time passes between samples.
func WithSamplePeriod(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.period = d.Seconds()
		}
	}
}

// WithDialer replaces the simulated device handshake.
func WithDialer(d Dialer) Option {
	return func(f *Feed) {
		if d != nil {
			f.dialer = d
		}
	}
}

// WithAfterFunc replaces time.AfterFunc for scheduling the connect completion.
func WithAfterFunc(fn AfterFunc) Option {
	return func(f *Feed) {
		if fn != nil {
			f.afterFunc = fn
		}
	}
}

// WithRand sets the random source used for band generation.
func WithRand(r *rand.Rand) Option {
	return func(f *Feed) {
		if r != nil {
			f.rng = r
		}
	}
}

// WithLogger sets a custom logger for the feed.
func WithLogger(l logger.Logger) Option {
	return func(f *Feed) {
		if l != nil {
			f.logger = l
		}
	}
}
