// Package biosignal produces a normalized focus level from a simulated
// EEG-style band power stream.
//
// The feed is ticked by the simulation loop; sample generation is an
// accumulated-time check inside Tick. The only asynchronous part is the
// simulated connect handshake, which completes on a timer and re-checks the
// attempt generation before moving to Streaming.
package biosignal

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/synaptic/internal/domain/neuromath"
	"github.com/okian/synaptic/pkg/logger"
)

// Default feed configuration constants.
const (
	DefaultConnectLatency = 2 * time.Second
	DefaultSamplePeriod   = time.Second
	// NeutralFocus is reported whenever the feed is not streaming.
	NeutralFocus = 0.5

	alphaMin, alphaSpan = 0.3, 0.4
	betaMin, betaSpan   = 0.2, 0.6
	thetaMin, thetaSpan = 0.1, 0.3
)

// State is the connection state of the feed.
type State int

// Feed states.
const (
	Disconnected State = iota
	Connecting
	Streaming
	Simulated
)

// States lists every state, in declaration order.
var States = []State{Disconnected, Connecting, Streaming, Simulated}

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Streaming:
		return "streaming"
	case Simulated:
		return "simulated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// IsStreaming reports whether samples are being generated in this state.
func (s State) IsStreaming() bool {
	return s == Streaming || s == Simulated
}

// Sample is the latest band power reading.
type Sample struct {
	Focus     float64 `json:"focus"`
	Alpha     float64 `json:"alpha"`
	Beta      float64 `json:"beta"`
	Theta     float64 `json:"theta"`
	Connected bool    `json:"connected"`
}

// Dialer performs the device handshake. A non-nil error fails the attempt.
type Dialer func(ctx context.Context) error

// Timer is the subset of *time.Timer the feed needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d, like time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// simulatedDialer stands in for the headset handshake; it only fails when
// the caller's context is already done.
func simulatedDialer(ctx context.Context) error {
	return ctx.Err()
}

// Feed is the biosignal source state machine.
type Feed struct {
	mu sync.Mutex

	state   State
	sample  Sample
	elapsed float64

	attempt uint64
	pending chan error
	timer   Timer

	latency   time.Duration
	period    float64
	dialer    Dialer
	afterFunc AfterFunc
	rng       *rand.Rand
	logger    logger.Logger
}

// New creates a disconnected feed.
func New(opts ...Option) *Feed {
	f := &Feed{
		state:     Disconnected,
		sample:    Sample{Focus: NeutralFocus, Alpha: 0.5, Beta: 0.5, Theta: 0.5},
		latency:   DefaultConnectLatency,
		period:    DefaultSamplePeriod.Seconds(),
		dialer:    simulatedDialer,
		afterFunc: realAfterFunc,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // simulation noise, not security sensitive
		logger:    logger.NamedOrNop("biosignal"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Connect starts a simulated device connection and returns immediately.
// The returned channel receives exactly one value: nil once streaming,
// ErrConnectionFailed, ErrConnectionAbandoned, or ErrAlreadyConnected.
func (f *Feed) Connect(ctx context.Context) <-chan error {
	result := make(chan error, 1)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != Disconnected {
		result <- fmt.Errorf("connect from %s: %w", f.state, ErrAlreadyConnected)
		return result
	}

	f.attempt++
	gen := f.attempt
	f.state = Connecting
	f.pending = result
	f.timer = f.afterFunc(f.latency, func() { f.complete(ctx, gen) })
	f.logger.Info(ctx, "connecting to biosignal device", logger.String("latency", f.latency.String()))
	return result
}

// complete finishes attempt gen unless it was abandoned meanwhile.
func (f *Feed) complete(ctx context.Context, gen uint64) {
	err := f.dialer(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.attempt || f.state != Connecting {
		return
	}

	ch := f.pending
	f.pending = nil
	f.timer = nil

	if err != nil {
		f.state = Disconnected
		f.logger.Warn(ctx, "biosignal connection failed; using neutral focus", logger.Error(err))
		ch <- fmt.Errorf("%w: %w", ErrConnectionFailed, err)
		return
	}

	f.enterStreaming(Streaming)
	f.logger.Info(ctx, "biosignal device connected")
	ch <- nil
}

// UseSimulatedData abandons any connection and streams simulated samples
// immediately.
func (f *Feed) UseSimulatedData() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.teardown()
	f.enterStreaming(Simulated)
	f.logger.Info(context.Background(), "using simulated biosignal data")
}

// Disconnect stops sample generation. It is safe in any state and prevents
// an in-flight connect from completing.
func (f *Feed) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == Disconnected {
		return
	}
	f.teardown()
	f.logger.Info(context.Background(), "biosignal feed disconnected")
}

// teardown abandons the current attempt and stream. Caller holds f.mu.
func (f *Feed) teardown() {
	f.attempt++
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if f.pending != nil {
		f.pending <- ErrConnectionAbandoned
		f.pending = nil
	}
	f.state = Disconnected
	f.sample.Connected = false
}

// enterStreaming primes the accumulator so the first Tick yields a sample.
// Caller holds f.mu.
func (f *Feed) enterStreaming(s State) {
	f.state = s
	f.elapsed = f.period
	f.sample.Connected = true
}

// Tick advances the sample clock by dt seconds. It reports whether a new
// sample was generated.
func (f *Feed) Tick(dt float64) (Sample, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.state.IsStreaming() {
		return f.sample, false
	}
	if dt > 0 && !math.IsInf(dt, 1) {
		f.elapsed += dt
	} else if math.IsInf(dt, 1) {
		f.elapsed = f.period
	}
	if f.elapsed < f.period {
		return f.sample, false
	}
	f.elapsed = math.Mod(f.elapsed, f.period)
	f.generate()
	return f.sample, true
}

// generate draws new band powers. Caller holds f.mu.
func (f *Feed) generate() {
	alpha := alphaMin + f.rng.Float64()*alphaSpan
	beta := betaMin + f.rng.Float64()*betaSpan
	theta := thetaMin + f.rng.Float64()*thetaSpan
	f.sample = Sample{
		Focus:     neuromath.FocusRatio(alpha, beta),
		Alpha:     alpha,
		Beta:      beta,
		Theta:     theta,
		Connected: true,
	}
	f.logger.Debug(context.Background(), "biosignal sample",
		logger.Float64("focus", f.sample.Focus),
		logger.Float64("alpha", alpha),
		logger.Float64("beta", beta),
	)
}

// FocusLevel returns the latest focus while streaming and NeutralFocus
// otherwise, so callers never branch on connection state.
func (f *Feed) FocusLevel() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.state.IsStreaming() {
		return NeutralFocus
	}
	return f.sample.Focus
}

// Sample returns a copy of the latest sample.
func (f *Feed) Sample() Sample {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sample
}

// FocusScore returns the sigmoid band-ratio score of the latest sample.
func (f *Feed) FocusScore() float64 {
	s := f.Sample()
	return neuromath.FocusScore(s.Alpha, s.Beta, s.Theta)
}

// Status returns the current state.
func (f *Feed) Status() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}
