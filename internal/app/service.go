// Package service runs the simulation frame loop and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/okian/synaptic/internal/adapters/mq/queue"
	"github.com/okian/synaptic/internal/adapters/mq/worker"
	"github.com/okian/synaptic/internal/adapters/repository"
	"github.com/okian/synaptic/internal/domain/ability"
	"github.com/okian/synaptic/internal/domain/adversary"
	"github.com/okian/synaptic/internal/domain/biosignal"
	"github.com/okian/synaptic/internal/domain/cognition"
	"github.com/okian/synaptic/internal/domain/dedupe"
	"github.com/okian/synaptic/internal/domain/model"
	"github.com/okian/synaptic/internal/domain/plasticity"
	"github.com/okian/synaptic/internal/engine"
	"github.com/okian/synaptic/pkg/logger"
	"github.com/okian/synaptic/pkg/metrics"
)

const (
	commandQueueName   = "commands"
	recordQueueName    = "records"
	maxCommandsPerTick = 64

	// maxFrameDT caps the simulated time of one frame after a stall.
	maxFrameDT     = 0.25
	stopTimeout    = 5 * time.Second
	recentUnlocked = 16
)

// Service owns the simulation loop. A single frame goroutine ticks the loop;
// everything else talks to it through the command queue and reads the
// frame it last published.
type Service struct {
	mu sync.RWMutex

	// Core components
	loop     *engine.Loop
	commands *queue.InMemoryQueue[model.Command]
	records  *queue.InMemoryQueue[model.Record]
	store    repository.Store
	ownStore bool
	pool     *worker.Pool
	deduper  dedupe.Deduper[model.CommandResult]

	// Configuration
	tickInterval     time.Duration
	commandQueueSize int
	recordQueueSize  int
	recordInterval   time.Duration
	recorderWorkers  int
	dedupeSize       int
	dbPath           string
	seed             int64
	connectLatency   time.Duration
	samplePeriod     time.Duration
	neurogenesisRate float64
	myelinRate       float64
	maxPopulation    int
	spawnInterval    time.Duration
	stressEnabled    bool
	manual           bool
	engineOpts       []engine.Option

	// Frame state, owned by the frame goroutine (or Step callers).
	sinceRecord float64
	clock       *simClock

	// Published frame
	viewMu       sync.RWMutex
	view         frameView
	achievements []string

	// State
	started bool
	runCtx  context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	logger logger.Logger
}

// frameView is the copy of loop state published after every frame.
type frameView struct {
	tick        uint64
	snapshot    cognition.Snapshot
	report      cognition.Report
	adversaries []adversary.Adversary
	abilities   []ability.Status
	feedState   string
	player      engine.Player
	summary     cognition.Summary
	recorded    int
	dropped     int
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		tickInterval:     time.Second / 60,
		commandQueueSize: 1024,
		recordQueueSize:  256,
		recordInterval:   5 * time.Second,
		recorderWorkers:  1,
		dedupeSize:       dedupe.DefaultMaxSize,
		dbPath:           "synaptic.db",
		connectLatency:   biosignal.DefaultConnectLatency,
		samplePeriod:     biosignal.DefaultSamplePeriod,
		neurogenesisRate: plasticity.DefaultNeurogenesisRate,
		myelinRate:       plasticity.DefaultMyelinRate,
		maxPopulation:    adversary.DefaultMaxPopulation,
		spawnInterval:    adversary.DefaultSpawnInterval,
		stressEnabled:    true,
		logger:           nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}
	s.deduper = dedupe.NewInMemoryDeduper[model.CommandResult](dedupe.WithMaxSize(s.dedupeSize))

	return s
}

// Start opens the report store, starts the recorder pool and, unless the
// clock is manual, the frame goroutine. The goroutines stop on Stop or when
// ctx is canceled.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.NamedOrNop("service")
	}
	s.logger.Info(ctx, "starting simulation service...")

	if s.store == nil {
		store, err := repository.NewSQLiteStore(ctx, s.dbPath)
		if err != nil {
			return err
		}
		s.store = store
		s.ownStore = true
	}

	s.commands = queue.NewInMemoryQueue[model.Command](
		queue.WithCapacity(s.commandQueueSize),
		queue.WithName(commandQueueName),
	)
	s.records = queue.NewInMemoryQueue[model.Record](
		queue.WithCapacity(s.recordQueueSize),
		queue.WithName(recordQueueName),
	)
	s.loop = s.newLoop()
	s.sinceRecord = 0
	s.publish(engine.TickReport{Snapshot: s.loop.Snapshot()}, s.view.recorded, s.view.dropped)

	ctx = logger.WithFields(ctx, logger.String("session", s.loop.SessionID()))
	s.runCtx, s.cancel = context.WithCancel(ctx)
	s.pool = worker.NewPool(s.recorderWorkers, s.records, s.store,
		worker.WithLogger(s.logger.Named("recorder")),
	)
	// Recorders outlive the frame loop so Stop can drain the queue.
	s.pool.Start(context.WithoutCancel(ctx))

	s.done = make(chan struct{})
	if s.manual {
		close(s.done)
	} else {
		go s.run(s.runCtx, s.done)
	}

	s.started = true
	s.logger.Info(ctx, "simulation service started",
		logger.String("tick", s.tickInterval.String()),
		logger.Int("recorders", s.recorderWorkers),
		logger.Bool("manual_clock", s.manual),
	)
	return nil
}

func (s *Service) newLoop() *engine.Loop {
	seed := s.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	lg := s.logger
	s.clock = nil
	if s.manual {
		s.clock = newSimClock(time.Now())
	}
	opts := []engine.Option{
		engine.WithFeed(biosignal.New(
			biosignal.WithConnectLatency(s.connectLatency),
			biosignal.WithSamplePeriod(s.samplePeriod),
			biosignal.WithRand(rand.New(rand.NewSource(seed))),
			biosignal.WithLogger(lg.Named("biosignal")),
		)),
		engine.WithPlasticity(plasticity.New(
			plasticity.WithNeurogenesisRate(s.neurogenesisRate),
			plasticity.WithMyelinRate(s.myelinRate),
		)),
		engine.WithPopulation(adversary.New(
			adversary.WithMaxPopulation(s.maxPopulation),
			adversary.WithSpawnInterval(s.spawnInterval),
			adversary.WithRand(rand.New(rand.NewSource(seed+1))),
			adversary.WithLogger(lg.Named("adversary")),
		)),
		engine.WithDashboard(s),
		engine.WithStress(s.stressEnabled),
		engine.WithLogger(lg.Named("engine")),
	}
	if s.clock != nil {
		opts = append(opts, engine.WithClock(s.clock.Now))
	}
	return engine.New(append(opts, s.engineOpts...)...)
}

// run is the frame clock.
func (s *Service) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if dt > maxFrameDT {
				dt = maxFrameDT
			}
			s.frame(ctx, dt)
		}
	}
}

// Step runs one frame of dt seconds. It is only valid with WithManualClock.
func (s *Service) Step(ctx context.Context, dt float64) (engine.TickReport, error) {
	s.mu.RLock()
	started, manual := s.started, s.manual
	s.mu.RUnlock()
	switch {
	case !started:
		return engine.TickReport{}, ErrNotStarted
	case !manual:
		return engine.TickReport{}, ErrClockRunning
	}
	return s.frame(ctx, dt), nil
}

// frame drains pending commands, ticks the loop, answers activations and
// publishes the result.
func (s *Service) frame(ctx context.Context, dt float64) engine.TickReport {
	var activations []model.Command
	for _, cmd := range s.commands.Drain(maxCommandsPerTick) {
		if cmd.Kind == model.CommandActivate {
			s.loop.RequestActivation(cmd.AbilityID)
			activations = append(activations, cmd)
			continue
		}
		cmd.Respond(s.execute(ctx, cmd))
	}

	if s.clock != nil {
		s.clock.Advance(dt)
	}
	rep := s.loop.Tick(ctx, dt)

	for i, cmd := range activations {
		if i >= len(rep.Activations) {
			s.settle(ctx, cmd, model.CommandResult{AbilityID: cmd.AbilityID, Err: ErrActivationDropped}, false)
			continue
		}
		res := rep.Activations[i]
		s.settle(ctx, cmd, model.CommandResult{
			Err:       res.Err,
			AbilityID: res.AbilityID,
			Affected:  res.Affected,
			Kills:     res.Kills,
		}, true)
	}

	recorded, dropped := s.view.recorded, s.view.dropped
	if s.recordInterval > 0 {
		s.sinceRecord += rep.DT
		if s.sinceRecord >= s.recordInterval.Seconds() {
			s.sinceRecord = 0
			if s.enqueueRecord(ctx) {
				recorded++
			} else {
				dropped++
			}
		}
	}

	s.publish(rep, recorded, dropped)
	return rep
}

// settle answers an activation. A keyed activation that ran is completed in
// the deduper before the reply goes out, so a retry whose first attempt
// timed out replays this result; one that never ran releases its key.
func (s *Service) settle(ctx context.Context, cmd model.Command, res model.CommandResult, ran bool) {
	if cmd.Key != "" {
		if ran {
			s.deduper.Complete(ctx, cmd.Key, res)
		} else {
			s.deduper.Unrecord(ctx, cmd.Key)
		}
	}
	cmd.Respond(res)
}

// now reads the session clock: simulated time under a manual clock, wall
// time otherwise.
func (s *Service) now() time.Time {
	if s.clock != nil {
		return s.clock.Now()
	}
	return time.Now()
}

// execute applies a non-activation command immediately.
func (s *Service) execute(ctx context.Context, cmd model.Command) model.CommandResult {
	switch cmd.Kind {
	case model.CommandConnect:
		ch := s.loop.ConnectFeed(s.runCtx)
		select {
		case err := <-ch:
			metrics.RecordFeedConnect("rejected")
			return model.CommandResult{Err: err, FeedState: s.loop.FeedStatus().String()}
		default:
		}
		go s.awaitConnect(s.runCtx, ch)
		return model.CommandResult{FeedState: s.loop.FeedStatus().String()}
	case model.CommandSimulate:
		s.loop.UseSimulatedData()
		return model.CommandResult{FeedState: s.loop.FeedStatus().String()}
	case model.CommandDisconnect:
		s.loop.DisconnectFeed()
		return model.CommandResult{FeedState: s.loop.FeedStatus().String()}
	case model.CommandClear:
		n := s.loop.ClearAdversaries()
		s.logger.Info(ctx, "adversaries cleared", logger.Int("count", n))
		return model.CommandResult{Cleared: n}
	default:
		s.logger.Warn(ctx, "unknown command", logger.String("kind", cmd.Kind.String()))
		return model.CommandResult{Err: fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Kind)}
	}
}

// awaitConnect reports the outcome of a device connection.
func (s *Service) awaitConnect(ctx context.Context, ch <-chan error) {
	select {
	case err := <-ch:
		switch {
		case err == nil:
			metrics.RecordFeedConnect("connected")
		case errors.Is(err, biosignal.ErrConnectionAbandoned):
			metrics.RecordFeedConnect("abandoned")
			s.logger.Info(ctx, "biosignal connection abandoned")
		default:
			metrics.RecordFeedConnect("failed")
			metrics.RecordErrorByComponent("biosignal", "connect_failed")
			s.logger.Warn(ctx, "biosignal connection failed", logger.Error(err))
		}
	case <-ctx.Done():
	}
}

func (s *Service) enqueueRecord(ctx context.Context) bool {
	rec := model.Record{
		SessionID: s.loop.SessionID(),
		Report:    s.loop.Report(),
		TS:        s.now(),
	}
	if err := s.records.Push(ctx, rec); err != nil {
		s.logger.Warn(ctx, "report dropped", logger.Error(err))
		return false
	}
	return true
}

func (s *Service) publish(rep engine.TickReport, recorded, dropped int) {
	v := frameView{
		tick:        rep.Tick,
		snapshot:    s.loop.Snapshot(),
		report:      s.loop.Report(),
		adversaries: s.loop.Adversaries(),
		abilities:   s.loop.Abilities(),
		feedState:   s.loop.FeedStatus().String(),
		player:      s.loop.Player(),
		summary:     s.loop.Summary(),
		recorded:    recorded,
		dropped:     dropped,
	}
	s.viewMu.Lock()
	s.view = v
	s.viewMu.Unlock()
}

// Publish implements engine.Dashboard. The full frame is published after
// the tick, so only the snapshot is taken here.
func (s *Service) Publish(snap cognition.Snapshot) {
	s.viewMu.Lock()
	s.view.snapshot = snap
	s.viewMu.Unlock()
}

// Achievement implements engine.Dashboard.
func (s *Service) Achievement(a cognition.Achievement) {
	s.viewMu.Lock()
	s.achievements = append(s.achievements, a.Title)
	if len(s.achievements) > recentUnlocked {
		s.achievements = s.achievements[len(s.achievements)-recentUnlocked:]
	}
	s.viewMu.Unlock()
}

// Stop gracefully shuts down the service. Reports already queued are
// written before the store is closed; commands still pending are answered
// with ErrStopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := logger.WithFields(context.Background(), logger.String("session", s.loop.SessionID()))
	ctx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping simulation service...")

	s.cancel()
	<-s.done
	s.loop.DisconnectFeed()

	_ = s.commands.Close()
	for _, cmd := range s.commands.Drain(0) {
		s.settle(ctx, cmd, model.CommandResult{Err: ErrStopped, AbilityID: cmd.AbilityID}, false)
	}

	// Persist the final state of the session.
	if s.recordInterval > 0 {
		s.enqueueRecord(ctx)
	}
	_ = s.records.Close()

	// Recorders return once the closed queue is drained.
	if err := s.pool.Wait(ctx); err != nil {
		s.logger.Warn(ctx, "recorders did not drain",
			logger.Int("pending", s.records.Len()),
			logger.Error(err),
		)
		_ = s.pool.Shutdown(ctx)
	}

	if s.ownStore {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "failed to close report store", logger.Error(err))
		}
		s.store = nil
		s.ownStore = false
	}

	s.started = false
	s.logger.Info(ctx, "simulation service stopped")
}

// Enqueue submits a command to the frame loop. It reports false when the
// service is not running or the queue is full.
func (s *Service) Enqueue(ctx context.Context, cmd model.Command) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return false
	}
	return s.commands.Enqueue(ctx, cmd)
}

// Snapshot returns the cognition snapshot of the last frame.
func (s *Service) Snapshot() cognition.Snapshot {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.view.snapshot
}

// Report returns the research report of the last frame.
func (s *Service) Report() cognition.Report {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.view.report
}

// Adversaries returns the adversaries alive after the last frame.
func (s *Service) Adversaries() []adversary.Adversary {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return append([]adversary.Adversary(nil), s.view.adversaries...)
}

// Abilities returns the ability statuses after the last frame.
func (s *Service) Abilities() []ability.Status {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return append([]ability.Status(nil), s.view.abilities...)
}

// FeedStatus returns the feed state after the last frame.
func (s *Service) FeedStatus() string {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	if s.view.feedState == "" {
		return biosignal.Disconnected.String()
	}
	return s.view.feedState
}

// Player returns the player after the last frame.
func (s *Service) Player() engine.Player {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.view.player
}

// SessionID returns the id of the running session, or "" before Start.
func (s *Service) SessionID() string {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.view.snapshot.SessionID
}

// Summary closes out the session as of the last frame.
func (s *Service) Summary() cognition.Summary {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	sum := s.view.summary
	sum.AbilityUses = maps.Clone(sum.AbilityUses)
	return sum
}

// Reports returns the report store, or nil before Start.
func (s *Service) Reports() repository.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// SeenAndRecord implements dedupe.Deduper.
func (s *Service) SeenAndRecord(ctx context.Context, key string) bool {
	return s.deduper.SeenAndRecord(ctx, key)
}

// Complete implements dedupe.Deduper.
func (s *Service) Complete(ctx context.Context, key string, result model.CommandResult) {
	s.deduper.Complete(ctx, key, result)
}

// Lookup implements dedupe.Deduper.
func (s *Service) Lookup(ctx context.Context, key string) (model.CommandResult, bool) {
	return s.deduper.Lookup(ctx, key)
}

// Unrecord implements dedupe.Deduper.
func (s *Service) Unrecord(ctx context.Context, key string) {
	s.deduper.Unrecord(ctx, key)
}

// Size implements dedupe.Deduper.
func (s *Service) Size() int64 {
	return s.deduper.Size()
}

// GetStats returns service statistics.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	started := s.started
	stats := map[string]interface{}{
		"started":       started,
		"tick_interval": s.tickInterval.String(),
		"manual_clock":  s.manual,
	}
	if started {
		stats["command_queue_size"] = s.commands.Len()
		stats["command_queue_capacity"] = s.commands.Cap()
		stats["record_queue_size"] = s.records.Len()
		stats["record_queue_capacity"] = s.records.Cap()
		stats["recorders"] = s.recorderWorkers
		stats["dedupe_entries"] = s.deduper.Size()
	}
	s.mu.RUnlock()

	s.viewMu.RLock()
	stats["session_id"] = s.view.snapshot.SessionID
	stats["ticks"] = s.view.tick
	stats["feed_state"] = s.view.feedState
	stats["adversaries"] = len(s.view.adversaries)
	stats["score"] = s.view.snapshot.Score
	stats["reports_recorded"] = s.view.recorded
	stats["reports_dropped"] = s.view.dropped
	stats["achievements"] = append([]string(nil), s.achievements...)
	s.viewMu.RUnlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	metrics.UpdateSystemMemoryUsage(mem.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	stats["goroutines"] = runtime.NumGoroutine()
	stats["memory_alloc_bytes"] = mem.Alloc

	return stats
}
