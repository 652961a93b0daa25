// Package worker runs the background consumers that persist session
// reports off the simulation frame loop.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/synaptic/internal/domain/model"
	"github.com/okian/synaptic/pkg/logger"
	"github.com/okian/synaptic/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultName            = "recorder"
	defaultShutdownTimeout = 5 * time.Second
)

// Store persists session reports.
type Store interface {
	SaveReport(ctx context.Context, rec model.Record) error
}

// Queue defines how workers receive records.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Record
}

// Worker consumes records until its queue closes.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker. Records already handed to the worker are
	// written before it returns.
	Shutdown(ctx context.Context) error
}

// Recorder implements Worker by writing every record to a Store.
type Recorder struct {
	queue Queue
	store Store
	name  string

	writeTimeout time.Duration

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewRecorder creates a recorder with configuration options.
func NewRecorder(queue Queue, store Store, opts ...Option) *Recorder {
	w := &Recorder{
		queue:        queue,
		store:        store,
		name:         defaultName,
		writeTimeout: defaultShutdownTimeout,
		shutdown:     make(chan struct{}),
		done:         make(chan struct{}),
		logger:       logger.NamedOrNop("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *Recorder) Run(ctx context.Context) {
	defer close(w.done)

	records := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case rec, ok := <-records:
			if !ok {
				return
			}
			if err := w.process(ctx, rec); err != nil {
				w.logger.Error(ctx, "error persisting record", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *Recorder) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *Recorder) Done() <-chan struct{} {
	return w.done
}

// process writes a single record.
func (w *Recorder) process(ctx context.Context, rec model.Record) error {
	start := time.Now()

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.writeTimeout)
	defer cancel()

	if err := w.store.SaveReport(writeCtx, rec); err != nil {
		metrics.RecordRecorderError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("save report for session %s: %w", rec.SessionID, err)
	}

	metrics.RecordRecorderWrite(float64(time.Since(start).Microseconds()) / 1000)
	w.logger.Debug(ctx, "record persisted",
		logger.String("session", rec.SessionID),
		logger.String("ts", rec.TS.Format(time.RFC3339Nano)),
	)
	return nil
}

// Pool runs several recorders over the same queue.
type Pool struct {
	workers []*Recorder
	logger  logger.Logger
}

// NewPool creates workerCount recorders. Values below 1 create one.
func NewPool(workerCount int, queue Queue, store Store, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{
		workers: make([]*Recorder, workerCount),
		logger:  logger.NamedOrNop("worker-pool"),
	}
	for i := range p.workers {
		named := append(append([]Option{}, opts...), WithName(defaultName+"-"+strconv.Itoa(i)))
		p.workers[i] = NewRecorder(queue, store, named...)
	}
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Wait blocks until every worker has returned or ctx is done.
func (p *Pool) Wait(ctx context.Context) error {
	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("wait for workers: %w", ctx.Err())
		}
	}
	return nil
}

// Shutdown stops every worker without waiting for the queue to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	for _, w := range p.workers {
		w.shutdownOnce.Do(func() { close(w.shutdown) })
	}
	return p.Wait(ctx)
}
