// Package queue provides the bounded in-memory queues that decouple the
// HTTP handlers and the recorder from the simulation frame loop.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/synaptic/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1024
	defaultName          = "queue"
)

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue[T any] interface {
	// Enqueue adds an item to the queue.
	// Returns false if the queue is full or closed and the item was not enqueued.
	Enqueue(ctx context.Context, item T) bool

	// Dequeue returns a channel that will receive items as they become available.
	// The channel will be closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan T

	// Drain removes up to max queued items without blocking.
	Drain(max int) []T

	// Len returns the current number of queued items.
	Len() int

	// Close gracefully shuts down the queue.
	// After closing, no new items can be enqueued and the dequeue channel will be closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue[T any] struct {
	items    chan T
	capacity int
	name     string

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue[T any](opts ...Option) *InMemoryQueue[T] {
	cfg := config{capacity: defaultQueueCapacity, name: defaultName}
	for _, opt := range opts {
		opt(&cfg)
	}

	q := &InMemoryQueue[T]{
		items:    make(chan T, cfg.capacity),
		capacity: cfg.capacity,
		name:     cfg.name,
	}

	metrics.UpdateQueueCapacity(q.name, q.capacity)
	metrics.UpdateQueueSize(q.name, 0)

	return q
}

// Enqueue adds an item to the queue.
func (q *InMemoryQueue[T]) Enqueue(ctx context.Context, item T) bool {
	return q.Push(ctx, item) == nil
}

// Push is Enqueue with the rejection reason: closed, context_cancelled or
// queue_full, wrapped in ErrRejected.
func (q *InMemoryQueue[T]) Push(ctx context.Context, item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return q.reject("closed")
	}
	if ctx.Err() != nil {
		return q.reject("context_cancelled")
	}

	select {
	case q.items <- item:
		metrics.RecordQueueEnqueue(q.name)
		metrics.UpdateQueueSize(q.name, len(q.items))
		return nil
	default:
		return q.reject("queue_full")
	}
}

func (q *InMemoryQueue[T]) reject(reason string) error {
	metrics.RecordQueueEnqueueError(q.name, reason)
	metrics.RecordErrorByComponent("queue", reason)
	return fmt.Errorf("%w: %s: %s", ErrRejected, q.name, reason)
}

// Dequeue returns a channel that will receive items as they become available.
func (q *InMemoryQueue[T]) Dequeue(ctx context.Context) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case item, ok := <-q.items:
				if !ok {
					return
				}
				select {
				case out <- item:
					metrics.RecordQueueDequeue(q.name)
					metrics.UpdateQueueSize(q.name, len(q.items))
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Drain removes up to max queued items without blocking. max <= 0 drains
// whatever is queued right now.
func (q *InMemoryQueue[T]) Drain(max int) []T {
	n := len(q.items)
	if max > 0 && max < n {
		n = max
	}
	if n == 0 {
		return nil
	}

	out := make([]T, 0, n)
	for len(out) < n {
		select {
		case item, ok := <-q.items:
			if !ok {
				return out
			}
			out = append(out, item)
			metrics.RecordQueueDequeue(q.name)
		default:
			n = len(out)
		}
	}
	metrics.UpdateQueueSize(q.name, len(q.items))
	return out
}

// Len returns the current number of queued items.
func (q *InMemoryQueue[T]) Len() int {
	size := len(q.items)
	metrics.UpdateQueueSize(q.name, size)
	return size
}

// Cap returns the configured capacity.
func (q *InMemoryQueue[T]) Cap() int {
	return q.capacity
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue[T]) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
