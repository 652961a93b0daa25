// Package dedupe tracks idempotency keys and the results recorded for them.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records idempotency keys so a retried request is answered from the
// first attempt instead of being applied twice.
type Deduper[V any] interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Complete attaches the result of the request recorded under key.
	// Unknown keys are ignored.
	Complete(ctx context.Context, key string, result V)

	// Lookup returns the result recorded under key. ok is false while the
	// key is unknown or its request is still pending.
	Lookup(ctx context.Context, key string) (result V, ok bool)

	// Unrecord removes key, allowing the request to be retried. Use it when
	// a request was recorded but could not be submitted.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// node is one entry of the recency list.
type node[V any] struct {
	key    string
	result V
	done   bool
	prev   *node[V]
	next   *node[V]
}

func (n *node[V]) reset() {
	var zero V
	n.key = ""
	n.result = zero
	n.done = false
	n.prev = nil
	n.next = nil
}

// inMemoryDeduper keeps keys in a doubly linked list ordered by insertion.
// In bounded mode (maxSize > 0) the oldest key is evicted when full.
type inMemoryDeduper[V any] struct {
	mu       sync.Mutex
	seen     map[string]*node[V]
	head     *node[V] // newest
	tail     *node[V] // oldest
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper[V any](opts ...Option) Deduper[V] {
	cfg := config{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	d := &inMemoryDeduper[V]{
		seen:    make(map[string]*node[V]),
		maxSize: cfg.maxSize,
	}
	d.nodePool = sync.Pool{
		New: func() interface{} {
			return &node[V]{}
		},
	}
	return d
}

func (d *inMemoryDeduper[V]) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	n := d.nodePool.Get().(*node[V])
	n.key = key
	n.next = d.head
	if d.head != nil {
		d.head.prev = n
	}
	d.head = n
	if d.tail == nil {
		d.tail = n
	}
	d.seen[key] = n
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper[V]) Complete(_ context.Context, key string, result V) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, ok := d.seen[key]; ok {
		n.result = result
		n.done = true
	}
}

func (d *inMemoryDeduper[V]) Lookup(_ context.Context, key string) (V, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var zero V
	n, ok := d.seen[key]
	if !ok || !n.done {
		return zero, false
	}
	return n.result, true
}

func (d *inMemoryDeduper[V]) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, ok := d.seen[key]; ok {
		d.remove(n)
	}
}

// evictOldest drops the tail. Must be called with d.mu held.
func (d *inMemoryDeduper[V]) evictOldest() {
	if d.tail != nil {
		d.remove(d.tail)
	}
}

// remove unlinks n and returns it to the pool. Must be called with d.mu held.
func (d *inMemoryDeduper[V]) remove(n *node[V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}
	delete(d.seen, n.key)
	n.reset()
	d.nodePool.Put(n)
	d.size.Add(-1)
}

// Size returns the current number of keys.
func (d *inMemoryDeduper[V]) Size() int64 {
	return d.size.Load()
}
