package dedupe

// DefaultMaxSize bounds the number of remembered keys.
const DefaultMaxSize = 4096

type config struct {
	maxSize int
}

// Option applies a configuration option to the deduper.
type Option func(*config)

// WithMaxSize sets the maximum number of keys to keep in memory.
// If maxSize > 0 the oldest key is evicted when the deduper is full.
// If maxSize <= 0 the deduper is unbounded.
func WithMaxSize(maxSize int) Option {
	return func(c *config) {
		c.maxSize = maxSize
	}
}
