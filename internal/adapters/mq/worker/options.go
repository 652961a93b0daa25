package worker

import (
	"time"

	"github.com/okian/synaptic/pkg/logger"
)

// Option applies a configuration option to the Recorder.
type Option func(*Recorder)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *Recorder) {
		if name != "" {
			w.name = name
		}
	}
}

// WithWriteTimeout bounds a single store write.
func WithWriteTimeout(d time.Duration) Option {
	return func(w *Recorder) {
		if d > 0 {
			w.writeTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *Recorder) {
		if logger != nil {
			w.logger = logger
		}
	}
}
