package ability

import (
	"time"

	"github.com/okian/synaptic/pkg/logger"
)

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithClock sets the time source used to stamp activations.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets a custom logger for the controller.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}
