package api

import (
	"time"

	"github.com/okian/synaptic/internal/adapters/export"
	"github.com/okian/synaptic/pkg/logger"
)

// Default handler configuration.
const (
	DefaultCommandTimeout = 2 * time.Second
	DefaultMaxReportLimit = 1000
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithCommandTimeout bounds how long a handler waits for the frame loop to
// answer a command.
func WithCommandTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.commandTimeout = d
		}
	}
}

// WithExportFormat sets the format used when a request names none.
func WithExportFormat(f export.Format) Option {
	return func(s *Server) {
		if f != "" {
			s.exportFormat = f
		}
	}
}

// WithMaxReportLimit caps the limit query parameter of report listings.
func WithMaxReportLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxReportLimit = n
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
