package config

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig wraps every Validate failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps failures reading the file or the environment.
	ErrLoadConfig = errors.New("load config failed")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// loadFailed tags err with the layer that produced it.
func loadFailed(layer string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrLoadConfig, layer, err)
}
