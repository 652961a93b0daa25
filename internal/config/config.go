// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and SYNAPTIC_ environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// TickHz is the simulation frame rate.
	TickHz int `koanf:"tick_hz"`

	// CommandQueueSize bounds the queue of pending frame loop commands.
	CommandQueueSize int `koanf:"command_queue_size"`

	// CommandTimeoutMS bounds how long an API call waits for its command reply.
	CommandTimeoutMS int `koanf:"command_timeout_ms"`

	// RecordQueueSize bounds the queue of reports waiting to be persisted.
	RecordQueueSize int `koanf:"record_queue_size"`

	// RecordIntervalMS sets how often a session report is queued for
	// persistence. Zero disables recording.
	RecordIntervalMS int `koanf:"record_interval_ms"`

	// RecorderWorkers sets the number of report writers.
	RecorderWorkers int `koanf:"recorder_workers"`

	// DBPath is the sqlite database file for session reports.
	DBPath string `koanf:"db_path"`

	// Seed seeds the simulation random sources. Zero picks a time based seed.
	Seed int64 `koanf:"seed"`

	// ConnectLatencyMS is the simulated device handshake latency.
	ConnectLatencyMS int `koanf:"connect_latency_ms"`

	// SamplePeriodMS is the interval between simulated biosignal samples.
	SamplePeriodMS int `koanf:"sample_period_ms"`

	// NeurogenesisRate and MyelinRate are the plasticity base rates.
	NeurogenesisRate float64 `koanf:"neurogenesis_rate"`
	MyelinRate       float64 `koanf:"myelin_rate"`

	// MaxPopulation caps live adversaries.
	MaxPopulation int `koanf:"max_population"`

	// SpawnIntervalMS is the time between adversary spawns.
	SpawnIntervalMS int `koanf:"spawn_interval_ms"`

	// StressEnabled turns adversary contact stress on or off.
	StressEnabled bool `koanf:"stress_enabled"`

	// DedupeSize bounds the activation Idempotency-Key cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ExportFormat is the default GET /export encoding: json, yaml or csv.
	ExportFormat string `koanf:"export_format"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		TickHz:           60,
		CommandQueueSize: 1024,
		CommandTimeoutMS: 2000,
		RecordQueueSize:  256,
		RecordIntervalMS: 5000,
		RecorderWorkers:  1,
		DBPath:           "synaptic.db",
		ConnectLatencyMS: 2000,
		SamplePeriodMS:   1000,
		NeurogenesisRate: 0.01,
		MyelinRate:       0.005,
		MaxPopulation:    8,
		SpawnIntervalMS:  2000,
		StressEnabled:    true,
		DedupeSize:       4096,
		ExportFormat:     "json",
	}
}

// TickInterval returns the wall time between frames.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickHz)
}

// CommandTimeout returns the command reply timeout.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutMS) * time.Millisecond
}

// RecordInterval returns the report persistence interval.
func (c *Config) RecordInterval() time.Duration {
	return time.Duration(c.RecordIntervalMS) * time.Millisecond
}

// ConnectLatency returns the simulated handshake latency.
func (c *Config) ConnectLatency() time.Duration {
	return time.Duration(c.ConnectLatencyMS) * time.Millisecond
}

// SamplePeriod returns the simulated sample interval.
func (c *Config) SamplePeriod() time.Duration {
	return time.Duration(c.SamplePeriodMS) * time.Millisecond
}

// SpawnInterval returns the adversary spawn interval.
func (c *Config) SpawnInterval() time.Duration {
	return time.Duration(c.SpawnIntervalMS) * time.Millisecond
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case c.TickHz <= 0 || c.TickHz > 1000:
		return invalid("tick_hz must be in (0, 1000], got %d", c.TickHz)
	case c.CommandQueueSize <= 0:
		return invalid("command_queue_size must be positive, got %d", c.CommandQueueSize)
	case c.CommandTimeoutMS <= 0:
		return invalid("command_timeout_ms must be positive, got %d", c.CommandTimeoutMS)
	case c.RecordQueueSize <= 0:
		return invalid("record_queue_size must be positive, got %d", c.RecordQueueSize)
	case c.RecordIntervalMS < 0:
		return invalid("record_interval_ms must not be negative, got %d", c.RecordIntervalMS)
	case c.RecorderWorkers <= 0:
		return invalid("recorder_workers must be positive, got %d", c.RecorderWorkers)
	case strings.TrimSpace(c.DBPath) == "":
		return invalid("db_path must not be empty")
	case c.ConnectLatencyMS < 0:
		return invalid("connect_latency_ms must not be negative, got %d", c.ConnectLatencyMS)
	case c.SamplePeriodMS <= 0:
		return invalid("sample_period_ms must be positive, got %d", c.SamplePeriodMS)
	case c.NeurogenesisRate < 0:
		return invalid("neurogenesis_rate must not be negative, got %g", c.NeurogenesisRate)
	case c.MyelinRate < 0:
		return invalid("myelin_rate must not be negative, got %g", c.MyelinRate)
	case c.MaxPopulation < 0:
		return invalid("max_population must not be negative, got %d", c.MaxPopulation)
	case c.SpawnIntervalMS <= 0:
		return invalid("spawn_interval_ms must be positive, got %d", c.SpawnIntervalMS)
	case c.DedupeSize < 0:
		return invalid("dedupe_size must not be negative, got %d", c.DedupeSize)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return invalid("log_format must be text or json, got %q", c.LogFormat)
	}
	switch strings.ToLower(c.ExportFormat) {
	case "json", "yaml", "yml", "csv":
	default:
		return invalid("export_format must be json, yaml or csv, got %q", c.ExportFormat)
	}
	return nil
}
