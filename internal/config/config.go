// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxSessions caps concurrently held sessions. 0 means unbounded.
	MaxSessions int `koanf:"max_sessions"`

	// SessionIdleTTLSec evicts sessions with no round for this long. 0 disables eviction.
	SessionIdleTTLSec int `koanf:"session_idle_ttl_sec"`

	// JanitorIntervalSec is how often idle sessions are swept.
	JanitorIntervalSec int `koanf:"janitor_interval_sec"`

	// EventQueueSize bounds the in-memory round event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of tally workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the round id cache.
	DedupeSize int `koanf:"dedupe_size"`

	// RNGSeed seeds every session's move source. 0 takes a fresh seed per session.
	RNGSeed int64 `koanf:"rng_seed"`

	// DefaultPlayer is the name shown when a session is created without one.
	DefaultPlayer string `koanf:"default_player"`

	// MetricsEnabled turns the Prometheus export on /healthz on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsRefreshSec is how often sampled gauges (memory, goroutines, queue) are refreshed.
	MetricsRefreshSec int `koanf:"metrics_refresh_sec"`

	// MetricsNamespace and MetricsSubsystem form the metric name prefix, e.g. roshambo_game_.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsPrefix is an optional extra name segment after the subsystem.
	MetricsPrefix string `koanf:"metrics_prefix"`

	// MetricsLatencyBucketsMs overrides the HTTP latency histogram buckets.
	// From env: ROSHAMBO_METRICS_LATENCY_BUCKETS_MS=5,50,500.
	MetricsLatencyBucketsMs []float64 `koanf:"metrics_latency_buckets_ms"`

	// MetricsLabels are constant labels added to every metric (YAML only).
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

// New creates a Config with defaults. Context is accepted first to match
// Load; it is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		MaxSessions:        10_000,
		SessionIdleTTLSec:  1800,
		JanitorIntervalSec: 60,
		EventQueueSize:     10_000,
		WorkerCount:        runtime.NumCPU(),
		DedupeSize:         100_000,
		DefaultPlayer:      "PLAYER",
		MetricsEnabled:     true,
		MetricsRefreshSec:  10,
		MetricsNamespace:   "roshambo",
		MetricsSubsystem:   "game",
	}
}

// SessionIdleTTL returns the idle eviction window as a duration.
func (c *Config) SessionIdleTTL() time.Duration {
	return time.Duration(c.SessionIdleTTLSec) * time.Second
}

// JanitorInterval returns the sweep period as a duration.
func (c *Config) JanitorInterval() time.Duration {
	return time.Duration(c.JanitorIntervalSec) * time.Second
}

// MetricsRefresh returns the gauge refresh period as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshSec) * time.Second
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxSessions < 0:
		return fmt.Errorf("%w: max_sessions must not be negative", ErrInvalidConfig)
	case c.SessionIdleTTLSec < 0:
		return fmt.Errorf("%w: session_idle_ttl_sec must not be negative", ErrInvalidConfig)
	case c.SessionIdleTTLSec > 0 && c.JanitorIntervalSec <= 0:
		return fmt.Errorf("%w: janitor_interval_sec must be positive when sessions expire", ErrInvalidConfig)
	case c.EventQueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative", ErrInvalidConfig)
	case c.MetricsRefreshSec <= 0:
		return fmt.Errorf("%w: metrics_refresh_sec must be positive", ErrInvalidConfig)
	}
	for _, b := range c.MetricsLatencyBucketsMs {
		if b <= 0 {
			return fmt.Errorf("%w: metrics_latency_buckets_ms must be positive", ErrInvalidConfig)
		}
	}
	return nil
}
