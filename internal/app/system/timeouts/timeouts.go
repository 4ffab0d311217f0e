// Package timeouts provides centralized timeout values for handler operations.
//
// These timeouts are used with context.WithTimeout for database operations
// and other I/O in HTTP handlers. Using centralized values ensures consistency
// and makes it easy to adjust timeouts across the application.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks and connectivity verification
//   - Short: simple single-document reads or lookups
//   - Medium: list queries, moderate writes, multi-step reads
//   - Long: complex writes, operations touching multiple collections
//   - Batch: bulk status sweeps and queue maintenance
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 60 * time.Second
)

// mu protects all timeout values from concurrent access.
var mu sync.RWMutex

var (
	ping   = DefaultPing
	short  = DefaultShort
	medium = DefaultMedium
	long   = DefaultLong
	batch  = DefaultBatch
)

// Ping returns the timeout for health checks and connectivity verification.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Short returns the timeout for simple operations like single-document reads.
// Examples: get by ID, lookup by email, fetch the settings singleton.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

// Medium returns the timeout for moderate operations like list queries.
// Examples: team listings, vote recording, per-user status updates.
func Medium() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return medium
}

// Long returns the timeout for complex operations touching multiple collections.
// Examples: admission resolution, team deactivation with member cleanup.
func Long() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return long
}

// Batch returns the timeout for bulk operations.
// Examples: release-all sweeps, lagger scans, queue rebuilds.
func Batch() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return batch
}

// Config holds timeout configuration values.
// Zero values are ignored (defaults are kept).
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

// Configure sets custom timeout values. Zero values in the config are
// ignored, keeping the current (or default) values. Call during startup
// before handlers are registered.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Short > 0 {
		short = cfg.Short
	}
	if cfg.Medium > 0 {
		medium = cfg.Medium
	}
	if cfg.Long > 0 {
		long = cfg.Long
	}
	if cfg.Batch > 0 {
		batch = cfg.Batch
	}
}

// Reset restores all timeouts to their default values. Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	short = DefaultShort
	medium = DefaultMedium
	long = DefaultLong
	batch = DefaultBatch
}

// Current returns the current timeout configuration as a Config struct.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{
		Ping:   ping,
		Short:  short,
		Medium: medium,
		Long:   long,
		Batch:  batch,
	}
}

// WithTimeout creates a context with timeout and returns a cancel function
// that logs a warning if the context was canceled due to deadline exceeded.
// Use this for long-running or critical operations where timeout debugging
// matters.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
