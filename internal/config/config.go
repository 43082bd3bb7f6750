// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Keys are flat and snake_case; env vars use the CANON_ prefix (CANON_REDIS_ADDR -> redis_addr).
//   - New returns defaults; Load layers a YAML file and the environment on top.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Cache backends.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// WorkerCount bounds how many batch categories run against the store at once.
	WorkerCount int `koanf:"worker_count"`
	// QueueSize bounds the pending batch task queue.
	QueueSize int `koanf:"queue_size"`
	// ChunkSize caps the number of names per bulk IN (...) statement.
	ChunkSize int `koanf:"chunk_size"`
	// CacheProbeConcurrency bounds parallel cache probes inside one batch category.
	CacheProbeConcurrency int `koanf:"cache_probe_concurrency"`
	// TaskTimeoutMS bounds one batch category task on the worker pool; 0 disables it.
	TaskTimeoutMS int `koanf:"task_timeout_ms"`
	// MaxBatchItems caps the total names accepted by one batch request.
	MaxBatchItems int `koanf:"max_batch_items"`

	StoreDriver             string `koanf:"store_driver"`
	StoreDSN                string `koanf:"store_dsn"`
	StoreMaxOpenConns       int    `koanf:"store_max_open_conns"`
	StoreMaxIdleConns       int    `koanf:"store_max_idle_conns"`
	StoreConnMaxLifetimeSec int    `koanf:"store_conn_max_lifetime_sec"`

	CacheEnabled     bool   `koanf:"cache_enabled"`
	CacheBackend     string `koanf:"cache_backend"`
	RedisAddr        string `koanf:"redis_addr"`
	RedisPassword    string `koanf:"redis_password"`
	RedisDB          int    `koanf:"redis_db"`
	CacheTTLSec      int    `koanf:"cache_ttl_sec"`
	CacheOpTimeoutMS int    `koanf:"cache_op_timeout_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":8000",
		WorkerCount:             5,
		QueueSize:               1024,
		ChunkSize:               50,
		CacheProbeConcurrency:   8,
		TaskTimeoutMS:           10000,
		MaxBatchItems:           500,
		StoreDriver:             DriverSQLite,
		StoreDSN:                "sports_data.db",
		StoreMaxOpenConns:       10,
		StoreMaxIdleConns:       5,
		StoreConnMaxLifetimeSec: 300,
		CacheEnabled:            true,
		CacheBackend:            BackendRedis,
		RedisAddr:               "localhost:6379",
		RedisDB:                 0,
		CacheTTLSec:             3600,
		CacheOpTimeoutMS:        500,
	}
}

// CacheTTL returns the default cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

// CacheOpTimeout returns the per-operation cache deadline.
func (c *Config) CacheOpTimeout() time.Duration {
	return time.Duration(c.CacheOpTimeoutMS) * time.Millisecond
}

// TaskTimeout returns the per-task worker deadline.
func (c *Config) TaskTimeout() time.Duration {
	return time.Duration(c.TaskTimeoutMS) * time.Millisecond
}

// StoreConnMaxLifetime returns the pooled connection lifetime.
func (c *Config) StoreConnMaxLifetime() time.Duration {
	return time.Duration(c.StoreConnMaxLifetimeSec) * time.Second
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.ChunkSize < 1:
		return fmt.Errorf("%w: chunk_size must be positive", ErrInvalidConfig)
	case c.CacheProbeConcurrency < 1:
		return fmt.Errorf("%w: cache_probe_concurrency must be positive", ErrInvalidConfig)
	case c.TaskTimeoutMS < 0:
		return fmt.Errorf("%w: task_timeout_ms must not be negative", ErrInvalidConfig)
	case c.MaxBatchItems < 1:
		return fmt.Errorf("%w: max_batch_items must be positive", ErrInvalidConfig)
	case c.StoreDSN == "":
		return fmt.Errorf("%w: store_dsn must not be empty", ErrInvalidConfig)
	case c.CacheTTLSec < 1:
		return fmt.Errorf("%w: cache_ttl_sec must be positive", ErrInvalidConfig)
	}

	switch strings.ToLower(c.StoreDriver) {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}

	switch strings.ToLower(c.CacheBackend) {
	case BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("%w: unknown cache_backend %q", ErrInvalidConfig, c.CacheBackend)
	}
	return nil
}
