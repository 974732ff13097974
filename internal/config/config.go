// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and PREMIUM_* environment variables.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Bounds enforced by Validate.
const (
	maxPremiumPrecision = 6
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ArtifactPath points at a model artifact YAML. Empty uses the embedded default.
	ArtifactPath string `koanf:"artifact_path"`

	// PremiumFloor is the minimum premium returned.
	PremiumFloor float64 `koanf:"premium_floor"`

	// PremiumPrecision is the number of decimals premiums are rounded to.
	PremiumPrecision int `koanf:"premium_precision"`

	// CacheSize bounds the in-process quote cache. Zero disables it.
	CacheSize int `koanf:"cache_size"`

	// RedisAddr enables the shared Redis quote cache when set.
	RedisAddr string `koanf:"redis_addr"`

	// RedisPrefix namespaces quote keys in Redis.
	RedisPrefix string `koanf:"redis_prefix"`

	// RedisTTLSeconds is the lifetime of Redis quote entries.
	RedisTTLSeconds int `koanf:"redis_ttl_seconds"`

	// WorkerCount sets the number of batch workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory batch job queue.
	QueueSize int `koanf:"queue_size"`

	// MaxBatchSize caps POST /predict/batch.
	MaxBatchSize int `koanf:"max_batch_size"`

	// RateLimitRPS and RateLimitBurst configure the request token bucket.
	// A non-positive rate disables limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		PremiumFloor:     0,
		PremiumPrecision: 0,
		CacheSize:        50_000,
		RedisPrefix:      "premium:quote:",
		RedisTTLSeconds:  86_400,
		WorkerCount:      runtime.NumCPU() * 2,
		QueueSize:        10_000,
		MaxBatchSize:     1_000,
	}
}

// RedisTTL returns RedisTTLSeconds as a duration.
func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.RedisTTLSeconds) * time.Second
}

// Validate checks the values the service cannot start with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.PremiumPrecision < 0 || c.PremiumPrecision > maxPremiumPrecision {
		return fmt.Errorf("%w: premium_precision must be within 0..%d, got %d", ErrInvalidConfig, maxPremiumPrecision, c.PremiumPrecision)
	}
	if c.PremiumFloor < 0 {
		return fmt.Errorf("%w: premium_floor must not be negative, got %v", ErrInvalidConfig, c.PremiumFloor)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("%w: rate_limit_burst must be positive when rate limiting is on", ErrInvalidConfig)
	}
	return nil
}
