package service

import (
	"time"

	"github.com/okian/premium/internal/adapters/cache"
	"github.com/okian/premium/internal/domain/artifact"
	"github.com/okian/premium/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithArtifact uses an already loaded artifact. It takes precedence over WithArtifactPath.
func WithArtifact(art *artifact.ModelArtifact) Option {
	return func(s *Service) {
		if art != nil {
			s.art = art
		}
	}
}

// WithArtifactPath loads the artifact from a YAML file at Start.
// An empty path selects the embedded default artifact.
func WithArtifactPath(path string) Option {
	return func(s *Service) {
		s.artifactPath = path
	}
}

// WithFloor sets the minimum premium returned.
func WithFloor(floor float64) Option {
	return func(s *Service) {
		if floor >= 0 {
			s.floor = floor
		}
	}
}

// WithPrecision sets the number of decimals premiums are rounded to.
func WithPrecision(digits int) Option {
	return func(s *Service) {
		if digits >= 0 {
			s.precision = digits
		}
	}
}

// WithCache replaces the quote cache built at Start.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithCacheSize sets the capacity of the in-process quote cache. Zero disables it.
func WithCacheSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.cacheSize = size
		}
	}
}

// WithRedis adds a shared Redis tier behind the in-process cache.
func WithRedis(addr, prefix string, ttl time.Duration) Option {
	return func(s *Service) {
		s.redisAddr = addr
		s.redisPrefix = prefix
		s.redisTTL = ttl
	}
}

// WithWorkerCount sets the number of batch worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued batch jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxBatchSize sets the maximum number of profiles per batch.
func WithMaxBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.maxBatchSize = size
		}
	}
}
