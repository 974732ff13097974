package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/premium/internal/domain/model"
	"github.com/okian/premium/pkg/logger"
	"github.com/okian/premium/pkg/metrics"
)

const (
	defaultRedisPrefix  = "premium:quote:"
	defaultRedisTTL     = 24 * time.Hour
	defaultRedisTimeout = 100 * time.Millisecond
)

// RedisOption applies a configuration option to the Redis cache.
type RedisOption func(*Redis)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// WithTTL sets the expiry of stored estimates. Zero keeps entries forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		if ttl >= 0 {
			r.ttl = ttl
		}
	}
}

// WithTimeout bounds every Redis round trip.
func WithTimeout(d time.Duration) RedisOption {
	return func(r *Redis) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger used for backend failures.
func WithLogger(l logger.Logger) RedisOption {
	return func(r *Redis) {
		if l != nil {
			r.log = l
		}
	}
}

// Redis is a shared cache tier backed by go-redis. Values are JSON documents.
type Redis struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	log     logger.Logger
}

// NewRedis wraps an existing client.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client:  client,
		prefix:  defaultRedisPrefix,
		ttl:     defaultRedisTTL,
		timeout: defaultRedisTimeout,
		log:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dial connects to addr and verifies the connection with PING.
func Dial(ctx context.Context, addr string, opts ...RedisOption) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrRedisUnavailable, err)
	}
	return NewRedis(client, opts...), nil
}

// Get returns the estimate stored under key. Any failure is a miss.
func (r *Redis) Get(ctx context.Context, key string) (model.Estimate, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheLookup(TierRedis, false)
		return model.Estimate{}, false
	}
	if err != nil {
		r.fail(ctx, "get", err)
		return model.Estimate{}, false
	}

	var e model.Estimate
	if err := json.Unmarshal(data, &e); err != nil {
		// Remove corrupted cache entry
		r.client.Del(ctx, r.prefix+key)
		r.fail(ctx, "decode", err)
		return model.Estimate{}, false
	}
	metrics.RecordCacheLookup(TierRedis, true)
	return e, true
}

// Set stores e under key with the configured TTL.
func (r *Redis) Set(ctx context.Context, key string, e model.Estimate) {
	data, err := json.Marshal(e)
	if err != nil {
		r.fail(ctx, "encode", err)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		r.fail(ctx, "set", err)
	}
}

// Len is not tracked for the shared tier.
func (r *Redis) Len(context.Context) int { return -1 }

// Close releases the underlying client.
func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) fail(ctx context.Context, op string, err error) {
	metrics.RecordCacheError(TierRedis)
	metrics.RecordErrorByComponent("cache", op)
	r.log.Warn(ctx, "redis cache degraded to miss", logger.String("op", op), logger.Error(err))
}
