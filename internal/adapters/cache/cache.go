// Package cache stores premium estimates keyed by artifact version and profile.
//
// The raw model output is a pure function of the profile and the artifact, so
// a cached raw value is always identical to a recomputed one. The formatted
// premium depends on the reader's floor and precision and is recomputed on
// every hit. Tiers degrade to misses on failure and never fail a prediction.
package cache

import (
	"context"
	"strings"

	"github.com/okian/premium/internal/domain/model"
	"github.com/okian/premium/internal/domain/profile"
)

// Tier names used in metrics and logs.
const (
	TierLRU   = "lru"
	TierRedis = "redis"
)

// Cache holds estimates by key.
type Cache interface {
	// Get returns the estimate stored under key, if any.
	Get(ctx context.Context, key string) (model.Estimate, bool)
	// Set stores an estimate. Failures are swallowed and counted.
	Set(ctx context.Context, key string, e model.Estimate)
	// Len returns the number of entries, or -1 when the backend cannot tell.
	Len(ctx context.Context) int
}

// Key builds the cache key of p under an artifact version.
func Key(version string, p profile.Profile) string {
	var b strings.Builder
	b.WriteString(version)
	b.WriteByte('#')
	b.WriteString(p.Key())
	return b.String()
}

// Nop is a cache that stores nothing.
type Nop struct{}

// Get always misses.
func (Nop) Get(context.Context, string) (model.Estimate, bool) { return model.Estimate{}, false }

// Set discards the estimate.
func (Nop) Set(context.Context, string, model.Estimate) {}

// Len is always zero.
func (Nop) Len(context.Context) int { return 0 }
