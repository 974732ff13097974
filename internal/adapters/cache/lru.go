package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/okian/premium/internal/domain/model"
	"github.com/okian/premium/pkg/metrics"
)

// LRU is a bounded in-process cache. It is safe for concurrent use.
type LRU struct {
	entries *lru.Cache[string, model.Estimate]
}

// NewLRU creates an in-process cache holding up to size estimates.
// A non-positive size returns a Nop cache.
func NewLRU(size int) Cache {
	if size <= 0 {
		return Nop{}
	}
	entries, err := lru.New[string, model.Estimate](size)
	if err != nil {
		// only returned for non-positive sizes
		return Nop{}
	}
	return &LRU{entries: entries}
}

// Get returns the cached estimate for key.
func (c *LRU) Get(_ context.Context, key string) (model.Estimate, bool) {
	e, ok := c.entries.Get(key)
	metrics.RecordCacheLookup(TierLRU, ok)
	return e, ok
}

// Set stores e under key, evicting the least recently used entry when full.
func (c *LRU) Set(_ context.Context, key string, e model.Estimate) {
	c.entries.Add(key, e)
	metrics.UpdateCacheEntries(TierLRU, c.entries.Len())
}

// Len returns the number of cached entries.
func (c *LRU) Len(context.Context) int { return c.entries.Len() }
