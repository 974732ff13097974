package cache

import (
	"context"

	"github.com/okian/premium/internal/domain/model"
)

// Tiered reads through a fast local tier to a shared tier and back-fills the
// local tier on shared hits.
type Tiered struct {
	l1 Cache
	l2 Cache
}

// NewTiered combines two tiers. A nil tier is replaced by Nop.
func NewTiered(l1, l2 Cache) *Tiered {
	if l1 == nil {
		l1 = Nop{}
	}
	if l2 == nil {
		l2 = Nop{}
	}
	return &Tiered{l1: l1, l2: l2}
}

// Get checks l1 then l2.
func (t *Tiered) Get(ctx context.Context, key string) (model.Estimate, bool) {
	if e, ok := t.l1.Get(ctx, key); ok {
		return e, true
	}
	e, ok := t.l2.Get(ctx, key)
	if ok {
		t.l1.Set(ctx, key, e)
	}
	return e, ok
}

// Set writes both tiers.
func (t *Tiered) Set(ctx context.Context, key string, e model.Estimate) {
	t.l1.Set(ctx, key, e)
	t.l2.Set(ctx, key, e)
}

// Len reports the local tier size.
func (t *Tiered) Len(ctx context.Context) int { return t.l1.Len(ctx) }
