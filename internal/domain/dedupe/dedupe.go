// Package dedupe defines the interface for idempotency tracking.
package dedupe

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Deduper records seen submission IDs to short-circuit reprocessing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen set, allowing it to be retried.
	// Used when a submission was marked as seen but failed to be processed.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// lruDeduper implements Deduper on a bounded LRU cache. The cache is a
// fast path only; the decision store stays the source of truth, so an
// evicted id merely costs a store lookup.
type lruDeduper struct {
	mu    sync.Mutex
	cache *lru.Cache[string, struct{}]
}

// NewLRUDeduper creates a deduper holding at most maxSize IDs.
func NewLRUDeduper(opts ...Option) (Deduper, error) {
	cfg := &config{maxSize: 50000}
	for _, opt := range opts {
		opt(cfg)
	}
	cache, err := lru.New[string, struct{}](cfg.maxSize)
	if err != nil {
		return nil, err
	}
	return &lruDeduper{cache: cache}, nil
}

// SeenAndRecord atomically checks if id was seen and records it if not.
func (d *lruDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.cache.Get(id); ok {
		return true
	}
	d.cache.Add(id, struct{}{})
	return false
}

// Unrecord removes an ID from the seen set.
func (d *lruDeduper) Unrecord(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache.Remove(id)
}

// Size returns the current number of tracked IDs.
func (d *lruDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.cache.Len())
}
