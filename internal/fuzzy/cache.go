package fuzzy

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize bounds the fuzzy-match cache when no capacity is
// configured.
const DefaultCacheSize = 100

// Cache is a bounded LRU over fuzzy-match result sets, keyed by
// "term::maxEdits". It is shared across concurrent queries; the LRU's own
// lock guards both read-and-promote and insert. A miss always falls back to
// the dictionary's exact computation, so the cache has no correctness
// impact.
type Cache struct {
	entries *lru.Cache[string, []Match]
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
	onHit   func()
	onMiss  func()
}

// NewCache creates a cache bounded at capacity entries.
func NewCache(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	entries, err := lru.New[string, []Match](capacity)
	if err != nil {
		return nil, fmt.Errorf("creating fuzzy cache: %w", err)
	}
	return &Cache{
		entries: entries,
		logger:  slog.Default().With("component", "fuzzy-cache"),
	}, nil
}

// SetObserver registers callbacks invoked on every cache hit and miss,
// typically bound to metric counters. Either may be nil.
func (c *Cache) SetObserver(onHit, onMiss func()) {
	c.onHit = onHit
	c.onMiss = onMiss
}

// Key builds the composite cache key for a term and its edit budget.
func Key(term string, maxEdits int) string {
	return fmt.Sprintf("%s::%d", term, maxEdits)
}

// Get returns the cached match set for the key, promoting its recency.
func (c *Cache) Get(term string, maxEdits int) ([]Match, bool) {
	matches, ok := c.entries.Get(Key(term, maxEdits))
	if ok {
		c.hits.Add(1)
		if c.onHit != nil {
			c.onHit()
		}
		return matches, true
	}
	c.misses.Add(1)
	if c.onMiss != nil {
		c.onMiss()
	}
	return nil, false
}

// Put stores a match set, evicting the least-recently-used entry when the
// cache is over capacity.
func (c *Cache) Put(term string, maxEdits int, matches []Match) {
	c.entries.Add(Key(term, maxEdits), matches)
}

// GetOrCompute returns the cached match set or computes and caches it.
// Concurrent queries racing on the same cold key share one computation.
func (c *Cache) GetOrCompute(term string, maxEdits int, compute func() []Match) []Match {
	if matches, ok := c.Get(term, maxEdits); ok {
		return matches
	}
	key := Key(term, maxEdits)
	c.logger.Debug("cache miss", "key", key)
	v, _, _ := c.group.Do(key, func() (any, error) {
		if matches, ok := c.entries.Get(key); ok {
			return matches, nil
		}
		matches := compute()
		c.entries.Add(key, matches)
		return matches, nil
	})
	return v.([]Match)
}

// Stats returns the hit and miss counts since startup.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return c.entries.Len()
}
