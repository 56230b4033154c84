package service

import (
	"sync"

	"github.com/okian/rks/internal/domain/model"
)

// ratingCache memoizes chart bests per owner. Each owner carries a version
// bumped on every write; a computation started before a write is discarded.
type ratingCache struct {
	enabled bool

	mu       sync.RWMutex
	versions map[string]uint64
	entries  map[string]cacheEntry
}

type cacheEntry struct {
	version uint64
	bests   []model.ChartBest
}

func newRatingCache(enabled bool) *ratingCache {
	return &ratingCache{
		enabled:  enabled,
		versions: make(map[string]uint64),
		entries:  make(map[string]cacheEntry),
	}
}

func (c *ratingCache) get(owner string) ([]model.ChartBest, bool) {
	if !c.enabled {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[owner]
	if !ok || e.version != c.versions[owner] {
		return nil, false
	}
	return e.bests, true
}

func (c *ratingCache) version(owner string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.versions[owner]
}

// put stores bests computed from data read at version. Stale results are dropped.
func (c *ratingCache) put(owner string, version uint64, bests []model.ChartBest) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[owner] != version {
		return
	}
	c.entries[owner] = cacheEntry{version: version, bests: bests}
}

func (c *ratingCache) invalidate(owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[owner]++
	delete(c.entries, owner)
}

func (c *ratingCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
