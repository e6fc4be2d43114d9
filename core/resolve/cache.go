package resolve

import (
	"context"
	"sync"
	"time"

	"media-sync/core/database"
)

// Method records which resolution path produced a cache entry.
type Method string

const (
	// MethodFast is the lightweight redirect/suggestion probe.
	MethodFast Method = "fast"
	// MethodAuthoritative is the full page fetch.
	MethodAuthoritative Method = "authoritative"
)

// Entry is one resolved mapping held by the cache.
type Entry struct {
	// IMDBID is the canonical identifier the key resolved to.
	IMDBID string
	// Method is the path that produced the resolution.
	Method Method
	// ResolvedAt is when the resolution happened.
	ResolvedAt time.Time
}

// Cache maps disambiguation keys to resolved canonical IDs for the duration
// of one run, optionally writing through to the persisted store. A key
// resolves to at most one ID per run; once cached it is never re-resolved.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	store   *database.CacheStore // nil disables persistence
}

// NewCache creates an in-memory cache. Pass a nil store to disable
// persistence.
func NewCache(store *database.CacheStore) *Cache {
	return &Cache{
		entries: make(map[string]Entry),
		store:   store,
	}
}

// Warm preloads entries persisted within maxAge from the store. Missing
// store is a no-op.
func (c *Cache) Warm(ctx context.Context, maxAge time.Duration) (int, error) {
	if c.store == nil {
		return 0, nil
	}
	persisted, err := c.store.Load(ctx, maxAge)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range persisted {
		c.entries[p.Key] = Entry{
			IMDBID:     p.IMDBID,
			Method:     Method(p.Method),
			ResolvedAt: p.ResolvedAt,
		}
	}
	return len(persisted), nil
}

// Get returns the cached entry for key, if any. O(1), no I/O.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// Put stores the entry for key and writes it through to the persisted store
// when one is attached. Re-putting the same key is a no-op.
func (c *Cache) Put(ctx context.Context, key string, e Entry) error {
	c.mu.Lock()
	if _, exists := c.entries[key]; exists {
		c.mu.Unlock()
		return nil
	}
	c.entries[key] = e
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	return c.store.Put(ctx, database.CacheEntry{
		Key:        key,
		IMDBID:     e.IMDBID,
		Method:     string(e.Method),
		ResolvedAt: e.ResolvedAt,
	})
}

// Len returns the number of in-memory entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
