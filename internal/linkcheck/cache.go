package linkcheck

import (
	"context"
	"sync"
	"time"
)

// CacheEntry represents a cached link verification result.
type CacheEntry struct {
	URL           string    `json:"url"`
	Status        int       `json:"status"`
	IsValid       bool      `json:"is_valid"`
	Error         string    `json:"error,omitempty"`
	LastChecked   time.Time `json:"last_checked"`
	FailureCount  int       `json:"failure_count"`
	FirstFailedAt time.Time `json:"first_failed_at,omitzero"`
}

// Cache stores external link results between runs. Get returns nil, nil
// for unknown URLs.
type Cache interface {
	Get(ctx context.Context, url string) (*CacheEntry, error)
	Set(ctx context.Context, entry *CacheEntry) error
	Close() error
}

// TTL controls how long cached results are trusted.
type TTL struct {
	Valid   time.Duration
	Failure time.Duration
}

// Fresh reports whether entry may be used instead of a new request.
func (t TTL) Fresh(entry *CacheEntry, now time.Time) bool {
	if entry == nil {
		return false
	}
	ttl := t.Failure
	if entry.IsValid {
		ttl = t.Valid
	}
	return now.Sub(entry.LastChecked) < ttl
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]CacheEntry)}
}

func (c *MemoryCache) Get(_ context.Context, url string) (*CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[url]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (c *MemoryCache) Set(_ context.Context, entry *CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.URL] = *entry
	return nil
}

func (c *MemoryCache) Close() error { return nil }
