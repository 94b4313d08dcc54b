package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phish-guard/internal/core"
)

// DefaultTTL is how long an assessment stays valid
const DefaultTTL = 5 * time.Minute

// Clock returns the current time; tests inject a fake one
type Clock func() time.Time

// MemoryCache is an in-memory implementation of the CacheRepository interface.
// Expired entries are only removed by the lookup that finds them, and the
// map is unbounded for the life of the process.
type MemoryCache struct {
	entries map[string]*core.CacheEntry
	mu      sync.RWMutex
	logger  *zap.Logger
	ttl     time.Duration
	now     Clock
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(logger *zap.Logger, ttl time.Duration, clock Clock) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &MemoryCache{
		entries: make(map[string]*core.CacheEntry),
		logger:  logger,
		ttl:     ttl,
		now:     clock,
	}
}

// Get retrieves a live assessment for key
func (c *MemoryCache) Get(ctx context.Context, key string) (*core.RiskAssessment, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, core.ErrCacheMiss
	}

	now := c.now()
	if now.Before(entry.InsertedAt.Add(c.ttl)) {
		return entry.Assessment, nil
	}

	c.mu.Lock()
	// a concurrent Set may have replaced the entry
	if c.entries[key] == entry {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	c.logger.Debug("Evicted expired cache entry", zap.Duration("age", now.Sub(entry.InsertedAt)))
	return nil, core.ErrCacheMiss
}

// Set stores a cache entry
func (c *MemoryCache) Set(ctx context.Context, key string, assessment *core.RiskAssessment) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &core.CacheEntry{
		Key:        key,
		Assessment: assessment,
		InsertedAt: c.now(),
	}
	return nil
}

// Delete removes a cache entry
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Clear removes every entry
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cleared := len(c.entries)
	c.entries = make(map[string]*core.CacheEntry)
	c.logger.Debug("Cleared cache entries", zap.Int("cleared_count", cleared))
	return nil
}

// Len reports the number of stored entries, live or expired
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
