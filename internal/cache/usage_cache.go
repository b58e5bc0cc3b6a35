package cache

import (
	"context"
	"sync"
	"time"

	"github.com/invomate/backend-go/internal/database/models"
)

// UsageCache stores short-lived per-user usage snapshots so repeated permission
// checks don't hit the database on every call. Entries are invalidated after
// every tracked action so the next read is fresh.
type UsageCache interface {
	Get(ctx context.Context, userID uint) (*models.UsageCounts, bool)
	Set(ctx context.Context, userID uint, counts models.UsageCounts) error
	Invalidate(ctx context.Context, userID uint) error
	Close() error
}

type memoryEntry struct {
	counts    models.UsageCounts
	fetchedAt time.Time
}

// MemoryUsageCache is the default process-local cache. The clock is injectable
// so tests can control expiry.
type MemoryUsageCache struct {
	mu      sync.RWMutex
	entries map[uint]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryUsageCache creates an in-memory usage cache with the given TTL
func NewMemoryUsageCache(ttl time.Duration) *MemoryUsageCache {
	return &MemoryUsageCache{
		entries: make(map[uint]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// NewMemoryUsageCacheWithClock creates an in-memory usage cache with a custom clock (for testing)
func NewMemoryUsageCacheWithClock(ttl time.Duration, now func() time.Time) *MemoryUsageCache {
	return &MemoryUsageCache{
		entries: make(map[uint]memoryEntry),
		ttl:     ttl,
		now:     now,
	}
}

func (c *MemoryUsageCache) Get(ctx context.Context, userID uint) (*models.UsageCounts, bool) {
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.fetchedAt) > c.ttl {
		return nil, false
	}

	counts := entry.counts
	return &counts, true
}

func (c *MemoryUsageCache) Set(ctx context.Context, userID uint, counts models.UsageCounts) error {
	c.mu.Lock()
	c.entries[userID] = memoryEntry{counts: counts, fetchedAt: c.now()}
	c.mu.Unlock()
	return nil
}

func (c *MemoryUsageCache) Invalidate(ctx context.Context, userID uint) error {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
	return nil
}

func (c *MemoryUsageCache) Close() error {
	return nil
}
