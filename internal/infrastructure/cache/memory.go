package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/catalogrank/backend/internal/domain"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultMaxEntries bounds the memory cache when no size is configured
	DefaultMaxEntries = 10000

	defaultSweepInterval = 10 * time.Minute
)

// MemoryConfig configures the in-process cache
type MemoryConfig struct {
	MaxEntries    int           // least recently used entries are evicted beyond this
	SweepInterval time.Duration // how often expired entries are dropped
}

// entry is one cached payload with its absolute expiry
type entry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is a size-bounded LRU cache with per-entry TTL.
// Stored and returned payloads are copies, so callers may reuse their slices.
type MemoryCache struct {
	entries  *lru.Cache[string, entry]
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache creates an in-memory cache and starts its sweeper
func NewMemoryCache(cfg MemoryConfig) (*MemoryCache, error) {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}

	entries, err := lru.New[string, entry](cfg.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}

	c := &MemoryCache{
		entries: entries,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go c.sweepEvery(cfg.SweepInterval)

	return c, nil
}

// Get returns a copy of the live payload stored under key
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	if !c.now().Before(e.expires) {
		c.entries.Remove(key)
		return nil, domain.ErrCacheMiss
	}
	return clone(e.value), nil
}

// Set stores a copy of value until ttl elapses
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.entries.Add(key, entry{value: clone(value), expires: c.now().Add(ttl)})
	return nil
}

// Delete removes key
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.entries.Remove(key)
	return nil
}

// Exists reports whether key holds a live entry without touching its recency
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	e, ok := c.entries.Peek(key)
	return ok && c.now().Before(e.expires), nil
}

// Len returns the number of stored entries, expired ones included until swept
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

// Purge drops every entry
func (c *MemoryCache) Purge() {
	c.entries.Purge()
}

// Close stops the sweeper. It is safe to call more than once.
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

func (c *MemoryCache) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep drops expired entries
func (c *MemoryCache) sweep() {
	now := c.now()
	for _, key := range c.entries.Keys() {
		if e, ok := c.entries.Peek(key); ok && !now.Before(e.expires) {
			c.entries.Remove(key)
		}
	}
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
