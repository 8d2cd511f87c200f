// Package feedcache remembers recently processed feed items so the pipeline
// does not enrich the same article twice within the dedup window.
package feedcache

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/tech2news/technews/internal/logger"
)

const (
	// DefaultCapacity bounds the in-memory map; the oldest inserted key is
	// dropped first when full.
	DefaultCapacity = 100
	// DefaultWindow is how long an item counts as recently processed.
	DefaultWindow = time.Hour
)

// LinkChecker is the secondary persisted-store recency check, covering
// process-restart amnesia. Implemented by storage.Postgres.
type LinkChecker interface {
	RecentlyStored(ctx context.Context, link string, window time.Duration) (bool, error)
}

type entry struct {
	processedAt time.Time
}

// Cache is a bounded FIFO recency cache keyed on normalized title|link.
type Cache struct {
	mu       sync.Mutex
	items    map[string]entry
	order    []string // insertion order for FIFO eviction
	capacity int
	window   time.Duration
	store    LinkChecker
	now      func() time.Time
}

// New creates a cache with the default capacity and window. store may be nil
// when no persisted-store check is wanted.
func New(store LinkChecker) *Cache {
	return &Cache{
		items:    make(map[string]entry),
		capacity: DefaultCapacity,
		window:   DefaultWindow,
		store:    store,
		now:      time.Now,
	}
}

var keyStripRe = regexp.MustCompile(`[^a-z0-9_\-./:]`)

// Key builds the cache key: lowercase title|link, whitespace collapsed to
// underscores, special characters stripped, truncated to 200 characters.
func Key(title, link string) string {
	parts := make([]string, 0, 2)
	if t := strings.TrimSpace(title); t != "" {
		parts = append(parts, t)
	}
	if l := strings.TrimSpace(link); l != "" {
		parts = append(parts, l)
	}
	key := strings.ToLower(strings.Join(parts, "|"))
	key = strings.Join(strings.Fields(key), "_")
	key = keyStripRe.ReplaceAllString(key, "")
	if len(key) > 200 {
		key = key[:200]
	}
	return key
}

// IsRecentlyProcessed reports whether the item was handled within the window,
// either in memory or in the persisted store. Stale in-memory entries are
// evicted on lookup.
func (c *Cache) IsRecentlyProcessed(ctx context.Context, title, link string) bool {
	key := Key(title, link)

	c.mu.Lock()
	if e, ok := c.items[key]; ok {
		if c.now().Sub(e.processedAt) < c.window {
			c.mu.Unlock()
			return true
		}
		c.remove(key)
	}
	c.mu.Unlock()

	if c.store == nil || link == "" {
		return false
	}
	recent, err := c.store.RecentlyStored(ctx, link, c.window)
	if err != nil {
		logger.Warn("persisted-store recency check failed, continuing with cache only", "error", err)
		return false
	}
	return recent
}

// Record marks the item as processed now, evicting the oldest entry when at
// capacity.
func (c *Cache) Record(title, link string) {
	key := Key(title, link)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; ok {
		c.items[key] = entry{processedAt: c.now()}
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.remove(oldest)
	}
	c.items[key] = entry{processedAt: c.now()}
	c.order = append(c.order, key)
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// remove deletes a key from both the map and the order slice. Callers must
// hold the mutex.
func (c *Cache) remove(key string) {
	delete(c.items, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
