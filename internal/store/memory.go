package store

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/i474232898/weather-summary/internal/weather"
)

// Default retention for cached summaries.
const (
	DefaultTTL     = 30 * time.Minute
	DefaultMaxSize = 100
)

// entry is a cached summary and the moment it stops being served.
type entry struct {
	city      string
	summary   weather.WeatherSummary
	expiresAt time.Time
}

// MemoryCache is a concurrency-safe in-memory summary cache.
// Entries expire a fixed interval after they are written and the least recently
// used entry is evicted once the cache holds more than maxSize entries.
type MemoryCache struct {
	mu sync.Mutex

	// key: city as supplied, value: element in order whose Value is *entry
	items map[string]*list.Element
	// front = most recently used
	order *list.List

	// retention configuration
	ttl     time.Duration // 0 = never expires
	maxSize int           // <= 0 = unlimited

	now func() time.Time
}

// MemoryOption customises a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithClock replaces time.Now, mainly for TTL tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) { c.now = now }
}

// NewMemoryCache creates a new MemoryCache.
func NewMemoryCache(ttl time.Duration, maxSize int, opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached summary for city if present and not expired.
// Expired entries are dropped on access.
func (c *MemoryCache) Get(_ context.Context, city string) (weather.WeatherSummary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[city]
	if !ok {
		return weather.WeatherSummary{}, false, nil
	}

	e := el.Value.(*entry)
	if c.expired(e) {
		c.removeElement(el)
		return weather.WeatherSummary{}, false, nil
	}

	c.order.MoveToFront(el)
	return e.summary, true, nil
}

// Set stores summary for city, replacing any previous value, and enforces retention.
func (c *MemoryCache) Set(_ context.Context, city string, summary weather.WeatherSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	if el, ok := c.items[city]; ok {
		e := el.Value.(*entry)
		e.summary = summary
		e.expiresAt = expiresAt
		c.order.MoveToFront(el)
		return nil
	}

	c.items[city] = c.order.PushFront(&entry{
		city:      city,
		summary:   summary,
		expiresAt: expiresAt,
	})

	// Enforce retention by count.
	for c.maxSize > 0 && c.order.Len() > c.maxSize {
		c.removeElement(c.order.Back())
	}

	return nil
}

// Len reports the number of stored entries, expired ones included until they are touched.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *MemoryCache) expired(e *entry) bool {
	return !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)
}

func (c *MemoryCache) removeElement(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).city)
}
