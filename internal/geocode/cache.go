package geocode

import (
	"container/list"
	"context"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"

	"github.com/i474232898/skypulse/internal/weather"
)

// Cache stores resolved coordinates by normalized query. Implementations treat backend
// failures as misses.
type Cache interface {
	Get(ctx context.Context, key string) (weather.Coordinates, bool)
	Set(ctx context.Context, key string, value weather.Coordinates)
	Len(ctx context.Context) int
	Purge(ctx context.Context)
}

const (
	DefaultCacheSize = 256
	DefaultCacheTTL  = 24 * time.Hour
)

type cacheItem struct {
	key       string
	value     weather.Coordinates
	expiresAt time.Time
}

// MemoryCache is a bounded in-process cache. Entries expire a fixed TTL after insertion;
// at capacity the least recently used entry is evicted.
type MemoryCache struct {
	capacity int
	ttl      time.Duration
	clock    clock.Clock

	mutex sync.Mutex
	order *list.List // front is most recently used
	items map[string]*list.Element
}

// NewMemoryCache creates a cache. Non-positive capacity or ttl fall back to the defaults;
// a nil clock uses the wall clock.
func NewMemoryCache(capacity int, ttl time.Duration, clk clock.Clock) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if clk == nil {
		clk = clock.NewClock()
	}
	return &MemoryCache{
		capacity: capacity,
		ttl:      ttl,
		clock:    clk,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get returns the entry for key. Expired entries are removed and reported as a miss.
func (c *MemoryCache) Get(_ context.Context, key string) (weather.Coordinates, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	el, found := c.items[key]
	if !found {
		return weather.Coordinates{}, false
	}
	item := el.Value.(*cacheItem)
	if !c.clock.Now().Before(item.expiresAt) {
		c.remove(el)
		return weather.Coordinates{}, false
	}
	c.order.MoveToFront(el)
	return item.value, true
}

// Set inserts or replaces key, restarting its TTL.
func (c *MemoryCache) Set(_ context.Context, key string, value weather.Coordinates) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	expiresAt := c.clock.Now().Add(c.ttl)
	if el, found := c.items[key]; found {
		item := el.Value.(*cacheItem)
		item.value = value
		item.expiresAt = expiresAt
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&cacheItem{key: key, value: value, expiresAt: expiresAt})
	for c.order.Len() > c.capacity {
		c.remove(c.order.Back())
	}
}

// Len drops expired entries and returns how many remain.
func (c *MemoryCache) Len(_ context.Context) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.clock.Now()
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if !now.Before(el.Value.(*cacheItem).expiresAt) {
			c.remove(el)
		}
		el = next
	}
	return c.order.Len()
}

func (c *MemoryCache) Purge(_ context.Context) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element)
}

func (c *MemoryCache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*cacheItem).key)
}
