// Package cache provides a bounded in-memory cache with least-recently-used
// eviction and age based sweeping.
package cache

import (
	"container/list"
	"sync"
	"time"
)

const DefaultMaxSize = 100

type entry[K comparable, V any] struct {
	key       K
	value     V
	timestamp time.Time
	hits      int
}

// Recency is a bounded key/value store. The internal list runs from least
// recently touched (front) to most recently touched (back).
type Recency[K comparable, V any] struct {
	mu      sync.Mutex
	maxSize int
	now     func() time.Time

	items map[K]*list.Element
	order *list.List
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source used for timestamps and ages.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func New[K comparable, V any](maxSize int, opts ...Option) *Recency[K, V] {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Recency[K, V]{
		maxSize: maxSize,
		now:     o.now,
		items:   make(map[K]*list.Element),
		order:   list.New(),
	}
}

// Get returns the value for key and marks it most recently used.
func (c *Recency[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}

	e := el.Value.(*entry[K, V])
	e.hits++
	e.timestamp = c.now()
	c.order.MoveToBack(el)

	return e.value, true
}

// Set stores value under key as the most recently used entry with a fresh
// hit counter, evicting the least recently used entry when full.
func (c *Recency[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}

	if c.order.Len() >= c.maxSize {
		if oldest := c.order.Front(); oldest != nil {
			c.removeElement(oldest)
		}
	}

	c.items[key] = c.order.PushBack(&entry[K, V]{
		key:       key,
		value:     value,
		timestamp: c.now(),
	})
}

func (c *Recency[K, V]) Has(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.items[key]
	return ok
}

// Delete reports whether key was present.
func (c *Recency[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(el)
	return true
}

func (c *Recency[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*list.Element)
	c.order.Init()
}

func (c *Recency[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Cleanup removes entries last touched more than maxAge ago and returns how
// many were removed.
func (c *Recency[K, V]) Cleanup(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-maxAge)
	removed := 0

	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if el.Value.(*entry[K, V]).timestamp.Before(cutoff) {
			c.removeElement(el)
			removed++
		}
		el = next
	}

	return removed
}

// EntryStats describes one entry. Age is time since the last touch; it is
// serialized as whole milliseconds under "age".
type EntryStats[K comparable] struct {
	Key   K             `json:"key"`
	Hits  int           `json:"hits"`
	Age   time.Duration `json:"-"`
	AgeMs int64         `json:"age"`
}

type Stats[K comparable] struct {
	Size    int             `json:"size"`
	MaxSize int             `json:"maxSize"`
	HitRate float64         `json:"hitRate"`
	Entries []EntryStats[K] `json:"entries"`
}

// Stats reports occupancy and per-entry counters, least recently used first.
//
// HitRate is totalHits / (totalHits + free slots). Free capacity stands in for
// misses, so this is not a request level hit ratio.
func (c *Recency[K, V]) Stats() Stats[K] {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	stats := Stats[K]{
		Size:    c.order.Len(),
		MaxSize: c.maxSize,
		Entries: make([]EntryStats[K], 0, c.order.Len()),
	}

	totalHits := 0
	for el := c.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry[K, V])
		totalHits += e.hits
		age := now.Sub(e.timestamp)
		stats.Entries = append(stats.Entries, EntryStats[K]{
			Key:   e.key,
			Hits:  e.hits,
			Age:   age,
			AgeMs: age.Milliseconds(),
		})
	}

	if denom := totalHits + (c.maxSize - stats.Size); denom > 0 {
		stats.HitRate = float64(totalHits) / float64(denom)
	}

	return stats
}

// removeElement must be called with the lock held.
func (c *Recency[K, V]) removeElement(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry[K, V]).key)
}
