package virtual

import (
	"math"

	"github.com/golang/groupcache/lru"
)

// DefaultHeightCacheSize bounds the number of measured heights kept per list.
const DefaultHeightCacheSize = 4096

// HeightCache stores measured item heights by key together with a running
// mean used for items that have not been measured yet.
//
// Heights are bare item heights; inter-item spacing is applied by the layout.
type HeightCache struct {
	heights   map[string]int
	recency   *lru.Cache
	average   float64
	estimated int
}

// NewHeightCache creates a cache that answers estimated for unmeasured items
// until the first measurement arrives. capacity <= 0 uses DefaultHeightCacheSize.
func NewHeightCache(estimated, capacity int) *HeightCache {
	if capacity <= 0 {
		capacity = DefaultHeightCacheSize
	}
	c := &HeightCache{
		heights:   make(map[string]int),
		recency:   lru.New(capacity),
		estimated: estimated,
	}
	c.recency.OnEvicted = func(key lru.Key, _ interface{}) {
		delete(c.heights, key.(string))
	}
	return c
}

// Get returns the measured height for key or the current estimate
func (c *HeightCache) Get(key string) int {
	if h, ok := c.heights[key]; ok {
		return h
	}
	return c.Estimate()
}

// Estimate returns the height assumed for an unmeasured item
func (c *HeightCache) Estimate() int {
	if len(c.heights) == 0 {
		return c.estimated
	}
	return int(math.Round(c.average))
}

// Has reports whether key has a measured height
func (c *HeightCache) Has(key string) bool {
	_, ok := c.heights[key]
	return ok
}

// Set records a measured height. It returns false when the stored value was
// already equal to height.
func (c *HeightCache) Set(key string, height int) bool {
	old, existed := c.heights[key]
	if existed && old == height {
		c.recency.Get(key)
		return false
	}

	c.heights[key] = height
	c.recency.Add(key, nil)

	n := float64(len(c.heights))
	if existed {
		c.average += float64(height-old) / n
	} else {
		c.average = (c.average*(n-1) + float64(height)) / n
	}
	return true
}

// Remove drops the measurement for key. The running mean is left as is.
func (c *HeightCache) Remove(key string) {
	c.recency.Remove(key)
	delete(c.heights, key)
}

// Len returns the number of measured heights
func (c *HeightCache) Len() int {
	return len(c.heights)
}

// SetEstimate changes the height assumed before any measurement exists
func (c *HeightCache) SetEstimate(estimated int) {
	c.estimated = estimated
}

// Snapshot copies the measured heights so they can be persisted
func (c *HeightCache) Snapshot() map[string]int {
	out := make(map[string]int, len(c.heights))
	for k, v := range c.heights {
		out[k] = v
	}
	return out
}

// Restore seeds the cache from a snapshot taken with Snapshot
func (c *HeightCache) Restore(snapshot map[string]int) {
	for k, v := range snapshot {
		if v < 0 {
			continue
		}
		c.Set(k, v)
	}
}
