// Package cache provides memoization for materialized simulation runs.
// Policy search evaluates the same instance under the same settings many
// times; runs are referentially transparent, so their results can be
// reused safely.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/rddlsim/go-rddlsim/sim"
)

// Key identifies one run configuration. Source is the domain text (or any
// stable fingerprint of it); the remaining fields pin the compiled
// settings that change the result.
type Key struct {
	Source  string
	Policy  string
	Batch   int
	Horizon int
	Seed    int64
}

// hashKey creates a deterministic digest of a run key.
func hashKey(k Key) string {
	h := sha256.New()
	h.Write([]byte(k.Source))
	h.Write([]byte{0})
	h.Write([]byte(k.Policy))
	buf := make([]byte, 8)
	for _, n := range []int64{int64(k.Batch), int64(k.Horizon), k.Seed} {
		binary.BigEndian.PutUint64(buf, uint64(n))
		h.Write(buf)
	}
	return string(h.Sum(nil))
}

// RunCache caches run results keyed by run configuration.
type RunCache struct {
	mu        sync.RWMutex
	cache     map[string]*sim.RunResult
	maxSize   int
	hits      int64
	misses    int64
	evictions int64
}

// NewRunCache creates a cache with the specified maximum size.
// When the cache is full, an arbitrary entry is evicted.
// Set maxSize to 0 for an unbounded cache.
func NewRunCache(maxSize int) *RunCache {
	return &RunCache{
		cache:   make(map[string]*sim.RunResult),
		maxSize: maxSize,
	}
}

// Get retrieves a cached run result. Returns nil if not found.
func (c *RunCache) Get(k Key) *sim.RunResult {
	key := hashKey(k)

	c.mu.Lock()
	defer c.mu.Unlock()

	if res, ok := c.cache[key]; ok {
		c.hits++
		return res
	}
	c.misses++
	return nil
}

// Put stores a run result.
func (c *RunCache) Put(k Key, res *sim.RunResult) {
	key := hashKey(k)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize > 0 && len(c.cache) >= c.maxSize {
		for old := range c.cache {
			delete(c.cache, old)
			c.evictions++
			break
		}
	}

	c.cache[key] = res
}

// GetOrCompute retrieves from the cache or computes and caches the result.
// The compute error passes through uncached.
func (c *RunCache) GetOrCompute(k Key, compute func() (*sim.RunResult, error)) (*sim.RunResult, error) {
	if res := c.Get(k); res != nil {
		return res, nil
	}

	res, err := compute()
	if err != nil {
		return nil, err
	}
	c.Put(k, res)
	return res, nil
}

// Clear removes all entries from the cache.
func (c *RunCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*sim.RunResult)
}

// Size returns the current number of cached entries.
func (c *RunCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Stats holds cache statistics.
type Stats struct {
	Size      int
	MaxSize   int
	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64
}

// Stats returns cache statistics.
func (c *RunCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return Stats{
		Size:      len(c.cache),
		MaxSize:   c.maxSize,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		HitRate:   hitRate,
	}
}
