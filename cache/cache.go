package cache

import (
	"encoding/binary"
	"hash/fnv"
	"sync"
	"sync/atomic"
)

const (
	// Shards is the number of independently locked shards.
	// Must be a power of 2.
	Shards = 8

	// DefaultCapacity is the per-shard capacity used when New is given
	// a non-positive one.
	DefaultCapacity = 64

	shardMask = Shards - 1
)

// Hasher maps a key to the hash used for shard selection.
type Hasher[K any] func(K) uint64

// StringHasher hashes a string key with FNV-1a.
func StringHasher(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// IntHasher hashes an int key with FNV-1a.
func IntHasher(i int) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(i))
	h := fnv.New64a()
	_, _ = h.Write(buf[:])
	return h.Sum64()
}

// Stats is a point-in-time view of cache counters.
type Stats struct {
	Len       int
	Capacity  int // total across shards
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Failures  uint64 // loads that returned an error
}

// HitRate returns Hits / (Hits + Misses), or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is a sharded LRU cache safe for concurrent use.
// A Cache must not be copied after creation.
type Cache[K comparable, V any] struct {
	shards   [Shards]shard[K, V]
	hasher   Hasher[K]
	capacity int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	failures  atomic.Uint64
}

type shard[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*node[K, V]
	order   recency[K, V]
}

// New returns a cache holding up to capacity entries per shard.
// capacity <= 0 selects DefaultCapacity.
func New[K comparable, V any](capacity int, hasher Hasher[K]) *Cache[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache[K, V]{hasher: hasher, capacity: capacity}
	for i := range c.shards {
		c.shards[i].entries = make(map[K]*node[K, V])
	}
	return c
}

func (c *Cache[K, V]) shardFor(key K) *shard[K, V] {
	return &c.shards[c.hasher(key)&shardMask]
}

// Get returns the value cached for key and marks it recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	nd, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	s.order.touch(nd)
	v := nd.value
	s.mu.Unlock()

	c.hits.Add(1)
	return v, true
}

// Set stores value under key, evicting the shard's least recently used
// entries when it is full.
func (c *Cache[K, V]) Set(key K, value V) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	c.setLocked(s, key, value)
}

func (c *Cache[K, V]) setLocked(s *shard[K, V], key K, value V) {
	if nd, ok := s.entries[key]; ok {
		nd.value = value
		s.order.touch(nd)
		return
	}
	for s.order.len() >= c.capacity {
		old, ok := s.order.popBack()
		if !ok {
			break
		}
		delete(s.entries, old.key)
		c.evictions.Add(1)
	}
	s.entries[key] = s.order.pushFront(key, value)
}

// GetOrLoad returns the cached value for key, calling load on a miss.
//
// load runs with the shard locked so concurrent misses on one key load it
// once. A load error is returned as is and nothing is cached.
func (c *Cache[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if nd, ok := s.entries[key]; ok {
		s.order.touch(nd)
		c.hits.Add(1)
		return nd.value, nil
	}
	c.misses.Add(1)

	v, err := load()
	if err != nil {
		c.failures.Add(1)
		var zero V
		return zero, err
	}
	c.setLocked(s, key, v)
	return v, nil
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	nd, ok := s.entries[key]
	if !ok {
		return false
	}
	s.order.remove(nd)
	delete(s.entries, key)
	return true
}

// Clear drops every entry. Counters are kept.
func (c *Cache[K, V]) Clear() {
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		s.entries = make(map[K]*node[K, V])
		s.order.clear()
		s.mu.Unlock()
	}
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	total := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	return total
}

// Stats returns the cache counters.
func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Len:       c.Len(),
		Capacity:  c.capacity * Shards,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Failures:  c.failures.Load(),
	}
}
