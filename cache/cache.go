// Package cache provides a sharded, thread-safe cache that deduplicates
// concurrent creation of the same key.
//
// It backs the image cache of the sprite engine: decoding a file is
// expensive, several goroutines may ask for the same file at once (for
// example while preloading), and each file must be decoded exactly once.
// Entries stay until they are deleted or the cache is cleared.
package cache

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
)

const (
	// DefaultShardCount is the number of shards for reduced lock contention.
	// Must be a power of 2 for fast modulo via bitwise AND.
	DefaultShardCount = 16

	// shardMask is used for fast shard selection (DefaultShardCount - 1).
	shardMask = DefaultShardCount - 1
)

// Hasher computes a hash for a key. Used for shard selection.
type Hasher[K any] func(K) uint64

// StringHasher computes FNV-1a hash of a string key.
func StringHasher(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s)) // fnv.Write never returns an error
	return h.Sum64()
}

// Stats is a snapshot of cache statistics.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// Cache is a sharded map with single-flight creation.
type Cache[K comparable, V any] struct {
	shards [DefaultShardCount]*shard[K, V]
	hasher Hasher[K]

	hits   atomic.Uint64
	misses atomic.Uint64
}

type shard[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]
}

// entry is complete once done is closed.
type entry[V any] struct {
	done  chan struct{}
	value V
	err   error
}

func completed[V any](v V) *entry[V] {
	e := &entry[V]{done: make(chan struct{}), value: v}
	close(e.done)
	return e
}

func (e *entry[V]) ready() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// New creates an empty cache.
func New[K comparable, V any](hasher Hasher[K]) *Cache[K, V] {
	c := &Cache[K, V]{hasher: hasher}
	for i := range c.shards {
		c.shards[i] = &shard[K, V]{entries: make(map[K]*entry[V])}
	}
	return c
}

func (c *Cache[K, V]) shardFor(key K) *shard[K, V] {
	return c.shards[c.hasher(key)&shardMask]
}

// Get returns a completed value.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	e, ok := s.entries[key]
	s.mu.Unlock()
	if !ok || !e.ready() || e.err != nil {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Set stores a value, replacing any existing entry.
func (c *Cache[K, V]) Set(key K, value V) {
	s := c.shardFor(key)
	s.mu.Lock()
	s.entries[key] = completed(value)
	s.mu.Unlock()
}

// GetOrCreate returns the cached value for key or creates it.
//
// Concurrent callers for the same key wait for a single create call and
// share its result. A failed create is not cached: the error is returned
// to every waiting caller and the next call retries.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	s := c.shardFor(key)
	s.mu.Lock()
	if e, ok := s.entries[key]; ok {
		s.mu.Unlock()
		<-e.done
		if e.err == nil {
			c.hits.Add(1)
		}
		return e.value, e.err
	}
	e := &entry[V]{done: make(chan struct{})}
	s.entries[key] = e
	s.mu.Unlock()

	c.misses.Add(1)
	e.value, e.err = create()
	if e.err != nil {
		s.mu.Lock()
		if s.entries[key] == e {
			delete(s.entries, key)
		}
		s.mu.Unlock()
	}
	close(e.done)
	return e.value, e.err
}

// Delete removes a key. Returns true if the key existed.
func (c *Cache[K, V]) Delete(key K) bool {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	delete(s.entries, key)
	return ok
}

// Len returns the number of entries, including pending ones.
func (c *Cache[K, V]) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// Range calls f for every completed entry until f returns false.
// f must not call back into the cache.
func (c *Cache[K, V]) Range(f func(K, V) bool) {
	for _, s := range c.shards {
		s.mu.Lock()
		for k, e := range s.entries {
			if !e.ready() || e.err != nil {
				continue
			}
			if !f(k, e.value) {
				s.mu.Unlock()
				return
			}
		}
		s.mu.Unlock()
	}
}

// Clear removes all entries and resets statistics.
func (c *Cache[K, V]) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		clear(s.entries)
		s.mu.Unlock()
	}
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns a snapshot of the statistics.
func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.Len(),
	}
}
