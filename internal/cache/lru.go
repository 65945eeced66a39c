// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package cache

import (
	"sync"

	"github.com/tomtom215/cadence/internal/metrics"
)

// DefaultMediaCacheSize is the capacity used when none is configured.
const DefaultMediaCacheSize = 256

// mediaEntry is a node in the recency list.
type mediaEntry struct {
	key   string
	value []byte
	prev  *mediaEntry
	next  *mediaEntry
}

// MediaCache is a thread-safe LRU of decoded media bytes.
//
// A doubly-linked list orders entries by recency and a map gives O(1)
// lookup. head.next is the most recently used entry, tail.prev the least.
// Stored slices are treated as immutable by callers.
type MediaCache struct {
	mu sync.Mutex

	capacity int
	items    map[string]*mediaEntry

	head *mediaEntry
	tail *mediaEntry

	hits   int64
	misses int64
}

// NewMediaCache creates an LRU with the given capacity (DefaultMediaCacheSize if <= 0).
func NewMediaCache(capacity int) *MediaCache {
	if capacity <= 0 {
		capacity = DefaultMediaCacheSize
	}

	c := &MediaCache{
		capacity: capacity,
		items:    make(map[string]*mediaEntry, capacity),
		head:     &mediaEntry{},
		tail:     &mediaEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get returns the cached bytes and marks the entry most recently used.
func (c *MediaCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok {
		c.misses++
		metrics.RecordCacheLookup("media", false)
		return nil, false
	}
	c.moveToFront(entry)
	c.hits++
	metrics.RecordCacheLookup("media", true)
	return entry.value, true
}

// Add inserts or replaces an entry, evicting the least recently used
// entries while over capacity.
func (c *MediaCache) Add(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.items[key]; ok {
		entry.value = value
		c.moveToFront(entry)
		return
	}

	entry := &mediaEntry{key: key, value: value}
	c.addToFront(entry)
	c.items[key] = entry

	for len(c.items) > c.capacity {
		c.evictOldest()
	}
}

// GetOrLoad returns the cached bytes or calls load and caches its result.
// Load errors are returned and nothing is cached.
func (c *MediaCache) GetOrLoad(key string, load func() ([]byte, error)) ([]byte, error) {
	if data, ok := c.Get(key); ok {
		return data, nil
	}
	data, err := load()
	if err != nil {
		return nil, err
	}
	c.Add(key, data)
	return data, nil
}

// Remove drops an entry. Returns true if it was present.
func (c *MediaCache) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.items[key]; ok {
		c.removeEntry(entry)
		return true
	}
	return false
}

// Len returns the number of cached entries.
func (c *MediaCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear removes all entries.
func (c *MediaCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*mediaEntry, c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// Stats returns cache hit/miss statistics.
func (c *MediaCache) Stats() (hits, misses int64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, len(c.items)
}

// Internal methods (must be called with lock held)

func (c *MediaCache) addToFront(entry *mediaEntry) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *MediaCache) moveToFront(entry *mediaEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	c.addToFront(entry)
}

func (c *MediaCache) removeEntry(entry *mediaEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(c.items, entry.key)
}

func (c *MediaCache) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.removeEntry(oldest)
	metrics.CacheEvictions.WithLabelValues("media").Inc()
}
