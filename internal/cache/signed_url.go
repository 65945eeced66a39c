// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package cache

import (
	"sync"
	"time"

	"github.com/tomtom215/cadence/internal/metrics"
)

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// signedURLEntry is one cached URL and its logical deadline.
type signedURLEntry struct {
	url       string
	expiresAt time.Time
}

// SignedURLCache stores signed object URLs until their expiry.
type SignedURLCache struct {
	mu      sync.Mutex
	entries map[string]signedURLEntry
	now     Clock
}

// NewSignedURLCache creates an empty cache. A nil clock uses time.Now.
func NewSignedURLCache(clock Clock) *SignedURLCache {
	if clock == nil {
		clock = time.Now
	}
	return &SignedURLCache{
		entries: make(map[string]signedURLEntry),
		now:     clock,
	}
}

// Key builds the composite cache key for an object.
func Key(bucket, path string) string {
	return bucket + "|" + path
}

// Get returns the URL only while now is strictly before its expiry.
// An expired entry is removed and reported as a miss.
func (c *SignedURLCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		metrics.RecordCacheLookup("signed_url", false)
		return "", false
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		metrics.CacheEvictions.WithLabelValues("signed_url").Inc()
		metrics.RecordCacheLookup("signed_url", false)
		return "", false
	}
	metrics.RecordCacheLookup("signed_url", true)
	return entry.url, true
}

// Set stores url for ttl, always overwriting any existing entry.
// A ttl of zero or less stores an entry that is already expired.
func (c *SignedURLCache) Set(key, url string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = signedURLEntry{url: url, expiresAt: c.now().Add(ttl)}
}

// Delete removes an entry if present.
func (c *SignedURLCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of stored entries, expired ones included.
func (c *SignedURLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// CleanupExpired removes all expired entries and returns how many were dropped.
func (c *SignedURLCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		metrics.CacheEvictions.WithLabelValues("signed_url").Add(float64(removed))
	}
	return removed
}
