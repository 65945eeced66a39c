// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package cache

import (
	"sync"

	"github.com/tomtom215/cadence/internal/models"
)

// IdentityCache holds directory identities for the process lifetime.
//
// Every write is read-merge-write against the existing record, so a slow
// stale response can only fill gaps and never erase a fresher value. There
// is no Clear: sign-out keeps the cache to avoid author-name flicker.
type IdentityCache struct {
	mu      sync.RWMutex
	entries map[string]models.DirectoryIdentity
}

// NewIdentityCache creates an empty identity cache.
func NewIdentityCache() *IdentityCache {
	return &IdentityCache{entries: make(map[string]models.DirectoryIdentity)}
}

// Merge folds identity into the cached record and returns the merged result.
// Identities without a user ID are ignored.
func (c *IdentityCache) Merge(identity models.DirectoryIdentity) models.DirectoryIdentity {
	if identity.UserID == "" {
		return identity
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mergeLocked(identity)
}

// MergeAll merges a batch under one lock and returns the merged records by user ID.
func (c *IdentityCache) MergeAll(identities []models.DirectoryIdentity) map[string]models.DirectoryIdentity {
	out := make(map[string]models.DirectoryIdentity, len(identities))
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, identity := range identities {
		if identity.UserID == "" {
			continue
		}
		out[identity.UserID] = c.mergeLocked(identity)
	}
	return out
}

// MergeIfPresent merges only when a record for the user already exists.
// It never fabricates an entry and reports whether a merge happened.
func (c *IdentityCache) MergeIfPresent(identity models.DirectoryIdentity) (models.DirectoryIdentity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[identity.UserID]; !ok {
		return models.DirectoryIdentity{}, false
	}
	return c.mergeLocked(identity), true
}

// Update replaces the record for userID with the result of fn, which
// receives the current record (zero when absent). Use it for writes the
// backend has confirmed, where a plain merge would keep a cleared field.
func (c *IdentityCache) Update(userID string, fn func(prev models.DirectoryIdentity) models.DirectoryIdentity) models.DirectoryIdentity {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := fn(c.entries[userID])
	next.UserID = userID
	c.entries[userID] = next
	return next
}

func (c *IdentityCache) mergeLocked(identity models.DirectoryIdentity) models.DirectoryIdentity {
	merged := c.entries[identity.UserID].Merge(identity)
	c.entries[identity.UserID] = merged
	return merged
}

// Get returns the cached identity for a user.
func (c *IdentityCache) Get(userID string) (models.DirectoryIdentity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	identity, ok := c.entries[userID]
	return identity, ok
}

// GetMany returns the cached identities for the given users, skipping misses.
func (c *IdentityCache) GetMany(userIDs []string) map[string]models.DirectoryIdentity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]models.DirectoryIdentity, len(userIDs))
	for _, id := range userIDs {
		if identity, ok := c.entries[id]; ok {
			out[id] = identity
		}
	}
	return out
}

// Snapshot returns a copy of every cached identity.
func (c *IdentityCache) Snapshot() map[string]models.DirectoryIdentity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]models.DirectoryIdentity, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Len returns the number of cached identities.
func (c *IdentityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
