// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package feed

import (
	"sync"
	"time"

	"github.com/tomtom215/cadence/internal/cache"
	"github.com/tomtom215/cadence/internal/models"
)

// SampleSize bounds the post IDs kept per diagnostic sample.
const SampleSize = 5

// Store is the observable feed state.
type Store struct {
	mu         sync.RWMutex
	state      models.FeedSnapshot
	posts      []models.PostRow
	identities *cache.IdentityCache

	subMu  sync.Mutex
	subs   map[uint64]chan models.FeedSnapshot
	nextID uint64

	now func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		identities: cache.NewIdentityCache(),
		subs:       make(map[uint64]chan models.FeedSnapshot),
		now:        time.Now,
	}
}

// BeginFetch marks a fetch as running and clears the previous error.
func (s *Store) BeginFetch(ownerKey string, scope models.FeedScope, targetOwners []string) {
	s.mu.Lock()
	s.state.IsFetching = true
	s.state.LastError = ""
	s.state.OwnerKey = ownerKey
	s.state.Scope = scope
	s.state.TargetOwners = append([]string(nil), targetOwners...)
	s.mu.Unlock()

	s.publish()
}

// EndFetchSuccess records the rows of a completed fetch. raw is what the
// backend returned, mine the rows owned by the viewer and all the rows
// the viewer may see.
func (s *Store) EndFetchSuccess(raw, mine, all []models.PostRow) {
	now := s.now()

	s.mu.Lock()
	s.state.IsFetching = false
	s.state.LastError = ""
	s.state.LastFetchAt = &now
	s.state.RawCount = len(raw)
	s.state.MineCount = len(mine)
	s.state.AllCount = len(all)
	s.state.RawSample = sample(raw)
	s.state.MineSample = sample(mine)
	s.state.AllSample = sample(all)
	s.posts = append([]models.PostRow(nil), all...)
	s.mu.Unlock()

	s.publish()
}

// EndFetchFailure records a failed fetch. Counts from the last success are kept.
func (s *Store) EndFetchFailure(err error) {
	now := s.now()

	s.mu.Lock()
	s.state.IsFetching = false
	s.state.LastFetchAt = &now
	if err != nil {
		s.state.LastError = err.Error()
	}
	s.mu.Unlock()

	s.publish()
}

// RecordFlushError records the latest flush failure; nil clears it.
func (s *Store) RecordFlushError(err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}

	s.mu.Lock()
	changed := s.state.LastFlushError != msg
	s.state.LastFlushError = msg
	s.mu.Unlock()

	if changed {
		s.publish()
	}
}

// MergeDirectoryAccounts merges resolved identities into the author map.
func (s *Store) MergeDirectoryAccounts(accounts map[string]models.DirectoryIdentity) {
	if len(accounts) == 0 {
		return
	}
	for _, identity := range accounts {
		s.identities.Merge(identity)
	}
	s.publish()
}

// ReplaceDirectoryAccount overwrites one author record, so fields the
// owner cleared disappear from rendered content too.
func (s *Store) ReplaceDirectoryAccount(identity models.DirectoryIdentity) {
	if identity.UserID == "" {
		return
	}
	s.identities.Update(identity.UserID, func(models.DirectoryIdentity) models.DirectoryIdentity { return identity })
	s.publish()
}

// Author returns the known identity for userID.
func (s *Store) Author(userID string) (models.DirectoryIdentity, bool) {
	return s.identities.Get(userID)
}

// Authors returns a copy of every known identity.
func (s *Store) Authors() map[string]models.DirectoryIdentity {
	return s.identities.Snapshot()
}

// Posts returns the visible rows of the last successful fetch.
func (s *Store) Posts() []models.PostRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.PostRow(nil), s.posts...)
}

// ResetForSignOut clears fetch diagnostics and posts. Author identities
// survive so content rendered after the next sign-in does not flash
// placeholder names.
func (s *Store) ResetForSignOut() {
	s.mu.Lock()
	s.state = models.FeedSnapshot{}
	s.posts = nil
	s.mu.Unlock()

	s.publish()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() models.FeedSnapshot {
	s.mu.RLock()
	snap := s.state
	snap.TargetOwners = append([]string(nil), s.state.TargetOwners...)
	snap.RawSample = append([]string(nil), s.state.RawSample...)
	snap.MineSample = append([]string(nil), s.state.MineSample...)
	snap.AllSample = append([]string(nil), s.state.AllSample...)
	s.mu.RUnlock()

	snap.KnownAuthors = s.identities.Len()
	return snap
}

// Subscribe returns a channel that receives a snapshot after every change,
// and a function that ends the subscription. Slow subscribers only see the
// most recent snapshot.
func (s *Store) Subscribe() (<-chan models.FeedSnapshot, func()) {
	ch := make(chan models.FeedSnapshot, 1)

	s.subMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) publish() {
	snap := s.Snapshot()

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Replace the stale pending snapshot.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func sample(rows []models.PostRow) []string {
	n := len(rows)
	if n > SampleSize {
		n = SampleSize
	}
	if n == 0 {
		return nil
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = rows[i].ID.String()
	}
	return out
}
