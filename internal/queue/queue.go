// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package queue

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/models"
)

var (
	// ErrNotFound is returned when an ID is not queued.
	ErrNotFound = errors.New("payload not queued")

	// ErrNilID is returned when a payload carries the zero UUID.
	ErrNilID = errors.New("payload id is required")
)

// Queue is the durable, ordered, ID-unique publish queue.
type Queue struct {
	mu    sync.Mutex
	store Store
	items []models.PublishPayload
	index map[uuid.UUID]int
}

// New loads the persisted snapshot from store. Duplicate IDs in the
// snapshot are merged into the first occurrence.
func New(store Store) (*Queue, error) {
	loaded, err := store.Load()
	if err != nil {
		return nil, err
	}

	q := &Queue{
		store: store,
		index: make(map[uuid.UUID]int, len(loaded)),
	}
	for _, p := range loaded {
		if p.ID == uuid.Nil {
			continue
		}
		if pos, ok := q.index[p.ID]; ok {
			q.items[pos] = q.items[pos].Merge(p)
			continue
		}
		q.index[p.ID] = len(q.items)
		q.items = append(q.items, p.Normalized())
	}

	metrics.QueueDepth.Set(float64(len(q.items)))
	logging.Info().Int("items", len(q.items)).Msg("Publish queue loaded")
	return q, nil
}

// Enqueue inserts p, or merges it into the queued entry with the same ID.
func (q *Queue) Enqueue(p models.PublishPayload) error {
	if p.ID == uuid.Nil {
		return ErrNilID
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if pos, ok := q.index[p.ID]; ok {
		prev := q.items[pos]
		q.items[pos] = prev.Merge(p)
		if err := q.persistLocked(); err != nil {
			q.items[pos] = prev
			return err
		}
		return nil
	}

	q.index[p.ID] = len(q.items)
	q.items = append(q.items, p.Normalized())
	if err := q.persistLocked(); err != nil {
		q.items = q.items[:len(q.items)-1]
		delete(q.index, p.ID)
		return err
	}
	return nil
}

// EnsureStub queues a stub for id unless an entry already exists.
// An existing entry is never modified.
func (q *Queue) EnsureStub(id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrNilID
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.index[id]; ok {
		return nil
	}

	q.index[id] = len(q.items)
	q.items = append(q.items, models.NewStub(id))
	if err := q.persistLocked(); err != nil {
		q.items = q.items[:len(q.items)-1]
		delete(q.index, id)
		return err
	}
	return nil
}

// Dequeue removes id. It returns ErrNotFound when id is not queued.
func (q *Queue) Dequeue(id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	pos, ok := q.index[id]
	if !ok {
		return ErrNotFound
	}
	return q.removeLocked(pos)
}

// DequeueIf removes id only while the queued entry still equals sent. An
// entry that was merged with newer edits after sent was snapshotted stays
// queued and removed is false.
func (q *Queue) DequeueIf(id uuid.UUID, sent models.PublishPayload) (removed bool, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	pos, ok := q.index[id]
	if !ok {
		return false, ErrNotFound
	}
	if !q.items[pos].Equal(sent) {
		return false, nil
	}
	if err := q.removeLocked(pos); err != nil {
		return false, err
	}
	return true, nil
}

func (q *Queue) removeLocked(pos int) error {
	prev := q.items
	next := make([]models.PublishPayload, 0, len(prev)-1)
	next = append(next, prev[:pos]...)
	next = append(next, prev[pos+1:]...)

	q.items = next
	if err := q.persistLocked(); err != nil {
		q.items = prev
		return err
	}
	q.reindexLocked()
	return nil
}

// Clear removes every entry.
func (q *Queue) Clear() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	prev := q.items
	q.items = nil
	if err := q.persistLocked(); err != nil {
		q.items = prev
		return err
	}
	q.reindexLocked()
	return nil
}

// Snapshot returns a copy of the queued payloads in order.
func (q *Queue) Snapshot() []models.PublishPayload {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]models.PublishPayload, len(q.items))
	copy(out, q.items)
	return out
}

// Get returns the queued payload for id.
func (q *Queue) Get(id uuid.UUID) (models.PublishPayload, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	pos, ok := q.index[id]
	if !ok {
		return models.PublishPayload{}, false
	}
	return q.items[pos], true
}

// Len returns the number of queued payloads.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) persistLocked() error {
	if err := q.store.Save(q.items); err != nil {
		metrics.QueuePersistErrors.Inc()
		logging.Error().Err(err).Int("items", len(q.items)).Msg("Failed to persist publish queue")
		return fmt.Errorf("persist queue: %w", err)
	}
	metrics.QueueDepth.Set(float64(len(q.items)))
	return nil
}

func (q *Queue) reindexLocked() {
	q.index = make(map[uuid.UUID]int, len(q.items))
	for i, p := range q.items {
		q.index[p.ID] = i
	}
}
