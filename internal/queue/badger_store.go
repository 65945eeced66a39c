// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package queue

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/models"
)

var snapshotKey = []byte("queue:snapshot")

// BadgerStore keeps the queue snapshot under a single BadgerDB key.
type BadgerStore struct {
	db  *badger.DB
	dir string
}

// OpenBadgerStore opens (or creates) a BadgerDB database at dir with
// synchronous writes.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	if dir == "" {
		return nil, errors.New("badger queue dir is required")
	}

	opts := badger.DefaultOptions(dir)
	opts.SyncWrites = true
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().Str("dir", dir).Msg("Badger queue store opened")
	return &BadgerStore{db: db, dir: dir}, nil
}

// openInMemoryBadgerStore is used by tests.
func openInMemoryBadgerStore() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory BadgerDB: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Load reads the snapshot. A missing key is an empty queue.
func (s *BadgerStore) Load() ([]models.PublishPayload, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read queue snapshot: %w", err)
	}
	return decodeSnapshot("badger:"+s.dir, data)
}

// Save writes the snapshot in one transaction.
func (s *BadgerStore) Save(items []models.PublishPayload) error {
	data, err := encodeSnapshot(items)
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(snapshotKey, data))
	})
	if err != nil {
		return fmt.Errorf("write queue snapshot: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
