// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package queue

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/models"
)

// Store persists complete queue snapshots.
type Store interface {
	Load() ([]models.PublishPayload, error)
	Save(items []models.PublishPayload) error
}

// DecodeError is returned when a persisted snapshot is neither a payload
// array nor a legacy array of UUID strings.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode queue snapshot %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// OpenStore builds the Store selected by cfg.
func OpenStore(cfg *config.QueueConfig) (Store, error) {
	switch cfg.Store {
	case "", config.QueueStoreFile:
		return NewFileStore(cfg.Path), nil
	case config.QueueStoreBadger:
		return OpenBadgerStore(cfg.BadgerDir)
	default:
		return nil, fmt.Errorf("unknown queue store %q", cfg.Store)
	}
}

func encodeSnapshot(items []models.PublishPayload) ([]byte, error) {
	if items == nil {
		items = []models.PublishPayload{}
	}
	return json.Marshal(items)
}

// decodeSnapshot accepts the current payload array or the legacy bare
// UUID array. Empty input is an empty queue.
func decodeSnapshot(source string, data []byte) ([]models.PublishPayload, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var items []models.PublishPayload
	payloadErr := json.Unmarshal(data, &items)
	if payloadErr == nil {
		return items, nil
	}

	var ids []uuid.UUID
	if err := json.Unmarshal(data, &ids); err == nil {
		items = make([]models.PublishPayload, 0, len(ids))
		for _, id := range ids {
			items = append(items, models.NewStub(id))
		}
		return items, nil
	}

	return nil, &DecodeError{Source: source, Err: payloadErr}
}

// IsDecodeError reports whether err is a snapshot decode failure.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
