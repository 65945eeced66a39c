// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package objectstore

import (
	"context"
	"time"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/transport"
)

// RESTStore uses the backend's storage endpoints.
type RESTStore struct {
	client *transport.Client
}

// NewRESTStore wraps a transport client.
func NewRESTStore(client *transport.Client) *RESTStore {
	return &RESTStore{client: client}
}

// Upload posts the object with x-upsert so re-flushes overwrite.
func (s *RESTStore) Upload(ctx context.Context, bucket, path, contentType string, data []byte) error {
	err := s.client.UploadObject(ctx, bucket, path, contentType, data)
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.AttachmentUploads.WithLabelValues(config.StorageProviderREST, result).Inc()
	return err
}

// SignURL mints a URL through the sign endpoint. TTLs under one second are
// rounded up because the endpoint takes whole seconds.
func (s *RESTStore) SignURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	seconds := int(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return s.client.CreateSignedObjectURL(ctx, bucket, path, seconds)
}

// Provider implements Store.
func (s *RESTStore) Provider() string { return config.StorageProviderREST }
