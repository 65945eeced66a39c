// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package objectstore uploads attachment blobs and mints signed read URLs.
//
// Two providers are available: the backend's own storage REST API (the
// default, reached through transport.Client) and Google Cloud Storage for
// self-hosted deployments that keep media in a GCS bucket.
package objectstore

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/transport"
)

// Store is an object storage provider.
type Store interface {
	// Upload writes data to bucket/path, replacing any existing object.
	Upload(ctx context.Context, bucket, path, contentType string, data []byte) error

	// SignURL returns a time-limited read URL for bucket/path.
	SignURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error)

	// Provider names the backing implementation for logs and metrics.
	Provider() string
}

// New returns the provider selected by cfg. The GCS client is created from
// application default credentials unless a credentials file is configured.
func New(ctx context.Context, cfg *config.StorageConfig, client *transport.Client) (Store, error) {
	switch cfg.Provider {
	case config.StorageProviderREST, "":
		return NewRESTStore(client), nil
	case config.StorageProviderGCS:
		return NewGCSStore(ctx, cfg.GCSCredentialsFile)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// ContentType maps a file extension to the MIME type sent on upload.
func ContentType(ext string) string {
	switch ext {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "heic":
		return "image/heic"
	case "gif":
		return "image/gif"
	case "mov":
		return "video/quicktime"
	case "mp4":
		return "video/mp4"
	case "m4a":
		return "audio/mp4"
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "aac":
		return "audio/aac"
	case "pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
