// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/codeGROOVE-dev/retry"
	"google.golang.org/api/option"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
)

// writerFunc opens a writer for one object.
type writerFunc func(ctx context.Context, bucket, path, contentType string) io.WriteCloser

// signerFunc signs a GET URL for one object.
type signerFunc func(bucket, path string, expires time.Time) (string, error)

// GCSStore keeps attachments in Google Cloud Storage.
type GCSStore struct {
	client    *storage.Client
	newWriter writerFunc
	sign      signerFunc

	attempts uint
	delay    time.Duration
}

// NewGCSStore creates a GCS-backed store.
func NewGCSStore(ctx context.Context, credentialsFile string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	s := &GCSStore{client: client, attempts: 3, delay: time.Second}
	s.newWriter = func(ctx context.Context, bucket, path, contentType string) io.WriteCloser {
		w := client.Bucket(bucket).Object(path).NewWriter(ctx)
		w.ContentType = contentType
		return w
	}
	s.sign = func(bucket, path string, expires time.Time) (string, error) {
		return client.Bucket(bucket).SignedURL(path, &storage.SignedURLOptions{
			Method:  "GET",
			Expires: expires,
			Scheme:  storage.SigningSchemeV4,
		})
	}
	return s, nil
}

// Upload writes the object, retrying transient failures.
func (s *GCSStore) Upload(ctx context.Context, bucket, path, contentType string, data []byte) error {
	err := retry.Do(
		func() error {
			w := s.newWriter(ctx, bucket, path, contentType)
			if _, writeErr := w.Write(data); writeErr != nil {
				if closeErr := w.Close(); closeErr != nil {
					logging.Ctx(ctx).Warn().Err(closeErr).Msg("Failed to close writer after error")
				}
				return fmt.Errorf("write to storage: %w", writeErr)
			}
			if closeErr := w.Close(); closeErr != nil {
				return fmt.Errorf("close storage writer: %w", closeErr)
			}
			return nil
		},
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.MaxDelay(2*time.Minute),
		retry.MaxJitter(s.delay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, retryErr error) {
			logging.Ctx(ctx).Info().Uint("attempt", n).Str("path", path).Err(retryErr).Msg("Retrying attachment upload after error")
		}),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
	)

	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.AttachmentUploads.WithLabelValues(config.StorageProviderGCS, result).Inc()

	if err != nil {
		return fmt.Errorf("upload %s/%s after retries: %w", bucket, path, err)
	}
	return nil
}

// SignURL returns a V4 signed GET URL.
func (s *GCSStore) SignURL(_ context.Context, bucket, path string, ttl time.Duration) (string, error) {
	url, err := s.sign(bucket, path, time.Now().Add(ttl))
	if err != nil {
		return "", fmt.Errorf("sign %s/%s: %w", bucket, path, err)
	}
	return url, nil
}

// Provider implements Store.
func (s *GCSStore) Provider() string { return config.StorageProviderGCS }

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
