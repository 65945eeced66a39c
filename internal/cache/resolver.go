// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package cache

import (
	"context"
	"fmt"
	"time"
)

// DefaultSafetyMargin is subtracted from the signed lifetime before caching
// so a URL is never handed out moments before the backend rejects it.
const DefaultSafetyMargin = 30 * time.Second

// URLSigner mints a signed read URL for an object.
type URLSigner interface {
	SignURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error)
}

// SignedURLs resolves object URLs through a SignedURLCache, minting on miss.
type SignedURLs struct {
	cache  *SignedURLCache
	signer URLSigner
	ttl    time.Duration
	margin time.Duration
}

// NewSignedURLs creates a resolver. ttl is the lifetime requested from the signer.
func NewSignedURLs(cache *SignedURLCache, signer URLSigner, ttl time.Duration) *SignedURLs {
	return &SignedURLs{
		cache:  cache,
		signer: signer,
		ttl:    ttl,
		margin: DefaultSafetyMargin,
	}
}

// Resolve returns a cached URL or mints and caches a new one.
// When ttl does not exceed the margin the URL is returned but not cached.
func (s *SignedURLs) Resolve(ctx context.Context, bucket, path string) (string, error) {
	key := Key(bucket, path)
	if url, ok := s.cache.Get(key); ok {
		return url, nil
	}

	url, err := s.signer.SignURL(ctx, bucket, path, s.ttl)
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", key, err)
	}

	if keep := s.ttl - s.margin; keep > 0 {
		s.cache.Set(key, url, keep)
	}
	return url, nil
}
