// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/tomtom215/cadence/internal/cache"
	"github.com/tomtom215/cadence/internal/objectstore"
)

// maxMediaBytes bounds a single proxied object.
const maxMediaBytes = 20 << 20

// Media resolves attachment objects for the status API. URLs memoizes signed
// read URLs and Bytes holds recently downloaded objects.
type Media struct {
	URLs   *cache.SignedURLs
	Bytes  *cache.MediaCache
	Bucket string

	// Fetch downloads a signed URL. Nil uses an HTTP GET with a 30s timeout.
	Fetch func(ctx context.Context, url string) ([]byte, error)
}

type mediaQuery struct {
	Path string `validate:"required,max=1024"`
}

func (m *Media) fetch(ctx context.Context, url string) ([]byte, error) {
	if m.Fetch != nil {
		return m.Fetch(ctx, url)
	}
	return httpFetch(ctx, url)
}

var mediaHTTPClient = &http.Client{Timeout: 30 * time.Second}

func httpFetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := mediaHTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("object download returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxMediaBytes {
		return nil, fmt.Errorf("object exceeds %d bytes", maxMediaBytes)
	}
	return data, nil
}

// mediaPath reads and checks the path query parameter.
func (h *Handler) mediaPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.deps.Media == nil || h.deps.Media.URLs == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "Media is disabled", nil)
		return "", false
	}
	q := mediaQuery{Path: strings.TrimPrefix(r.URL.Query().Get("path"), "/")}
	if apiErr := validateRequest(&q); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return "", false
	}
	if strings.Contains(q.Path, "..") {
		respondError(w, r, http.StatusBadRequest, codeValidation, "path must not contain '..'", nil)
		return "", false
	}
	return q.Path, true
}

// MediaURL returns a signed read URL for an attachment object.
func (h *Handler) MediaURL(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	objectPath, ok := h.mediaPath(w, r)
	if !ok {
		return
	}

	url, err := h.deps.Media.URLs.Resolve(r.Context(), h.deps.Media.Bucket, objectPath)
	if err != nil {
		status, code := backendStatus(err)
		respondError(w, r, status, code, "Could not sign media URL", err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"url": url}, start)
}

// MediaContent streams an attachment object, serving repeats from the
// in-memory media cache.
func (h *Handler) MediaContent(w http.ResponseWriter, r *http.Request) {
	objectPath, ok := h.mediaPath(w, r)
	if !ok {
		return
	}
	media := h.deps.Media

	load := func() ([]byte, error) {
		url, err := media.URLs.Resolve(r.Context(), media.Bucket, objectPath)
		if err != nil {
			return nil, err
		}
		return media.fetch(r.Context(), url)
	}

	var (
		data []byte
		err  error
	)
	if media.Bytes != nil {
		data, err = media.Bytes.GetOrLoad(cache.Key(media.Bucket, objectPath), load)
	} else {
		data, err = load()
	}
	if err != nil {
		status, code := backendStatus(err)
		if status == http.StatusInternalServerError {
			status, code = http.StatusBadGateway, codeBackend
		}
		respondError(w, r, status, code, "Could not load media", err)
		return
	}

	w.Header().Set("Content-Type", objectstore.ContentType(strings.ToLower(strings.TrimPrefix(path.Ext(objectPath), "."))))
	w.Header().Set("Cache-Control", "private, max-age=60")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
