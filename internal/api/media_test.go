// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/cache"
	"github.com/tomtom215/cadence/internal/transport"
)

type countingSigner struct {
	calls atomic.Int32
	mu    sync.Mutex
	err   error
}

func (s *countingSigner) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *countingSigner) SignURL(_ context.Context, bucket, path string, _ time.Duration) (string, error) {
	s.calls.Add(1)
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	return "https://objects.example/" + bucket + "/" + path + "?sig=1", nil
}

type mediaFixture struct {
	server  *httptest.Server
	signer  *countingSigner
	fetches atomic.Int32
	fetched atomic.Value
}

func newMediaFixture(t *testing.T, media bool) *mediaFixture {
	t.Helper()
	f := &mediaFixture{signer: &countingSigner{}}

	deps := Deps{}
	if media {
		deps.Media = &Media{
			URLs:   cache.NewSignedURLs(cache.NewSignedURLCache(nil), f.signer, time.Hour),
			Bytes:  cache.NewMediaCache(8),
			Bucket: "attachments",
			Fetch: func(_ context.Context, url string) ([]byte, error) {
				f.fetches.Add(1)
				f.fetched.Store(url)
				return []byte("image-bytes"), nil
			},
		}
	}
	f.server = httptest.NewServer(NewRouter(NewHandler(deps, nil)))
	t.Cleanup(f.server.Close)
	return f
}

func (f *mediaFixture) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(f.server.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, body
}

func TestMediaURL_SignsOnceAndCaches(t *testing.T) {
	f := newMediaFixture(t, true)

	for i := 0; i < 2; i++ {
		resp, body := f.get(t, "/api/v1/media/url?path=sessions/s1/photo.jpg")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d (%s)", resp.StatusCode, body)
		}
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			t.Fatal(err)
		}
		var data map[string]string
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatal(err)
		}
		if want := "https://objects.example/attachments/sessions/s1/photo.jpg?sig=1"; data["url"] != want {
			t.Errorf("url = %q, want %q", data["url"], want)
		}
	}
	if got := f.signer.calls.Load(); got != 1 {
		t.Errorf("signer calls = %d, want 1", got)
	}
}

func TestMediaContent_ServesFromCache(t *testing.T) {
	f := newMediaFixture(t, true)

	for i := 0; i < 3; i++ {
		resp, body := f.get(t, "/api/v1/media?path=/sessions/s1/photo.JPG")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d (%s)", resp.StatusCode, body)
		}
		if string(body) != "image-bytes" {
			t.Errorf("body = %q", body)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("Content-Type = %q, want image/jpeg", ct)
		}
	}
	if got := f.fetches.Load(); got != 1 {
		t.Errorf("fetches = %d, want 1", got)
	}
	if url, _ := f.fetched.Load().(string); url != "https://objects.example/attachments/sessions/s1/photo.JPG?sig=1" {
		t.Errorf("fetched %q", url)
	}
}

func TestMedia_Validation(t *testing.T) {
	f := newMediaFixture(t, true)

	tests := []struct {
		name string
		path string
	}{
		{"missing path", "/api/v1/media/url"},
		{"parent traversal", "/api/v1/media/url?path=sessions/../secrets"},
		{"content traversal", "/api/v1/media?path=../x.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.get(t, tt.path)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (%s)", resp.StatusCode, body)
			}
		})
	}
	if f.signer.calls.Load() != 0 {
		t.Error("signer called for an invalid path")
	}
}

func TestMedia_Disabled(t *testing.T) {
	f := newMediaFixture(t, false)

	resp, body := f.get(t, "/api/v1/media/url?path=a.png")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 (%s)", resp.StatusCode, body)
	}
}

func TestMedia_SignerErrors(t *testing.T) {
	f := newMediaFixture(t, true)

	f.signer.fail(transport.ErrNotConfigured)
	resp, _ := f.get(t, "/api/v1/media/url?path=a.png")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("not configured status = %d, want 503", resp.StatusCode)
	}

	f.signer.fail(errors.New("signing failed"))
	resp, _ = f.get(t, "/api/v1/media?path=b.png")
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("content status = %d, want 502", resp.StatusCode)
	}
	if f.fetches.Load() != 0 {
		t.Error("fetch ran after signing failed")
	}
}
