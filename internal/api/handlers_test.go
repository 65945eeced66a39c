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
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/cadence/internal/cache"
	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/directory"
	"github.com/tomtom215/cadence/internal/feed"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/models"
	"github.com/tomtom215/cadence/internal/publish"
	"github.com/tomtom215/cadence/internal/queue"
	"github.com/tomtom215/cadence/internal/transport"
	"github.com/tomtom215/cadence/internal/websocket"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "json", Output: io.Discard})
}

func strPtr(s string) *string { return &s }

// envelope decodes an APIResponse with raw data.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

type testAPI struct {
	server  *httptest.Server
	queue   *queue.Queue
	engine  *publish.Engine
	feed    *feed.Store
	dir     *directory.Service
	hub     *websocket.Hub
	history *fakeHistory
}

type fakeHistory struct {
	mu       sync.Mutex
	outcomes []models.FlushOutcome
	lastPost uuid.UUID
	lastLim  int
}

func (f *fakeHistory) FlushHistory(_ context.Context, postID uuid.UUID, limit int) ([]models.FlushOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPost, f.lastLim = postID, limit
	return f.outcomes, nil
}

// newTestAPI builds the full router over real components. backendURL may
// be empty to exercise the unconfigured paths.
func newTestAPI(t *testing.T, mode config.BackendMode, backendURL string) *testAPI {
	t.Helper()

	q, err := queue.New(queue.NewFileStore(filepath.Join(t.TempDir(), "publish_queue.json")))
	if err != nil {
		t.Fatal(err)
	}

	backendCfg := &config.BackendConfig{Mode: mode, BaseURL: backendURL, OwnerUserID: "owner-1"}
	client := transport.NewClient(backendCfg)
	engine := publish.NewEngine(client, q, nil, backendCfg, &config.StorageConfig{Bucket: "attachments"})

	store := feed.NewStore()
	idx, err := directory.NewIndex()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	dir := directory.NewService(client, cache.NewIdentityCache(), idx, store)

	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.RunWithContext(ctx) }()
	t.Cleanup(cancel)

	history := &fakeHistory{}
	h := NewHandler(Deps{
		Queue:     q,
		Engine:    engine,
		Feed:      store,
		Directory: dir,
		Hub:       hub,
		Client:    client,
		History:   history,
	}, NewMiddleware(nil))

	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)

	return &testAPI{server: srv, queue: q, engine: engine, feed: store, dir: dir, hub: hub, history: history}
}

func (a *testAPI) do(t *testing.T, method, path, body string) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode %s %s: %v (%s)", method, path, err, raw)
	}
	return resp, env
}

func checkStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("status = %d, want %d", resp.StatusCode, want)
	}
}

func checkErrorCode(t *testing.T, env envelope, want string) {
	t.Helper()
	if env.Status != "error" || env.Error == nil || env.Error.Code != want {
		t.Fatalf("envelope = %+v, want error code %s", env, want)
	}
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t, config.ModeLocal, "")
	resp, env := a.do(t, http.MethodGet, "/healthz", "")
	checkStatus(t, resp, http.StatusOK)

	var health models.HealthStatus
	if err := json.Unmarshal(env.Data, &health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "healthy" || health.Mode != "local" || health.Breaker != "disabled" {
		t.Errorf("health = %+v", health)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID on response")
	}
}

func TestQueue_EnqueueListDequeue(t *testing.T) {
	a := newTestAPI(t, config.ModeLocal, "")
	id := uuid.New()

	resp, env := a.do(t, http.MethodPost, "/api/v1/queue", `{"id":"`+id.String()+`","title":"Long tones"}`)
	checkStatus(t, resp, http.StatusAccepted)
	var stored models.PublishPayload
	if err := json.Unmarshal(env.Data, &stored); err != nil {
		t.Fatal(err)
	}
	if !stored.Visible() {
		t.Error("payload with metadata should normalize to public")
	}

	// Re-enqueueing a stub must not regress visibility.
	resp, _ = a.do(t, http.MethodPost, "/api/v1/queue", `{"id":"`+id.String()+`"}`)
	checkStatus(t, resp, http.StatusAccepted)

	resp, env = a.do(t, http.MethodGet, "/api/v1/queue", "")
	checkStatus(t, resp, http.StatusOK)
	var items []models.PublishPayload
	if err := json.Unmarshal(env.Data, &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || env.Metadata.Count == nil || *env.Metadata.Count != 1 {
		t.Fatalf("items = %d, count = %v", len(items), env.Metadata.Count)
	}
	if items[0].Title == nil || *items[0].Title != "Long tones" || !items[0].Visible() {
		t.Errorf("merged item = %+v", items[0])
	}

	resp, _ = a.do(t, http.MethodDelete, "/api/v1/queue/"+id.String(), "")
	checkStatus(t, resp, http.StatusOK)
	if a.queue.Len() != 0 {
		t.Error("queue should be empty after delete")
	}

	resp, env = a.do(t, http.MethodDelete, "/api/v1/queue/"+id.String(), "")
	checkStatus(t, resp, http.StatusNotFound)
	checkErrorCode(t, env, codeNotFound)
}

func TestQueue_Validation(t *testing.T) {
	a := newTestAPI(t, config.ModeLocal, "")
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"id":`},
		{"missing id", `{"title":"x"}`},
		{"mood out of range", `{"id":"` + uuid.NewString() + `","mood":11}`},
		{"unknown field", `{"id":"` + uuid.NewString() + `","colour":"red"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := a.do(t, http.MethodPost, "/api/v1/queue", tt.body)
			checkStatus(t, resp, http.StatusBadRequest)
			checkErrorCode(t, env, codeValidation)
		})
	}
	if a.queue.Len() != 0 {
		t.Errorf("invalid payloads were enqueued: %d", a.queue.Len())
	}
}

func TestQueue_DeleteRejectsBadID(t *testing.T) {
	a := newTestAPI(t, config.ModeLocal, "")
	resp, env := a.do(t, http.MethodDelete, "/api/v1/queue/not-a-uuid", "")
	checkStatus(t, resp, http.StatusBadRequest)
	checkErrorCode(t, env, codeValidation)
}

func TestFlush_LocalModeReportsNothing(t *testing.T) {
	a := newTestAPI(t, config.ModeLocal, "")
	if err := a.queue.Enqueue(models.PublishPayload{ID: uuid.New(), Title: strPtr("x")}); err != nil {
		t.Fatal(err)
	}

	resp, env := a.do(t, http.MethodPost, "/api/v1/flush", "")
	checkStatus(t, resp, http.StatusOK)
	var report publish.Report
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatal(err)
	}
	if report.Mode != config.ModeLocal || report.Attempted != 0 {
		t.Errorf("report = %+v", report)
	}
	if a.queue.Len() != 1 {
		t.Error("local flush must keep the queue")
	}
}

func TestFlush_NotConfigured(t *testing.T) {
	a := newTestAPI(t, config.ModeHosted, "")
	resp, env := a.do(t, http.MethodPost, "/api/v1/flush", "")
	checkStatus(t, resp, http.StatusServiceUnavailable)
	checkErrorCode(t, env, codeNotConfigured)
}

func TestFlush_PublishesAndBroadcastsLast(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	t.Cleanup(backend.Close)

	a := newTestAPI(t, config.ModeHosted, backend.URL)
	if err := a.queue.Enqueue(models.PublishPayload{ID: uuid.New(), Title: strPtr("Etude")}); err != nil {
		t.Fatal(err)
	}

	resp, _ := a.do(t, http.MethodGet, "/api/v1/flush/last", "")
	checkStatus(t, resp, http.StatusNotFound)

	resp, env := a.do(t, http.MethodPost, "/api/v1/flush", "")
	checkStatus(t, resp, http.StatusOK)
	var report publish.Report
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatal(err)
	}
	if report.Published != 1 || a.queue.Len() != 0 {
		t.Errorf("report = %+v, queue = %d", report, a.queue.Len())
	}

	resp, env = a.do(t, http.MethodGet, "/api/v1/flush/last", "")
	checkStatus(t, resp, http.StatusOK)
	var last publish.Report
	if err := json.Unmarshal(env.Data, &last); err != nil {
		t.Fatal(err)
	}
	if last.Published != 1 {
		t.Errorf("last report = %+v", last)
	}
}

func TestFlush_ConflictWhileRunning(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			started <- struct{}{}
			<-release
		}
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(backend.Close)

	a := newTestAPI(t, config.ModeHosted, backend.URL)
	if err := a.queue.Enqueue(models.PublishPayload{ID: uuid.New(), Title: strPtr("Slow")}); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = a.engine.FlushNow(context.Background())
	}()
	<-started

	resp, env := a.do(t, http.MethodPost, "/api/v1/flush", "")
	close(release)
	<-done

	checkStatus(t, resp, http.StatusConflict)
	checkErrorCode(t, env, codeConflict)
}

func TestFlushHistory(t *testing.T) {
	a := newTestAPI(t, config.ModeLocal, "")
	postID := uuid.New()
	a.history.outcomes = []models.FlushOutcome{{PostID: postID, Outcome: models.FlushOutcomePublished, At: time.Now()}}

	resp, env := a.do(t, http.MethodGet, "/api/v1/flush/history?post_id="+postID.String()+"&limit=9999", "")
	checkStatus(t, resp, http.StatusOK)
	var outcomes []models.FlushOutcome
	if err := json.Unmarshal(env.Data, &outcomes); err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 1 || outcomes[0].PostID != postID {
		t.Errorf("outcomes = %+v", outcomes)
	}
	if a.history.lastPost != postID || a.history.lastLim != maxHistoryLimit {
		t.Errorf("history called with %s/%d", a.history.lastPost, a.history.lastLim)
	}

	resp, env = a.do(t, http.MethodGet, "/api/v1/flush/history?post_id=nope", "")
	checkStatus(t, resp, http.StatusBadRequest)
	checkErrorCode(t, env, codeValidation)
}

func TestFeed(t *testing.T) {
	a := newTestAPI(t, config.ModeLocal, "")
	a.feed.BeginFetch("owner-1", models.FeedScopeMine, []string{"owner-1"})
	a.feed.EndFetchFailure(errors.New("offline"))

	resp, env := a.do(t, http.MethodGet, "/api/v1/feed", "")
	checkStatus(t, resp, http.StatusOK)
	var view models.FeedView
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatal(err)
	}
	if view.Snapshot.LastError != "offline" || view.Snapshot.OwnerKey != "owner-1" {
		t.Errorf("snapshot = %+v", view.Snapshot)
	}
}

func TestDirectory_ResolveFromCache(t *testing.T) {
	a := newTestAPI(t, config.ModeLocal, "")
	a.dir.Cache().Merge(models.DirectoryIdentity{UserID: "u1", DisplayName: "Ada"})

	resp, env := a.do(t, http.MethodGet, "/api/v1/directory?ids=u1,%20u1", "")
	checkStatus(t, resp, http.StatusOK)
	var accounts map[string]models.DirectoryIdentity
	if err := json.Unmarshal(env.Data, &accounts); err != nil {
		t.Fatal(err)
	}
	if accounts["u1"].DisplayName != "Ada" {
		t.Errorf("accounts = %+v", accounts)
	}

	resp, env = a.do(t, http.MethodGet, "/api/v1/directory?ids=u2", "")
	checkStatus(t, resp, http.StatusServiceUnavailable)
	checkErrorCode(t, env, codeNotConfigured)

	resp, env = a.do(t, http.MethodGet, "/api/v1/directory", "")
	checkStatus(t, resp, http.StatusBadRequest)
	checkErrorCode(t, env, codeValidation)
}

func TestDirectory_SearchFallsBackOffline(t *testing.T) {
	a := newTestAPI(t, config.ModeLocal, "")
	ada := models.DirectoryIdentity{UserID: "u1", DisplayName: "Ada Lovelace", AccountHandle: strPtr("ada")}
	a.dir.Cache().Merge(ada)

	idx, err := directory.NewIndex()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	if err := idx.Put(ada); err != nil {
		t.Fatal(err)
	}
	// Swap in a service whose index holds Ada, sharing the same cache.
	svc := directory.NewService(transport.NewClient(&config.BackendConfig{}), a.dir.Cache(), idx, nil)
	h := NewHandler(Deps{Queue: a.queue, Engine: a.engine, Feed: a.feed, Directory: svc}, nil)
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	a.server = srv

	resp, env := a.do(t, http.MethodGet, "/api/v1/directory/search?q=ada", "")
	checkStatus(t, resp, http.StatusOK)
	if !env.Metadata.Offline {
		t.Error("expected offline fallback flag")
	}
	var rows []models.DirectoryIdentity
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].UserID != "u1" {
		t.Errorf("rows = %+v", rows)
	}

	resp, env = a.do(t, http.MethodGet, "/api/v1/directory/search?q=%20%20", "")
	checkStatus(t, resp, http.StatusOK)
	if env.Metadata.Count == nil || *env.Metadata.Count != 0 || env.Metadata.Offline {
		t.Errorf("blank query metadata = %+v", env.Metadata)
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	a := newTestAPI(t, config.ModeLocal, "")

	resp, env := a.do(t, http.MethodGet, "/api/v1/nothing", "")
	checkStatus(t, resp, http.StatusNotFound)
	checkErrorCode(t, env, codeNotFound)

	resp, env = a.do(t, http.MethodPut, "/api/v1/feed", "")
	checkStatus(t, resp, http.StatusMethodNotAllowed)
	checkErrorCode(t, env, "METHOD_NOT_ALLOWED")
}

func TestSecurityHeadersOnAPI(t *testing.T) {
	a := newTestAPI(t, config.ModeLocal, "")
	resp, _ := a.do(t, http.MethodGet, "/api/v1/feed", "")
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
	if resp.Header.Get("ETag") == "" {
		t.Error("missing ETag")
	}
}

func TestStream_SendsWelcomeSnapshot(t *testing.T) {
	a := newTestAPI(t, config.ModeLocal, "")
	websocket.NewFeedRelay(a.hub, a.feed)
	a.feed.BeginFetch("owner-1", models.FeedScopeAll, nil)

	wsURL := "ws" + strings.TrimPrefix(a.server.URL, "http") + "/api/v1/ws"
	conn, resp, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string              `json:"type"`
		Data models.FeedSnapshot `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != websocket.MessageTypeFeedSnapshot || !msg.Data.IsFetching || msg.Data.Scope != models.FeedScopeAll {
		t.Errorf("welcome = %+v", msg)
	}
}

func TestStream_RejectsForeignOrigin(t *testing.T) {
	a := newTestAPI(t, config.ModeLocal, "")
	wsURL := "ws" + strings.TrimPrefix(a.server.URL, "http") + "/api/v1/ws"

	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	conn, resp, err := gorillaws.DefaultDialer.Dial(wsURL, header)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err == nil {
		conn.Close()
		t.Fatal("expected handshake failure for foreign origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("handshake response = %v", resp)
	}
}
