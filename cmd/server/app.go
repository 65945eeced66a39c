// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/cadence/internal/api"
	"github.com/tomtom215/cadence/internal/cache"
	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/database"
	"github.com/tomtom215/cadence/internal/directory"
	"github.com/tomtom215/cadence/internal/feed"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/objectstore"
	"github.com/tomtom215/cadence/internal/publish"
	"github.com/tomtom215/cadence/internal/queue"
	"github.com/tomtom215/cadence/internal/supervisor"
	"github.com/tomtom215/cadence/internal/supervisor/services"
	"github.com/tomtom215/cadence/internal/transport"
	ws "github.com/tomtom215/cadence/internal/websocket"
)

// app holds every long-lived component. closers run in reverse order.
type app struct {
	cfg *config.Config

	client    *transport.Client
	objects   objectstore.Store
	queue     *queue.Queue
	engine    *publish.Engine
	feed      *feed.Store
	fetcher   *feed.Fetcher
	directory *directory.Service
	library   *database.DB
	hub       *ws.Hub
	relay     *ws.FeedRelay
	handler   http.Handler

	closers []func() error
}

// newApp builds the component graph from cfg. On error everything opened so
// far is closed.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}
	if err := a.init(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context) error {
	cfg := a.cfg
	var err error

	a.client = transport.NewClient(&cfg.Backend)

	a.objects, err = objectstore.New(ctx, &cfg.Storage, a.client)
	if err != nil {
		return fmt.Errorf("object store: %w", err)
	}
	a.addCloser(a.objects)

	store, err := queue.OpenStore(&cfg.Queue)
	if err != nil {
		return fmt.Errorf("queue store: %w", err)
	}
	a.addCloser(store)

	a.queue, err = queue.New(store)
	if err != nil {
		return fmt.Errorf("load queue: %w", err)
	}

	a.feed = feed.NewStore()

	var index *directory.Index
	if cfg.Directory.IndexEnabled {
		index, err = directory.NewIndex()
		if err != nil {
			return fmt.Errorf("directory index: %w", err)
		}
		a.addCloser(index)
	}
	a.directory = directory.NewService(a.client, cache.NewIdentityCache(), index, a.feed)
	a.fetcher = feed.NewFetcher(a.client, a.feed, a.directory)

	a.engine = publish.NewEngine(a.client, a.queue, a.objects, &cfg.Backend, &cfg.Storage)
	a.engine.SetErrorRecorder(a.feed)

	if cfg.Library.Enabled {
		a.library, err = database.New(&cfg.Library)
		if err != nil {
			return fmt.Errorf("library: %w", err)
		}
		a.addCloser(a.library)
		a.engine.SetAttachmentSource(a.library)
		a.engine.SetHistorySink(a.library)
	}

	a.hub = ws.NewHub()
	a.relay = ws.NewFeedRelay(a.hub, a.feed)
	a.engine.SetReportListener(func(r publish.Report) {
		a.hub.BroadcastJSON(ws.MessageTypeFlushCompleted, r)
	})

	deps := api.Deps{
		Queue:     a.queue,
		Engine:    a.engine,
		Feed:      a.feed,
		Directory: a.directory,
		Hub:       a.hub,
		Client:    a.client,
		Media: &api.Media{
			URLs:   cache.NewSignedURLs(cache.NewSignedURLCache(nil), a.objects, cfg.Storage.SignedURLTTL),
			Bytes:  cache.NewMediaCache(cfg.Storage.MediaCacheSize),
			Bucket: cfg.Storage.Bucket,
		},
	}
	if a.library != nil {
		deps.History = a.library
	}
	mw := api.NewMiddleware(api.MiddlewareConfigFrom(&cfg.API))
	a.handler = api.NewRouter(api.NewHandler(deps, mw))

	logging.Info().
		Str("mode", string(cfg.Backend.Mode)).
		Str("storage", a.objects.Provider()).
		Str("queue_store", cfg.Queue.Store).
		Int("queued", a.queue.Len()).
		Bool("library", a.library != nil).
		Bool("directory_index", index != nil).
		Msg("Components initialized")

	return nil
}

// addCloser registers c if it implements io.Closer.
func (a *app) addCloser(c any) {
	if closer, ok := c.(io.Closer); ok {
		a.closers = append(a.closers, closer.Close)
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logging.Error().Err(err).Msg("Error closing component")
		}
	}
	a.closers = nil
}

// httpServer returns the status API server.
func (a *app) httpServer() *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(a.cfg.API.Host, strconv.Itoa(a.cfg.API.Port)),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// buildTree adds the services the configuration enables.
func (a *app) buildTree(logger *slog.Logger) (*supervisor.SupervisorTree, error) {
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.TreeConfig{
		ShutdownTimeout: a.cfg.API.ShutdownTimeout,
	})
	if err != nil {
		return nil, err
	}

	if a.cfg.Backend.Mode.NetworkEnabled() {
		tree.AddPublishService(services.NewFlushService(a.engine, a.cfg.Flush))
		tree.AddPublishService(services.NewFeedRefreshService(a.fetcher, a.cfg.Backend.OwnerUserID, a.cfg.Feed))
	} else {
		logging.Info().Msg("Local mode: flush and feed refresh disabled")
	}

	if a.cfg.API.Enabled {
		server := a.httpServer()
		tree.AddStreamService(services.NewFeedStreamService(a.hub, a.relay))
		tree.AddAPIService(services.NewHTTPServerService(server, a.cfg.API.ShutdownTimeout))
		logging.Info().Str("addr", server.Addr).Msg("Status API enabled")
	}
	return tree, nil
}

// run serves the tree until ctx ends and reports services that missed the
// shutdown deadline.
func run(ctx context.Context, tree *supervisor.SupervisorTree) error {
	var runErr error
	if err := <-tree.ServeBackground(ctx); err != nil &&
		!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		runErr = err
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return runErr
}
