// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package feed

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/models"
	"github.com/tomtom215/cadence/internal/transport"
)

const pathPosts = "/rest/v1/posts"

// ErrNoOwner is returned by FetchMine without an owner.
var ErrNoOwner = errors.New("owner user id is required")

// AuthorResolver resolves post authors to directory identities.
type AuthorResolver interface {
	ResolveAccounts(ctx context.Context, userIDs []string, forceRefresh bool) (map[string]models.DirectoryIdentity, error)
}

// Fetcher loads posts from the backend into a Store.
type Fetcher struct {
	client   *transport.Client
	store    *Store
	resolver AuthorResolver
}

// NewFetcher creates a fetcher. resolver may be nil.
func NewFetcher(client *transport.Client, store *Store, resolver AuthorResolver) *Fetcher {
	return &Fetcher{client: client, store: store, resolver: resolver}
}

// FetchMine loads the posts owned by owner, newest first.
func (f *Fetcher) FetchMine(ctx context.Context, owner string) ([]models.PostRow, error) {
	if owner == "" {
		return nil, ErrNoOwner
	}
	query := url.Values{
		"select":        {"*"},
		"owner_user_id": {"eq." + owner},
		"order":         {"created_at.desc"},
	}
	return f.fetch(ctx, owner, models.FeedScopeMine, []string{owner}, query)
}

// FetchAll loads every post visible to the caller, newest first. owner is
// used only to count the caller's own rows and may be empty.
func (f *Fetcher) FetchAll(ctx context.Context, owner string) ([]models.PostRow, error) {
	query := url.Values{
		"select": {"*"},
		"order":  {"created_at.desc"},
	}
	return f.fetch(ctx, owner, models.FeedScopeAll, nil, query)
}

func (f *Fetcher) fetch(ctx context.Context, owner string, scope models.FeedScope, targets []string, query url.Values) ([]models.PostRow, error) {
	f.store.BeginFetch(owner, scope, targets)

	rows, err := transport.DoJSON[[]models.PostRow](ctx, f.client, transport.Request{
		Method: http.MethodGet,
		Path:   pathPosts,
		Query:  query,
	}, nil)
	if err != nil {
		metrics.FeedFetches.WithLabelValues(string(scope), "failure").Inc()
		f.store.EndFetchFailure(err)
		logging.Ctx(ctx).Warn().Err(err).Str("scope", string(scope)).Msg("Feed fetch failed")
		return nil, err
	}

	mine, visible := partition(rows, owner, scope)
	f.store.EndFetchSuccess(rows, mine, visible)
	metrics.FeedFetches.WithLabelValues(string(scope), "success").Inc()

	f.resolveAuthors(ctx, visible)
	return visible, nil
}

// partition splits rows into the caller's own rows and the rows the caller
// may see. The backend filters already; this guards against a misconfigured
// row-level policy leaking other users' private posts.
func partition(rows []models.PostRow, owner string, scope models.FeedScope) (mine, visible []models.PostRow) {
	mine = make([]models.PostRow, 0, len(rows))
	visible = make([]models.PostRow, 0, len(rows))
	for _, row := range rows {
		own := owner != "" && row.OwnerUserID == owner
		if own {
			mine = append(mine, row)
		}
		switch scope {
		case models.FeedScopeMine:
			if own {
				visible = append(visible, row)
			}
		default:
			if own || row.IsPublic {
				visible = append(visible, row)
			}
		}
	}
	return mine, visible
}

func (f *Fetcher) resolveAuthors(ctx context.Context, rows []models.PostRow) {
	if f.resolver == nil || len(rows) == 0 {
		return
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.OwnerUserID)
	}
	authors, err := f.resolver.ResolveAccounts(ctx, ids, false)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Author resolution failed, names degrade to ids")
		return
	}
	f.store.MergeDirectoryAccounts(authors)
}
