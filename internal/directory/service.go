// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package directory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tomtom215/cadence/internal/cache"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/models"
	"github.com/tomtom215/cadence/internal/transport"
	"github.com/tomtom215/cadence/internal/validation"
)

// Backend paths.
const (
	pathResolveRPC = "/rest/v1/rpc/get_account_directory_by_user_ids"
	pathSearchRPC  = "/rest/v1/rpc/search_account_directory"
	pathDirectory  = "/rest/v1/account_directory"
)

// IdentityConsumer is notified with every batch of merged identities so
// already-rendered content can pick up name and avatar changes.
// ReplaceDirectoryAccount carries a record the backend just confirmed, which
// may clear fields a merge would keep.
type IdentityConsumer interface {
	MergeDirectoryAccounts(accounts map[string]models.DirectoryIdentity)
	ReplaceDirectoryAccount(identity models.DirectoryIdentity)
}

// Service resolves and updates directory identities.
type Service struct {
	client   *transport.Client
	cache    *cache.IdentityCache
	index    *Index
	consumer IdentityConsumer
}

// NewService creates a directory service. index and consumer may be nil.
func NewService(client *transport.Client, identities *cache.IdentityCache, index *Index, consumer IdentityConsumer) *Service {
	return &Service{
		client:   client,
		cache:    identities,
		index:    index,
		consumer: consumer,
	}
}

// SetConsumer replaces the identity consumer.
func (s *Service) SetConsumer(consumer IdentityConsumer) {
	s.consumer = consumer
}

// Cache returns the identity cache backing the service.
func (s *Service) Cache() *cache.IdentityCache {
	return s.cache
}

type resolveRequest struct {
	UserIDs []string `json:"user_ids"`
}

type searchRequest struct {
	Q string `json:"q"`
}

// ResolveAccounts returns identities for userIDs.
//
// IDs are deduplicated preserving first occurrence. Cached identities are
// served locally unless forceRefresh is set, in which case every requested
// ID is fetched. Missing IDs are fetched in one batch; a decode failure
// fails the whole call. The result also carries any cached identity the
// backend did not return.
func (s *Service) ResolveAccounts(ctx context.Context, userIDs []string, forceRefresh bool) (map[string]models.DirectoryIdentity, error) {
	ids := dedupe(userIDs)
	if len(ids) == 0 {
		return map[string]models.DirectoryIdentity{}, nil
	}

	missing := ids
	if !forceRefresh {
		cached := s.cache.GetMany(ids)
		missing = make([]string, 0, len(ids)-len(cached))
		for _, id := range ids {
			if _, ok := cached[id]; !ok {
				missing = append(missing, id)
			}
		}
		metrics.DirectoryLookups.WithLabelValues("cache").Add(float64(len(cached)))
	}

	if len(missing) > 0 {
		rows, err := transport.DoJSON[[]models.DirectoryIdentity](ctx, s.client, transport.Request{
			Method: http.MethodPost,
			Path:   pathResolveRPC,
		}, resolveRequest{UserIDs: missing})
		if err != nil {
			return nil, fmt.Errorf("resolve %d accounts: %w", len(missing), err)
		}
		metrics.DirectoryLookups.WithLabelValues("backend").Add(float64(len(rows)))
		s.absorb(ctx, rows)
	}

	return s.cache.GetMany(ids), nil
}

// Search runs an explicit directory query against the backend.
// A blank query returns no results without a network call.
func (s *Service) Search(ctx context.Context, q string) ([]models.DirectoryIdentity, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.DirectoryIdentity{}, nil
	}

	rows, err := transport.DoJSON[[]models.DirectoryIdentity](ctx, s.client, transport.Request{
		Method: http.MethodPost,
		Path:   pathSearchRPC,
	}, searchRequest{Q: q})
	if err != nil {
		return nil, fmt.Errorf("search directory: %w", err)
	}
	s.absorb(ctx, rows)
	return rows, nil
}

// SearchLocal answers a query from the offline index.
func (s *Service) SearchLocal(q string) ([]models.DirectoryIdentity, error) {
	if s.index == nil {
		return []models.DirectoryIdentity{}, nil
	}
	ids, err := s.index.Search(q, defaultSearchLimit)
	if err != nil {
		return nil, err
	}
	out := make([]models.DirectoryIdentity, 0, len(ids))
	for _, id := range ids {
		if identity, ok := s.cache.Get(id); ok {
			out = append(out, identity)
		}
	}
	return out, nil
}

// SearchWithFallback queries the backend and falls back to the offline
// index when the backend is unreachable or not configured. The second
// return value reports whether the results came from the local index.
func (s *Service) SearchWithFallback(ctx context.Context, q string) ([]models.DirectoryIdentity, bool, error) {
	rows, err := s.Search(ctx, q)
	if err == nil {
		return rows, false, nil
	}
	if s.index == nil || (!transport.IsTransport(err) && !errors.Is(err, transport.ErrNotConfigured)) {
		return nil, false, err
	}

	logging.Ctx(ctx).Debug().Err(err).Msg("Directory search falling back to offline index")
	local, localErr := s.SearchLocal(q)
	if localErr != nil {
		return nil, false, localErr
	}
	return local, true, nil
}

// upsertRequest is the account_directory row written by UpsertSelf.
// AccountHandle is always sent so an invalid handle clears the column.
type upsertRequest struct {
	UserID        string  `json:"user_id" validate:"required"`
	DisplayName   string  `json:"display_name" validate:"max=100"`
	AccountHandle *string `json:"account_id" validate:"omitempty,account_handle"`
	LookupEnabled bool    `json:"lookup_enabled"`
	Location      *string `json:"location,omitempty" validate:"omitempty,max=100"`
}

// UpsertSelf writes the caller's own directory row.
//
// The handle is sanitized and sent as null when it does not survive
// sanitization. A blank location is omitted, so the backend keeps the
// stored one. On success the cached record takes exactly what the backend
// now holds: the sent name and handle, the sent or retained location, and
// the avatar key already known.
func (s *Service) UpsertSelf(ctx context.Context, userID, displayName string, accountHandle *string, lookupEnabled bool, location *string) error {
	req := upsertRequest{
		UserID:        strings.TrimSpace(userID),
		DisplayName:   strings.TrimSpace(displayName),
		AccountHandle: validation.SanitizeHandle(accountHandle),
		LookupEnabled: lookupEnabled,
		Location:      validation.SanitizeLocation(location),
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		return fmt.Errorf("upsert directory entry: %w", verr)
	}

	_, err := s.client.SendJSON(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    pathDirectory,
		Query:   url.Values{"on_conflict": {"user_id"}},
		Headers: map[string]string{"Prefer": "resolution=merge-duplicates,return=minimal"},
	}, req)
	if err != nil {
		return fmt.Errorf("upsert directory entry: %w", err)
	}

	written := s.cache.Update(req.UserID, func(prev models.DirectoryIdentity) models.DirectoryIdentity {
		next := models.DirectoryIdentity{
			DisplayName:   req.DisplayName,
			AccountHandle: req.AccountHandle,
			Location:      prev.Location,
			AvatarKey:     prev.AvatarKey,
		}
		if req.Location != nil {
			next.Location = req.Location
		}
		return next
	})
	s.indexAll(ctx, map[string]models.DirectoryIdentity{written.UserID: written})
	if s.consumer != nil {
		s.consumer.ReplaceDirectoryAccount(written)
	}
	return nil
}

type avatarPatch struct {
	AvatarKey *string `json:"avatar_key"`
}

// UpdateSelfAvatarKey patches only the avatar key. The cache is updated only
// when it already holds an entry for userID.
func (s *Service) UpdateSelfAvatarKey(ctx context.Context, userID string, avatarKey *string) error {
	_, err := s.client.SendJSON(ctx, transport.Request{
		Method:  http.MethodPatch,
		Path:    pathDirectory,
		Query:   url.Values{"user_id": {"eq." + userID}},
		Headers: map[string]string{"Prefer": "return=minimal"},
	}, avatarPatch{AvatarKey: avatarKey})
	if err != nil {
		return fmt.Errorf("update avatar key: %w", err)
	}

	merged, ok := s.cache.MergeIfPresent(models.DirectoryIdentity{UserID: userID, AvatarKey: avatarKey})
	if ok && s.consumer != nil {
		s.consumer.MergeDirectoryAccounts(map[string]models.DirectoryIdentity{userID: merged})
	}
	return nil
}

// DisplayName returns a display label for userID, degrading to the ID itself.
func (s *Service) DisplayName(userID string) string {
	if identity, ok := s.cache.Get(userID); ok {
		return identity.Label()
	}
	return userID
}

// absorb merges rows into the cache and index, then notifies the consumer.
func (s *Service) absorb(ctx context.Context, rows []models.DirectoryIdentity) {
	if len(rows) == 0 {
		return
	}
	s.publish(ctx, s.cache.MergeAll(rows))
}

// publish indexes identities already merged into the cache and hands them
// to the consumer.
func (s *Service) publish(ctx context.Context, merged map[string]models.DirectoryIdentity) {
	s.indexAll(ctx, merged)
	if s.consumer != nil && len(merged) > 0 {
		s.consumer.MergeDirectoryAccounts(merged)
	}
}

func (s *Service) indexAll(ctx context.Context, identities map[string]models.DirectoryIdentity) {
	if s.index == nil {
		return
	}
	for _, identity := range identities {
		if err := s.index.Put(identity); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("user_id", identity.UserID).Msg("Failed to index directory identity")
		}
	}
}

// dedupe drops blanks and repeats, keeping first-occurrence order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
