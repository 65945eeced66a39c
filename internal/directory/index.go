// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package directory

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/tomtom215/cadence/internal/models"
)

// defaultSearchLimit bounds offline search results.
const defaultSearchLimit = 25

// Index is an in-memory full-text index of known identities, used to answer
// directory searches while the backend is unreachable.
type Index struct {
	index bleve.Index
}

// indexedIdentity is the document stored per user.
type indexedIdentity struct {
	UserID      string
	DisplayName string
	Handle      string
	Location    string
}

// NewIndex creates an empty in-memory index.
func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create directory index: %w", err)
	}
	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	idField := bleve.NewTextFieldMapping()
	idField.Analyzer = "keyword"
	idField.IncludeInAll = false
	docMapping.AddFieldMappingsAt("UserID", idField)

	docMapping.AddFieldMappingsAt("DisplayName", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Handle", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Location", bleve.NewTextFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

// Put adds or replaces the document for identity.
func (i *Index) Put(identity models.DirectoryIdentity) error {
	doc := indexedIdentity{
		UserID:      identity.UserID,
		DisplayName: identity.DisplayName,
	}
	if identity.AccountHandle != nil {
		doc.Handle = *identity.AccountHandle
	}
	if identity.Location != nil {
		doc.Location = *identity.Location
	}
	return i.index.Index(identity.UserID, doc)
}

// Search returns matching user IDs ordered by score. The query matches whole
// words in any field and word prefixes in the name and handle.
func (i *Index) Search(q string, limit int) ([]string, error) {
	q = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(q), "@"))
	if q == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	lower := strings.ToLower(q)
	namePrefix := bleve.NewPrefixQuery(lower)
	namePrefix.SetField("DisplayName")
	handlePrefix := bleve.NewPrefixQuery(lower)
	handlePrefix.SetField("Handle")

	query := bleve.NewDisjunctionQuery(bleve.NewMatchQuery(q), namePrefix, handlePrefix)
	req := bleve.NewSearchRequestOptions(query, limit, 0, false)

	results, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search directory index: %w", err)
	}

	ids := make([]string, 0, len(results.Hits))
	for _, hit := range results.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Count returns the number of indexed identities.
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}

// Close releases the index.
func (i *Index) Close() error {
	return i.index.Close()
}
