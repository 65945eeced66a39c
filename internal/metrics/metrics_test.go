// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordTransportRequest_Labels(t *testing.T) {
	before := testutil.ToFloat64(TransportRequestsTotal.WithLabelValues("POST", "409"))
	beforeErr := testutil.ToFloat64(TransportRequestsTotal.WithLabelValues("GET", "transport_error"))

	RecordTransportRequest("POST", 409, 10*time.Millisecond)
	RecordTransportRequest("GET", 0, time.Millisecond)

	if got := testutil.ToFloat64(TransportRequestsTotal.WithLabelValues("POST", "409")) - before; got != 1 {
		t.Errorf("POST 409 delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(TransportRequestsTotal.WithLabelValues("GET", "transport_error")) - beforeErr; got != 1 {
		t.Errorf("transport_error delta = %v, want 1", got)
	}
}

func TestRecordFlush(t *testing.T) {
	published := testutil.ToFloat64(FlushItemsTotal.WithLabelValues("published"))
	failed := testutil.ToFloat64(FlushItemsTotal.WithLabelValues("failed"))

	RecordFlush(time.Second, 3, 1, 2, 0)

	if got := testutil.ToFloat64(FlushItemsTotal.WithLabelValues("published")) - published; got != 3 {
		t.Errorf("published delta = %v, want 3", got)
	}
	if got := testutil.ToFloat64(FlushItemsTotal.WithLabelValues("failed")) - failed; got != 2 {
		t.Errorf("failed delta = %v, want 2", got)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(CacheHits.WithLabelValues("media"))
	misses := testutil.ToFloat64(CacheMisses.WithLabelValues("media"))

	RecordCacheLookup("media", true)
	RecordCacheLookup("media", false)
	RecordCacheLookup("media", false)

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("media")) - hits; got != 1 {
		t.Errorf("hits delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("media")) - misses; got != 2 {
		t.Errorf("misses delta = %v, want 2", got)
	}
}
