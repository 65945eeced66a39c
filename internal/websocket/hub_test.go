// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package websocket

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// startHub runs a hub until the test ends.
func startHub(t *testing.T) (*Hub, <-chan error) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()
	t.Cleanup(cancel)
	return hub, done
}

func newTestClient(hub *Hub) *Client {
	return &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, sendBuffer)}
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		if !ok {
			t.Fatal("client channel closed")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.GetClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.GetClientCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub, _ := startHub(t)
	a, b := newTestClient(hub), newTestClient(hub)
	hub.Register <- a
	hub.Register <- b
	waitForClients(t, hub, 2)

	hub.BroadcastFeedSnapshot(models.FeedSnapshot{RawCount: 3})

	for _, c := range []*Client{a, b} {
		msg := receive(t, c)
		if msg.Type != MessageTypeFeedSnapshot {
			t.Fatalf("type = %q, want %q", msg.Type, MessageTypeFeedSnapshot)
		}
		snap, ok := msg.Data.(models.FeedSnapshot)
		if !ok || snap.RawCount != 3 {
			t.Errorf("data = %#v, want snapshot with raw_count 3", msg.Data)
		}
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub, _ := startHub(t)
	c := newTestClient(hub)
	hub.Register <- c
	waitForClients(t, hub, 1)

	hub.Unregister <- c
	waitForClients(t, hub, 0)

	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed after unregister")
	}

	// Unregistering an unknown client must not panic.
	hub.Unregister <- newTestClient(hub)
	waitForClients(t, hub, 0)
}

func TestHub_WelcomeMessage(t *testing.T) {
	hub, _ := startHub(t)
	hub.SetWelcome(func() (Message, bool) {
		return Message{Type: MessageTypeFeedSnapshot, Data: models.FeedSnapshot{MineCount: 7}}, true
	})

	c := newTestClient(hub)
	hub.Register <- c

	msg := receive(t, c)
	if snap, _ := msg.Data.(models.FeedSnapshot); snap.MineCount != 7 {
		t.Errorf("welcome data = %#v, want mine_count 7", msg.Data)
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub, _ := startHub(t)
	slow := &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message)}
	hub.Register <- slow
	waitForClients(t, hub, 1)

	hub.BroadcastJSON(MessageTypeFlushCompleted, nil)
	waitForClients(t, hub, 0)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()

	c := newTestClient(hub)
	hub.Register <- c
	waitForClients(t, hub, 1)

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	if hub.GetClientCount() != 0 {
		t.Errorf("clients after shutdown = %d", hub.GetClientCount())
	}
	if _, ok := <-c.send; ok {
		t.Error("client channel should be closed on shutdown")
	}
}

func TestHub_BroadcastJSONNeverBlocks(t *testing.T) {
	hub := NewHub() // not running

	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer*2; i++ {
			hub.BroadcastJSON(MessageTypeFlushCompleted, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("BroadcastJSON blocked on a full buffer")
	}
}

func TestGetShutdownReason(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if got := getShutdownReason(canceled); got != ShutdownReasonContextCanceled {
		t.Errorf("canceled reason = %q", got)
	}

	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()
	if got := getShutdownReason(expired); got != ShutdownReasonContextDeadline {
		t.Errorf("deadline reason = %q", got)
	}
}

func TestMarshalMessage(t *testing.T) {
	data, err := MarshalMessage(Message{Type: MessageTypePong})
	if err != nil {
		t.Fatalf("MarshalMessage() error = %v", err)
	}
	if string(data) != `{"type":"pong","data":null}` {
		t.Errorf("MarshalMessage() = %s", data)
	}
}

type fakeSource struct {
	mu   sync.Mutex
	ch   chan models.FeedSnapshot
	snap models.FeedSnapshot
	gone bool
}

func (f *fakeSource) Subscribe() (<-chan models.FeedSnapshot, func()) {
	return f.ch, func() {
		f.mu.Lock()
		f.gone = true
		f.mu.Unlock()
	}
}

func (f *fakeSource) Snapshot() models.FeedSnapshot { return f.snap }

func TestFeedRelay_ForwardsSnapshots(t *testing.T) {
	hub, _ := startHub(t)
	src := &fakeSource{ch: make(chan models.FeedSnapshot, 1), snap: models.FeedSnapshot{AllCount: 1}}
	relay := NewFeedRelay(hub, src)

	ctx, cancel := context.WithCancel(context.Background())
	relayDone := make(chan error, 1)
	go func() { relayDone <- relay.Serve(ctx) }()

	c := newTestClient(hub)
	hub.Register <- c
	if snap, _ := receive(t, c).Data.(models.FeedSnapshot); snap.AllCount != 1 {
		t.Fatalf("welcome snapshot all_count = %d, want 1", snap.AllCount)
	}

	src.ch <- models.FeedSnapshot{AllCount: 2}
	if snap, _ := receive(t, c).Data.(models.FeedSnapshot); snap.AllCount != 2 {
		t.Errorf("relayed snapshot all_count = %d, want 2", snap.AllCount)
	}

	cancel()
	if err := <-relayDone; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	if !src.gone {
		t.Error("relay should cancel its subscription on exit")
	}
}

func TestFeedRelay_StopsWhenSourceCloses(t *testing.T) {
	hub := NewHub()
	src := &fakeSource{ch: make(chan models.FeedSnapshot)}
	close(src.ch)

	if err := NewFeedRelay(hub, src).Serve(context.Background()); err != nil {
		t.Errorf("Serve() = %v, want nil", err)
	}
}
