// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
)

// Feed subscribers only send pings, so inbound frames stay tiny.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4 << 10
	sendBuffer     = 32
)

var clientIDCounter atomic.Uint64

// Client is one feed subscriber. The hub owns send and closes it on
// unregister; the write loop turns that into a close frame.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient assigns an increasing ID so broadcasts reach clients in
// connection order.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, sendBuffer),
	}
}

func (c *Client) ID() uint64 { return c.id }

// Start runs the read and write loops until the connection drops.
func (c *Client) Start() {
	go c.writeLoop()
	go c.readLoop()
}

func (c *Client) extendRead() error {
	return c.conn.SetReadDeadline(time.Now().Add(pongWait))
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error { return c.extendRead() })
	if err := c.extendRead(); err != nil {
		logging.Error().Err(err).Uint64("client_id", c.id).Msg("Websocket read deadline")
		return
	}

	for {
		var in Message
		if err := c.conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).Uint64("client_id", c.id).Msg("Feed subscriber dropped")
			}
			return
		}
		if in.Type != MessageTypePing {
			continue
		}
		select {
		case c.send <- Message{Type: MessageTypePong}:
		default: // queue full; the next broadcast decides whether to drop us
		}
	}
}

// frame writes one control or data frame under a fresh write deadline.
func (c *Client) frame(write func() error) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return write()
}

func (c *Client) writeLoop() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, open := <-c.send:
			if !open {
				_ = c.frame(func() error { return c.conn.WriteMessage(websocket.CloseMessage, nil) })
				return
			}
			if err := c.frame(func() error { return c.conn.WriteJSON(msg) }); err != nil {
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("Feed write failed")
				return
			}
			metrics.WSMessagesSent.Inc()

		case <-ping.C:
			if err := c.frame(func() error { return c.conn.WriteMessage(websocket.PingMessage, nil) }); err != nil {
				return
			}
		}
	}
}
