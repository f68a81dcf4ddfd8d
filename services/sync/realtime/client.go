// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package realtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/teamsync-labs/teamsync/services/sync/observability"
)

const (
	// writeWait is the deadline for a single outbound frame.
	writeWait = 10 * time.Second

	// pongWait is how long a connection may stay silent before the read
	// loop gives up on it.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound signal frames. Presence signals are
	// tiny; anything larger is a misbehaving client.
	maxMessageSize = 16 * 1024

	// sendQueueSize is the per-connection outbound buffer. A client that
	// cannot drain this fast enough starts losing messages (best-effort
	// delivery, never retried).
	sendQueueSize = 256
)

// Per-client inbound signal budget. Presence and room signals are bursty
// right after a page load, then sparse.
const (
	signalRate  = rate.Limit(20)
	signalBurst = 60
)

// Client is one live websocket connection known to the registry. It carries
// an optional bound user id and an outbound send queue drained by WritePump.
type Client struct {
	// ID is the opaque connection id, assigned at connect.
	ID string

	conn    *websocket.Conn
	send    chan Envelope
	limiter *rate.Limiter
	log     *slog.Logger

	mu     sync.Mutex
	userID string
	closed bool
}

func newClient(id string, conn *websocket.Conn, log *slog.Logger) *Client {
	return &Client{
		ID:      id,
		conn:    conn,
		send:    make(chan Envelope, sendQueueSize),
		limiter: rate.NewLimiter(signalRate, signalBurst),
		log:     log,
	}
}

// UserID returns the currently bound user id, or "" when anonymous.
func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// bindUser attaches a user id to the connection for disconnect cleanup.
// A repeated online signal rebinds to the latest id; the presence tracker
// keeps the map consistent either way.
func (c *Client) bindUser(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
}

// deliver enqueues an envelope without blocking. A full queue or a closed
// client drops the message silently: delivery is best-effort and a gone
// connection is not an error.
func (c *Client) deliver(env Envelope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- env:
		return true
	default:
		return false
	}
}

// close marks the client dead and releases the write pump. Idempotent.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// WritePump drains the send queue onto the wire and keeps the connection
// alive with pings. Run it in its own goroutine; it exits when the client is
// closed or a write fails.
func (c *Client) WritePump() {
	if c.conn == nil {
		return
	}
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case env, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				c.log.Debug("websocket write failed", "connId", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump feeds inbound signal frames to handle until the connection drops.
// It applies the per-client rate limit before dispatch.
func (c *Client) ReadPump(handle func(InboundEnvelope)) {
	if c.conn == nil {
		return
	}
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		var env InboundEnvelope
		if err := c.conn.ReadJSON(&env); err != nil {
			c.log.Info("websocket client disconnected", "connId", c.ID, "error", err.Error())
			return
		}
		if !c.limiter.Allow() {
			c.log.Warn("client signal rate limit exceeded", "connId", c.ID, "event", env.Event)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordSignalDropped(observability.DropRateLimited)
			}
			continue
		}
		handle(env)
	}
}
