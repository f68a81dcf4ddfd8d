// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package realtime

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Core wires the hub, presence tracker, and viewer tracker together and owns
// the connection lifecycle. It is an injected service with an explicit
// lifecycle: constructed in main, Shutdown at exit, a fresh instance per
// test. There is no package-level state.
type Core struct {
	log      *slog.Logger
	hub      *Hub
	presence *Presence
	viewers  *Viewers
}

// NewCore returns a core with empty registries.
func NewCore(log *slog.Logger) *Core {
	if log == nil {
		log = slog.Default()
	}
	hub := NewHub(log)
	return &Core{
		log:      log,
		hub:      hub,
		presence: NewPresence(hub),
		viewers:  NewViewers(hub),
	}
}

// Hub exposes the room multiplexer.
func (core *Core) Hub() *Hub { return core.hub }

// Presence exposes the online-user tracker.
func (core *Core) Presence() *Presence { return core.presence }

// Viewers exposes the issue-viewer tracker.
func (core *Core) Viewers() *Viewers { return core.viewers }

// Connect registers a new connection and returns its client handle. conn may
// be nil, in which case the client has no transport and tests read its send
// queue directly.
func (core *Core) Connect(conn *websocket.Conn) *Client {
	c := newClient(uuid.NewString(), conn, core.log)
	core.hub.add(c)
	core.log.Info("websocket client connected", "connId", c.ID)
	return c
}

// Disconnect tears a connection down. Order matters: viewer and presence
// cascades broadcast to rooms the client still belongs to, then the hub
// drops the memberships, then the send queue closes. A disconnect during an
// in-flight mutation does not abort the write; only delivery to this gone
// connection is lost.
func (core *Core) Disconnect(c *Client) {
	core.viewers.connectionClosed(c)
	core.presence.connectionClosed(c)
	core.hub.remove(c)
	c.close()
	core.log.Info("websocket client disconnected", "connId", c.ID, "userId", c.UserID())
}

// Shutdown clears presence state. Connections are owned by their read pumps
// and die with the HTTP server.
func (core *Core) Shutdown() {
	core.presence.Reset()
}
