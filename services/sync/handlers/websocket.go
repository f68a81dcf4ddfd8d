// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/teamsync-labs/teamsync/services/sync/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The browser client connects cross-origin in development; token auth
	// guards the API surface, the socket carries only presence signals.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocket upgrades the request and runs the connection's pumps. The read
// pump owns the connection: when it returns, the disconnect cascade tears
// down presence, viewer sessions, and room memberships.
func WebSocket(core *realtime.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "error", err)
			return
		}

		client := core.Connect(conn)
		defer core.Disconnect(client)

		go client.WritePump()
		core.Hub().SendTo(client, realtime.EventConnected, gin.H{"connId": client.ID})

		client.ReadPump(func(env realtime.InboundEnvelope) {
			core.HandleSignal(client, env)
		})
	}
}
