// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package realtime

import (
	"sync"

	"github.com/teamsync-labs/teamsync/services/sync/datatypes"
)

// Viewers tracks who is looking at which issue detail view. Entries live
// exactly as long as the viewing connection's membership in the task room;
// nothing is persisted.
//
// Identity is not deduplicated across multiple tabs of the same user: each
// joining connection produces one viewer-joined event, and consuming UIs
// dedupe by user id. What matters is that entries cannot outlive their
// connection, which the disconnect cascade guarantees.
type Viewers struct {
	hub *Hub

	mu       sync.Mutex
	byClient map[*Client]map[string]string // taskID -> last-known userID
}

// NewViewers returns an empty tracker bound to the hub.
func NewViewers(hub *Hub) *Viewers {
	return &Viewers{
		hub:      hub,
		byClient: make(map[*Client]map[string]string),
	}
}

// StartViewing joins the connection to the task room and announces the
// viewer's public identity to everyone else in it. The joining connection is
// excluded: it already knows it is viewing.
func (v *Viewers) StartViewing(c *Client, taskID string, user datatypes.PublicUser) {
	if taskID == "" || user.ID == "" {
		return
	}
	room := TaskRoom(taskID)
	v.hub.Join(c, room)
	v.mu.Lock()
	tasks, ok := v.byClient[c]
	if !ok {
		tasks = make(map[string]string)
		v.byClient[c] = tasks
	}
	tasks[taskID] = user.ID
	v.mu.Unlock()
	v.hub.Broadcast(room, EventViewerJoined, user, c)
}

// StopViewing leaves the task room and announces the departure to the
// remaining members.
func (v *Viewers) StopViewing(c *Client, taskID, userID string) {
	if taskID == "" {
		return
	}
	room := TaskRoom(taskID)
	v.mu.Lock()
	if tasks, ok := v.byClient[c]; ok {
		delete(tasks, taskID)
		if len(tasks) == 0 {
			delete(v.byClient, c)
		}
	}
	v.mu.Unlock()
	v.hub.Broadcast(room, EventViewerLeft, userID, c)
	v.hub.Leave(c, room)
}

// connectionClosed synthesizes a stop-viewing for every task the connection
// was watching. Without this a crashed tab leaves a ghost "still viewing"
// indicator for everyone else indefinitely. Runs before the hub removes the
// connection's memberships so remaining members still get the broadcast.
func (v *Viewers) connectionClosed(c *Client) {
	v.mu.Lock()
	tasks := v.byClient[c]
	delete(v.byClient, c)
	v.mu.Unlock()
	for taskID, userID := range tasks {
		v.hub.Broadcast(TaskRoom(taskID), EventViewerLeft, userID, c)
	}
}
