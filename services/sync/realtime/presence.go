// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package realtime

import (
	"sort"
	"sync"

	"github.com/teamsync-labs/teamsync/services/sync/observability"
)

// Presence maintains the process-wide online-user set, derived purely from
// connection lifecycle events. The mapping is user id -> connection id with
// last-writer-wins semantics: the UI only needs "is user X online", not
// session counting, so one retained mapping per user is enough.
//
// Presence is never persisted. It describes live sessions, and any durable
// copy would be stale the moment the process restarts.
type Presence struct {
	hub *Hub

	mu     sync.Mutex
	online map[string]string
}

// NewPresence returns an empty tracker bound to the hub it broadcasts
// through. Construct one per process at startup and Reset it at shutdown;
// tests construct their own instance.
func NewPresence(hub *Hub) *Presence {
	return &Presence{
		hub:    hub,
		online: make(map[string]string),
	}
}

// MarkOnline records the user as online on the given connection and
// broadcasts the full online set to all connected clients.
func (p *Presence) MarkOnline(userID, connID string) {
	if userID == "" {
		return
	}
	p.mu.Lock()
	p.online[userID] = connID
	snapshot := p.snapshotLocked()
	p.mu.Unlock()
	p.publish(snapshot)
}

// MarkOffline removes the user's mapping if present and broadcasts the
// updated set.
func (p *Presence) MarkOffline(userID string) {
	if userID == "" {
		return
	}
	p.mu.Lock()
	_, present := p.online[userID]
	delete(p.online, userID)
	snapshot := p.snapshotLocked()
	p.mu.Unlock()
	if present {
		p.publish(snapshot)
	}
}

// Snapshot returns the current online user ids, sorted for stable output.
// Used for targeted replies to an explicit presence request.
func (p *Presence) Snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// connectionClosed implements the disconnect cascade: a hard drop (browser
// crash, network partition) must not leave a stale entry, so a bound user id
// is treated exactly like an explicit offline signal.
func (p *Presence) connectionClosed(c *Client) {
	if userID := c.UserID(); userID != "" {
		p.MarkOffline(userID)
	}
}

// Reset clears the set. Called at shutdown so a restarting process never
// observes carried-over state.
func (p *Presence) Reset() {
	p.mu.Lock()
	p.online = make(map[string]string)
	p.mu.Unlock()
	if m := observability.DefaultMetrics; m != nil {
		m.OnlineUsers.Set(0)
	}
}

func (p *Presence) snapshotLocked() []string {
	out := make([]string, 0, len(p.online))
	for userID := range p.online {
		out = append(out, userID)
	}
	sort.Strings(out)
	return out
}

func (p *Presence) publish(snapshot []string) {
	if m := observability.DefaultMetrics; m != nil {
		m.OnlineUsers.Set(float64(len(snapshot)))
	}
	p.hub.BroadcastGlobal(EventPresenceUpdate, snapshot)
}
