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

	"github.com/teamsync-labs/teamsync/services/sync/observability"
)

// Hub is the connection registry and room multiplexer. Rooms are created
// lazily on first join and deleted when their last member leaves; membership
// only ever contains live connections because every removal path is
// synchronous with the connection event that caused it.
type Hub struct {
	log *slog.Logger

	mu            sync.RWMutex
	clients       map[string]*Client
	rooms         map[string]map[*Client]struct{}
	roomsByClient map[*Client]map[string]struct{}
}

// NewHub returns an empty hub. One hub serves one process; state never
// leaves it.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:           log,
		clients:       make(map[string]*Client),
		rooms:         make(map[string]map[*Client]struct{}),
		roomsByClient: make(map[*Client]map[string]struct{}),
	}
}

// add registers a freshly connected client.
func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	if m := observability.DefaultMetrics; m != nil {
		m.ConnectionsActive.Inc()
		m.ConnectionsTotal.Inc()
	}
}

// remove unregisters a client and leaves all of its rooms. Emptied rooms are
// deleted; nothing retains an empty room.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	for room := range h.roomsByClient[c] {
		h.dropMemberLocked(c, room)
	}
	delete(h.roomsByClient, c)
	h.mu.Unlock()
	if m := observability.DefaultMetrics; m != nil {
		m.ConnectionsActive.Dec()
	}
}

// Join adds the client to a room, creating the room on first join.
func (h *Hub) Join(c *Client, room string) {
	if room == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
		if m := observability.DefaultMetrics; m != nil {
			m.RoomsActive.Inc()
		}
	}
	members[c] = struct{}{}
	byClient, ok := h.roomsByClient[c]
	if !ok {
		byClient = make(map[string]struct{})
		h.roomsByClient[c] = byClient
	}
	byClient[room] = struct{}{}
}

// Leave removes the client from a room.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropMemberLocked(c, room)
	if byClient, ok := h.roomsByClient[c]; ok {
		delete(byClient, room)
	}
}

func (h *Hub) dropMemberLocked(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
		if m := observability.DefaultMetrics; m != nil {
			m.RoomsActive.Dec()
		}
	}
}

// RoomsOf returns the rooms the client currently belongs to.
func (h *Hub) RoomsOf(c *Client) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.roomsByClient[c]))
	for room := range h.roomsByClient[c] {
		out = append(out, room)
	}
	return out
}

// MemberCount returns the current size of a room, 0 when it does not exist.
func (h *Hub) MemberCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Broadcast sends an event to every member of a room except the listed
// clients. Undeliverable members (full queue, closing) are skipped silently.
func (h *Hub) Broadcast(room, event string, data any, exclude ...*Client) {
	env := Envelope{Event: event, Data: data}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		if excluded(c, exclude) {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	h.send(event, env, targets)
}

// BroadcastGlobal sends an event to every connected client, room membership
// regardless. Presence updates use this.
func (h *Hub) BroadcastGlobal(event string, data any) {
	env := Envelope{Event: event, Data: data}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	h.send(event, env, targets)
}

// SendTo sends an event to one client only (targeted reply, not a broadcast).
func (h *Hub) SendTo(c *Client, event string, data any) {
	h.send(event, Envelope{Event: event, Data: data}, []*Client{c})
}

func (h *Hub) send(event string, env Envelope, targets []*Client) {
	m := observability.DefaultMetrics
	if m != nil {
		m.RecordBroadcast(event)
	}
	for _, c := range targets {
		if !c.deliver(env) {
			h.log.Debug("dropped delivery", "event", event, "connId", c.ID)
			if m != nil {
				m.DeliveriesDroppedTotal.Inc()
			}
		}
	}
}

func excluded(c *Client, exclude []*Client) bool {
	for _, e := range exclude {
		if e == c {
			return true
		}
	}
	return false
}
