// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package realtime

import (
	"encoding/json"

	"github.com/teamsync-labs/teamsync/services/sync/datatypes"
	"github.com/teamsync-labs/teamsync/services/sync/observability"
)

// signalHandler processes one client-initiated signal. Handlers are pure
// functions of (core state, client, payload); malformed payloads are
// defensive no-ops, never errors, because presence signals are best-effort
// rather than critical-path operations.
type signalHandler func(core *Core, c *Client, data json.RawMessage)

// signalHandlers is the dispatch table for every signal a connection may
// send. Keeping it an explicit table makes the protocol surface greppable
// and lets tests drive the core without a network layer.
var signalHandlers = map[string]signalHandler{
	EventUserOnline:         handleUserOnline,
	EventUserOffline:        handleUserOffline,
	EventGetOnlineUsers:     handleGetOnlineUsers,
	EventJoinBoard:          handleJoinBoard,
	EventLeaveBoard:         handleLeaveBoard,
	EventJoinIssue:          handleJoinIssue,
	EventLeaveIssue:         handleLeaveIssue,
	EventCommentAdded:       handleCommentAdded,
	EventTaskViewing:        handleTaskViewing,
	EventTaskStoppedViewing: handleTaskStoppedViewing,
}

// HandleSignal routes one inbound envelope through the dispatch table.
// Unknown events are counted and ignored.
func (core *Core) HandleSignal(c *Client, env InboundEnvelope) {
	handler, ok := signalHandlers[env.Event]
	if !ok {
		core.log.Debug("unknown client signal", "event", env.Event, "connId", c.ID)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordSignalDropped(observability.DropUnknownEvent)
		}
		return
	}
	if m := observability.DefaultMetrics; m != nil {
		m.RecordSignal(env.Event)
	}
	handler(core, c, env.Data)
}

// decodeString accepts a JSON string payload ("abc"), returning "" for
// anything malformed.
func decodeString(data json.RawMessage) string {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ""
	}
	return s
}

func handleUserOnline(core *Core, c *Client, data json.RawMessage) {
	userID := decodeString(data)
	if userID == "" {
		return
	}
	c.bindUser(userID)
	core.presence.MarkOnline(userID, c.ID)
	core.log.Debug("user online", "userId", userID, "connId", c.ID)
}

func handleUserOffline(core *Core, _ *Client, data json.RawMessage) {
	userID := decodeString(data)
	if userID == "" {
		return
	}
	core.presence.MarkOffline(userID)
	core.log.Debug("user offline", "userId", userID)
}

func handleGetOnlineUsers(core *Core, c *Client, _ json.RawMessage) {
	// Targeted reply only; everyone else already has the current set.
	core.hub.SendTo(c, EventPresenceUpdate, core.presence.Snapshot())
}

func handleJoinBoard(core *Core, c *Client, data json.RawMessage) {
	if boardID := decodeString(data); boardID != "" {
		core.hub.Join(c, BoardRoom(boardID))
	}
}

func handleLeaveBoard(core *Core, c *Client, data json.RawMessage) {
	if boardID := decodeString(data); boardID != "" {
		core.hub.Leave(c, BoardRoom(boardID))
	}
}

func handleJoinIssue(core *Core, c *Client, data json.RawMessage) {
	if issueID := decodeString(data); issueID != "" {
		core.hub.Join(c, IssueRoom(issueID))
	}
}

func handleLeaveIssue(core *Core, c *Client, data json.RawMessage) {
	if issueID := decodeString(data); issueID != "" {
		core.hub.Leave(c, IssueRoom(issueID))
	}
}

func handleCommentAdded(core *Core, _ *Client, data json.RawMessage) {
	// Lightweight nudge: subscribers re-fetch the thread rather than
	// receiving the comment payload over the wire.
	if issueID := decodeString(data); issueID != "" {
		core.hub.Broadcast(IssueRoom(issueID), EventRefreshComments, nil)
	}
}

type taskViewingPayload struct {
	TaskID string               `json:"taskId"`
	User   datatypes.PublicUser `json:"user"`
}

func handleTaskViewing(core *Core, c *Client, data json.RawMessage) {
	var p taskViewingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	core.viewers.StartViewing(c, p.TaskID, p.User)
}

type taskStoppedViewingPayload struct {
	TaskID string `json:"taskId"`
	UserID string `json:"userId"`
}

func handleTaskStoppedViewing(core *Core, c *Client, data json.RawMessage) {
	var p taskStoppedViewingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	core.viewers.StopViewing(c, p.TaskID, p.UserID)
}
