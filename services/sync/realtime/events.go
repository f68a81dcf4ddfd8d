// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package realtime implements the board-synchronization core: the connection
// registry, room multiplexer, presence tracker, viewer tracker, and the
// mutation broadcaster that fans persistence events out to subscribed
// clients.
//
// All state is process-local and in-memory. Presence and room membership are
// derived from live connections and rebuilt empty on restart; nothing here is
// persisted. Running multiple horizontally-scaled processes requires an
// external pub/sub layer, which this package deliberately does not provide.
package realtime

import "encoding/json"

// Client-initiated signal names.
const (
	EventUserOnline         = "user_online"
	EventUserOffline        = "user_offline"
	EventGetOnlineUsers     = "get_online_users"
	EventJoinBoard          = "join-board"
	EventLeaveBoard         = "leave-board"
	EventJoinIssue          = "join-issue"
	EventLeaveIssue         = "leave-issue"
	EventCommentAdded       = "comment-added"
	EventTaskViewing        = "task_viewing"
	EventTaskStoppedViewing = "task_stopped_viewing"
)

// Server-emitted event names.
const (
	EventConnected       = "connected"
	EventPresenceUpdate  = "presence_update"
	EventIssueCreated    = "issue-created"
	EventIssueUpdated    = "issue-updated"
	EventIssueMoved      = "issue-moved"
	EventIssueDeleted    = "issue-deleted"
	EventRefreshComments = "refresh-comments"
	EventViewerJoined    = "task_viewer_joined"
	EventViewerLeft      = "task_viewer_left"
)

// taskRoomPrefix prefixes per-issue viewing-session rooms.
const taskRoomPrefix = "task-"

// BoardRoom names the broadcast room for one board.
func BoardRoom(boardID string) string { return "board:" + boardID }

// IssueRoom names the comment-refresh room for one issue.
func IssueRoom(issueID string) string { return "issue:" + issueID }

// TaskRoom names the viewing-session room for one issue.
func TaskRoom(taskID string) string { return taskRoomPrefix + taskID }

// Envelope is the wire frame for server-to-client messages.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// InboundEnvelope is the wire frame for client-to-server signals. Data stays
// raw until the dispatch table knows the expected shape.
type InboundEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}
