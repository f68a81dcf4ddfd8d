// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package realtime

import (
	"github.com/teamsync-labs/teamsync/services/sync/datatypes"
)

// Broadcaster fans persistence-layer mutation events out to the owning
// board's room. Handlers call it strictly after the write is durably
// committed and the automation pass has run, so subscribed clients never
// observe a pre-automation intermediate state. Because the emit is
// synchronous after each write's completion, broadcasts within a room
// preserve write-completion order.
//
// A mutation without a board id is silently skipped: there is no room to
// address, and these emits are never critical-path.
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster returns a broadcaster emitting through the core's hub.
func NewBroadcaster(core *Core) *Broadcaster {
	return &Broadcaster{hub: core.hub}
}

// IssueCreated announces a new issue to its board room.
func (b *Broadcaster) IssueCreated(issue *datatypes.Issue) {
	if issue == nil || issue.BoardID == "" {
		return
	}
	b.hub.Broadcast(BoardRoom(issue.BoardID), EventIssueCreated, issue)
}

// IssueUpdated announces an updated issue to its board room.
func (b *Broadcaster) IssueUpdated(issue *datatypes.Issue) {
	if issue == nil || issue.BoardID == "" {
		return
	}
	b.hub.Broadcast(BoardRoom(issue.BoardID), EventIssueUpdated, issue)
}

// IssueMoved announces a column/position change to the board room.
func (b *Broadcaster) IssueMoved(p datatypes.IssueMovedPayload) {
	if p.BoardID == "" {
		return
	}
	b.hub.Broadcast(BoardRoom(p.BoardID), EventIssueMoved, p)
}

// IssueDeleted announces a deletion to the board room.
func (b *Broadcaster) IssueDeleted(p datatypes.IssueDeletedPayload) {
	if p.BoardID == "" {
		return
	}
	b.hub.Broadcast(BoardRoom(p.BoardID), EventIssueDeleted, p)
}

// CommentAdded announces a new comment to the board room.
func (b *Broadcaster) CommentAdded(p datatypes.CommentAddedPayload) {
	if p.BoardID == "" {
		return
	}
	b.hub.Broadcast(BoardRoom(p.BoardID), EventCommentAdded, p)
}

// RefreshComments nudges the issue's comment room to re-fetch the thread.
// Signal only, no payload: the round trip is traded for a small frame.
func (b *Broadcaster) RefreshComments(issueID string) {
	if issueID == "" {
		return
	}
	b.hub.Broadcast(IssueRoom(issueID), EventRefreshComments, nil)
}
