// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package realtime

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/teamsync-labs/teamsync/services/sync/datatypes"
)

func signal(t *testing.T, core *Core, c *Client, event string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	core.HandleSignal(c, InboundEnvelope{Event: event, Data: raw})
}

func TestUserOnlineSignalBindsConnection(t *testing.T) {
	core := NewCore(nil)
	c := core.Connect(nil)

	signal(t, core, c, EventUserOnline, "user-a")

	if got := c.UserID(); got != "user-a" {
		t.Fatalf("bound user = %q, want user-a", got)
	}
	if got := core.Presence().Snapshot(); !reflect.DeepEqual(got, []string{"user-a"}) {
		t.Fatalf("online set = %v", got)
	}
}

func TestGetOnlineUsersRepliesOnlyToRequester(t *testing.T) {
	core := NewCore(nil)
	requester := core.Connect(nil)
	bystander := core.Connect(nil)
	core.Presence().MarkOnline("user-a", "conn-x")
	drain(requester)
	drain(bystander)

	signal(t, core, requester, EventGetOnlineUsers, nil)

	env := lastEvent(drain(requester), EventPresenceUpdate)
	if env == nil {
		t.Fatal("requester got no presence reply")
	}
	if got := env.Data.([]string); !reflect.DeepEqual(got, []string{"user-a"}) {
		t.Fatalf("reply = %v", got)
	}
	if got := drain(bystander); len(got) != 0 {
		t.Fatalf("bystander received the targeted reply: %v", got)
	}
}

func TestJoinAndLeaveBoardSignals(t *testing.T) {
	core := NewCore(nil)
	c := core.Connect(nil)

	signal(t, core, c, EventJoinBoard, "b1")
	if n := core.Hub().MemberCount(BoardRoom("b1")); n != 1 {
		t.Fatalf("join-board did not register, %d members", n)
	}

	signal(t, core, c, EventLeaveBoard, "b1")
	if n := core.Hub().MemberCount(BoardRoom("b1")); n != 0 {
		t.Fatalf("leave-board did not unregister, %d members", n)
	}
}

func TestCommentSignalRefreshesIssueRoom(t *testing.T) {
	core := NewCore(nil)
	viewer := core.Connect(nil)
	commenter := core.Connect(nil)

	signal(t, core, viewer, EventJoinIssue, "i1")
	drain(viewer)

	signal(t, core, commenter, EventCommentAdded, "i1")

	if lastEvent(drain(viewer), EventRefreshComments) == nil {
		t.Fatal("issue room missed the refresh nudge")
	}
}

func TestTaskViewingSignals(t *testing.T) {
	core := NewCore(nil)
	first := core.Connect(nil)
	second := core.Connect(nil)

	signal(t, core, first, EventTaskViewing, map[string]any{
		"taskId": "t1",
		"user":   datatypes.PublicUser{ID: "u1", Name: "Alice"},
	})
	drain(first)
	signal(t, core, second, EventTaskViewing, map[string]any{
		"taskId": "t1",
		"user":   datatypes.PublicUser{ID: "u2", Name: "Bob"},
	})

	env := lastEvent(drain(first), EventViewerJoined)
	if env == nil {
		t.Fatal("first viewer missed the joined event")
	}

	signal(t, core, second, EventTaskStoppedViewing, map[string]any{
		"taskId": "t1",
		"userId": "u2",
	})
	if lastEvent(drain(first), EventViewerLeft) == nil {
		t.Fatal("first viewer missed the left event")
	}
}

func TestUnknownAndMalformedSignalsAreIgnored(t *testing.T) {
	core := NewCore(nil)
	c := core.Connect(nil)

	core.HandleSignal(c, InboundEnvelope{Event: "no_such_event", Data: nil})
	core.HandleSignal(c, InboundEnvelope{Event: EventUserOnline, Data: json.RawMessage(`{"not":"a string"}`)})
	core.HandleSignal(c, InboundEnvelope{Event: EventTaskViewing, Data: json.RawMessage(`"garbage"`)})

	if got := core.Presence().Snapshot(); len(got) != 0 {
		t.Fatalf("malformed signals mutated presence: %v", got)
	}
}

func TestBroadcasterEmitsToBoardRoom(t *testing.T) {
	core := NewCore(nil)
	bc := NewBroadcaster(core)
	member := core.Connect(nil)
	outsider := core.Connect(nil)

	signal(t, core, member, EventJoinBoard, "b1")

	issue := &datatypes.Issue{ID: "i1", BoardID: "b1", Title: "Ship it"}
	bc.IssueCreated(issue)
	bc.IssueUpdated(issue)
	bc.IssueMoved(datatypes.IssueMovedPayload{IssueID: "i1", BoardID: "b1", ToStatus: "done", Issue: issue})
	bc.IssueDeleted(datatypes.IssueDeletedPayload{IssueID: "i1", BoardID: "b1"})
	bc.CommentAdded(datatypes.CommentAddedPayload{BoardID: "b1"})

	got := drain(member)
	for _, event := range []string{
		EventIssueCreated, EventIssueUpdated, EventIssueMoved, EventIssueDeleted, EventCommentAdded,
	} {
		if lastEvent(got, event) == nil {
			t.Fatalf("board member missed %s", event)
		}
	}
	if got := drain(outsider); len(got) != 0 {
		t.Fatalf("outsider received board broadcasts: %v", got)
	}
}

func TestBroadcasterSkipsMissingBoardID(t *testing.T) {
	core := NewCore(nil)
	bc := NewBroadcaster(core)
	c := core.Connect(nil)
	signal(t, core, c, EventJoinBoard, "b1")
	drain(c)

	bc.IssueCreated(&datatypes.Issue{ID: "i1"})
	bc.IssueDeleted(datatypes.IssueDeletedPayload{IssueID: "i1"})
	bc.RefreshComments("")

	if got := drain(c); len(got) != 0 {
		t.Fatalf("boardless mutation reached a room: %v", got)
	}
}
