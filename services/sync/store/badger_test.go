// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teamsync-labs/teamsync/services/sync/datatypes"
)

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	st, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestIssueCRUD(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	issue := &datatypes.Issue{ID: "i1", BoardID: "b1", Title: "First", Status: "todo", Order: 1}
	require.NoError(t, st.Issues().Insert(ctx, issue))

	got, err := st.Issues().Get(ctx, "i1")
	require.NoError(t, err)
	require.Equal(t, "First", got.Title)

	newTitle := "Renamed"
	patched, err := st.Issues().Patch(ctx, "i1", datatypes.IssuePatch{Title: &newTitle})
	require.NoError(t, err)
	require.Equal(t, "Renamed", patched.Title)
	require.False(t, patched.UpdatedAt.IsZero())

	deleted, err := st.Issues().Delete(ctx, "i1")
	require.NoError(t, err)
	require.Equal(t, "Renamed", deleted.Title)

	_, err = st.Issues().Get(ctx, "i1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPatchMissingIssue(t *testing.T) {
	st := newTestStore(t)
	title := "x"
	_, err := st.Issues().Patch(context.Background(), "ghost", datatypes.IssuePatch{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListByBoardSortsByOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i, order := range []int{3, 1, 2} {
		require.NoError(t, st.Issues().Insert(ctx, &datatypes.Issue{
			ID: fmt.Sprintf("i%d", i), BoardID: "b1", Status: "todo", Order: order,
		}))
	}
	require.NoError(t, st.Issues().Insert(ctx, &datatypes.Issue{ID: "other", BoardID: "b2", Order: 0}))

	issues, err := st.Issues().ListByBoard(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, issues, 3)
	for i := 1; i < len(issues); i++ {
		require.LessOrEqual(t, issues[i-1].Order, issues[i].Order)
	}
}

func TestMaxOrderPerColumn(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Issues().Insert(ctx, &datatypes.Issue{ID: "i1", BoardID: "b1", Status: "todo", Order: 5}))
	require.NoError(t, st.Issues().Insert(ctx, &datatypes.Issue{ID: "i2", BoardID: "b1", Status: "done", Order: 9}))

	highest, err := st.Issues().MaxOrder(ctx, "b1", "todo")
	require.NoError(t, err)
	require.Equal(t, 5, highest)

	empty, err := st.Issues().MaxOrder(ctx, "b1", "in-progress")
	require.NoError(t, err)
	require.Equal(t, 0, empty)
}

func TestBoardListByMemberNewestFirst(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, st.Boards().Insert(ctx, &datatypes.Board{
		ID: "old", Name: "Old", Members: []string{"u1"}, CreatedAt: base.Add(-time.Hour),
	}))
	require.NoError(t, st.Boards().Insert(ctx, &datatypes.Board{
		ID: "new", Name: "New", Members: []string{"u1"}, CreatedAt: base,
	}))
	require.NoError(t, st.Boards().Insert(ctx, &datatypes.Board{
		ID: "foreign", Name: "Foreign", Members: []string{"u2"}, CreatedAt: base,
	}))

	boards, err := st.Boards().ListByMember(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, boards, 2)
	require.Equal(t, "new", boards[0].ID)
	require.Equal(t, "old", boards[1].ID)
}

func TestCommentsOldestFirstAndCascadeDelete(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 3; i++ {
		require.NoError(t, st.Comments().Insert(ctx, &datatypes.Comment{
			ID:        fmt.Sprintf("c%d", i),
			IssueID:   "i1",
			Text:      fmt.Sprintf("comment %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, st.Comments().Insert(ctx, &datatypes.Comment{
		ID: "cx", IssueID: "i2", Text: "other thread", CreatedAt: base,
	}))

	comments, err := st.Comments().ListByIssue(ctx, "i1")
	require.NoError(t, err)
	require.Len(t, comments, 3)
	require.Equal(t, "c0", comments[0].ID)
	require.Equal(t, "c2", comments[2].ID)

	require.NoError(t, st.Comments().DeleteByIssue(ctx, "i1"))
	comments, err = st.Comments().ListByIssue(ctx, "i1")
	require.NoError(t, err)
	require.Empty(t, comments)

	other, err := st.Comments().ListByIssue(ctx, "i2")
	require.NoError(t, err)
	require.Len(t, other, 1)
}

func TestUserEmailUniqueness(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Users().Insert(ctx, &datatypes.User{ID: "u1", Name: "A", Email: "a@example.com"}))
	err := st.Users().Insert(ctx, &datatypes.User{ID: "u2", Name: "B", Email: "A@Example.com"})
	require.ErrorIs(t, err, ErrConflict)

	got, err := st.Users().GetByEmail(ctx, "A@EXAMPLE.COM")
	require.NoError(t, err)
	require.Equal(t, "u1", got.ID)
}

func TestRuleListOrdering(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	mk := func(id string, createdAt time.Time, enabled bool, trigger string) *datatypes.WorkflowRule {
		return &datatypes.WorkflowRule{
			ID:        id,
			Name:      id,
			Trigger:   trigger,
			Condition: datatypes.RuleCondition{Field: "priority", Value: "high"},
			Action:    datatypes.RuleAction{Type: datatypes.ActionAssign, Value: "u1"},
			Enabled:   enabled,
			CreatedAt: createdAt,
		}
	}
	require.NoError(t, st.Rules().Insert(ctx, mk("r-old", base.Add(-2*time.Hour), true, "create")))
	require.NoError(t, st.Rules().Insert(ctx, mk("r-new", base, true, "create")))
	require.NoError(t, st.Rules().Insert(ctx, mk("r-disabled", base.Add(-time.Hour), false, "create")))
	require.NoError(t, st.Rules().Insert(ctx, mk("r-update", base, true, "update")))

	all, err := st.Rules().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.Equal(t, "r-old", all[len(all)-1].ID, "admin listing is newest first")

	enabled, err := st.Rules().ListEnabledByTrigger(ctx, "create")
	require.NoError(t, err)
	require.Len(t, enabled, 2)
	require.Equal(t, "r-old", enabled[0].ID, "evaluation order is oldest first")
	require.Equal(t, "r-new", enabled[1].ID)
}

func TestRuleUpdateAndDeleteRequireExistence(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	err := st.Rules().Update(ctx, &datatypes.WorkflowRule{ID: "ghost"})
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, st.Rules().Delete(ctx, "ghost"), ErrNotFound)
}

func TestActivityNewestFirst(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 3; i++ {
		require.NoError(t, st.Activity().Insert(ctx, &datatypes.ActivityLog{
			ID:        fmt.Sprintf("a%d", i),
			IssueID:   "i1",
			Action:    datatypes.ActivityUpdated,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}

	entries, err := st.Activity().ListByIssue(ctx, "i1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "a2", entries[0].ID)
	require.Equal(t, "a0", entries[2].ID)
}
