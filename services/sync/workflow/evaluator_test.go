// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teamsync-labs/teamsync/services/sync/datatypes"
	"github.com/teamsync-labs/teamsync/services/sync/store"
)

func newTestStore(t *testing.T) *store.BadgerStore {
	t.Helper()
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func insertIssue(t *testing.T, st store.Store, issue *datatypes.Issue) {
	t.Helper()
	require.NoError(t, st.Issues().Insert(context.Background(), issue))
}

func insertRule(t *testing.T, st store.Store, rule *datatypes.WorkflowRule) {
	t.Helper()
	require.NoError(t, st.Rules().Insert(context.Background(), rule))
}

func TestEvaluateAppliesMatchingRule(t *testing.T) {
	st := newTestStore(t)
	eval := NewEvaluator(st, nil)

	issue := &datatypes.Issue{ID: "i1", BoardID: "b1", Title: "Prod is down", Priority: "high", Status: "todo"}
	insertIssue(t, st, issue)
	insertRule(t, st, &datatypes.WorkflowRule{
		ID:        "r1",
		Name:      "assign urgent",
		Trigger:   datatypes.TriggerCreate,
		Condition: datatypes.RuleCondition{Field: "priority", Operator: "equals", Value: "high"},
		Action:    datatypes.RuleAction{Type: datatypes.ActionAssign, Value: "oncall-user"},
		Enabled:   true,
		CreatedAt: time.Now().UTC(),
	})

	applied := eval.Evaluate(context.Background(), issue, datatypes.TriggerCreate)
	require.True(t, applied)

	got, err := st.Issues().Get(context.Background(), "i1")
	require.NoError(t, err)
	require.Equal(t, "oncall-user", got.Assignee)
}

func TestEvaluateLeavesNonMatchingIssueUntouched(t *testing.T) {
	st := newTestStore(t)
	eval := NewEvaluator(st, nil)

	issue := &datatypes.Issue{ID: "i1", BoardID: "b1", Title: "Minor cleanup", Priority: "low", Status: "todo"}
	insertIssue(t, st, issue)
	insertRule(t, st, &datatypes.WorkflowRule{
		ID:        "r1",
		Name:      "assign urgent",
		Trigger:   datatypes.TriggerCreate,
		Condition: datatypes.RuleCondition{Field: "priority", Operator: "equals", Value: "high"},
		Action:    datatypes.RuleAction{Type: datatypes.ActionAssign, Value: "oncall-user"},
		Enabled:   true,
		CreatedAt: time.Now().UTC(),
	})

	applied := eval.Evaluate(context.Background(), issue, datatypes.TriggerCreate)
	require.False(t, applied)

	got, err := st.Issues().Get(context.Background(), "i1")
	require.NoError(t, err)
	require.Empty(t, got.Assignee)
	require.Equal(t, "todo", got.Status)
}

func TestEvaluateSkipsDisabledAndOtherTriggerRules(t *testing.T) {
	st := newTestStore(t)
	eval := NewEvaluator(st, nil)

	issue := &datatypes.Issue{ID: "i1", BoardID: "b1", Priority: "high"}
	insertIssue(t, st, issue)
	insertRule(t, st, &datatypes.WorkflowRule{
		ID:        "r-disabled",
		Trigger:   datatypes.TriggerCreate,
		Condition: datatypes.RuleCondition{Field: "priority", Value: "high"},
		Action:    datatypes.RuleAction{Type: datatypes.ActionAssign, Value: "nobody"},
		Enabled:   false,
		CreatedAt: time.Now().UTC(),
	})
	insertRule(t, st, &datatypes.WorkflowRule{
		ID:        "r-update-only",
		Trigger:   datatypes.TriggerUpdate,
		Condition: datatypes.RuleCondition{Field: "priority", Value: "high"},
		Action:    datatypes.RuleAction{Type: datatypes.ActionAssign, Value: "nobody"},
		Enabled:   true,
		CreatedAt: time.Now().UTC(),
	})

	require.False(t, eval.Evaluate(context.Background(), issue, datatypes.TriggerCreate))
}

func TestNewestRuleWinsSameFieldConflict(t *testing.T) {
	st := newTestStore(t)
	eval := NewEvaluator(st, nil)

	issue := &datatypes.Issue{ID: "i1", BoardID: "b1", Priority: "high", Status: "todo"}
	insertIssue(t, st, issue)

	base := time.Now().UTC()
	insertRule(t, st, &datatypes.WorkflowRule{
		ID:        "r-old",
		Name:      "older",
		Trigger:   datatypes.TriggerCreate,
		Condition: datatypes.RuleCondition{Field: "priority", Value: "high"},
		Action:    datatypes.RuleAction{Type: datatypes.ActionMove, Value: "in-progress"},
		Enabled:   true,
		CreatedAt: base.Add(-time.Hour),
	})
	insertRule(t, st, &datatypes.WorkflowRule{
		ID:        "r-new",
		Name:      "newer",
		Trigger:   datatypes.TriggerCreate,
		Condition: datatypes.RuleCondition{Field: "priority", Value: "high"},
		Action:    datatypes.RuleAction{Type: datatypes.ActionMove, Value: "done"},
		Enabled:   true,
		CreatedAt: base,
	})

	require.True(t, eval.Evaluate(context.Background(), issue, datatypes.TriggerCreate))

	got, err := st.Issues().Get(context.Background(), "i1")
	require.NoError(t, err)
	require.Equal(t, "done", got.Status, "newest rule's write must land last")
}

func TestConditionsUseTriggerSnapshotNotIntermediateWrites(t *testing.T) {
	st := newTestStore(t)
	eval := NewEvaluator(st, nil)

	issue := &datatypes.Issue{ID: "i1", BoardID: "b1", Priority: "high", Status: "todo"}
	insertIssue(t, st, issue)

	base := time.Now().UTC()
	// The first rule moves the issue to done; the second rule only matches
	// status todo. Against the fixed snapshot both match.
	insertRule(t, st, &datatypes.WorkflowRule{
		ID:        "r1",
		Trigger:   datatypes.TriggerCreate,
		Condition: datatypes.RuleCondition{Field: "status", Value: "todo"},
		Action:    datatypes.RuleAction{Type: datatypes.ActionMove, Value: "done"},
		Enabled:   true,
		CreatedAt: base.Add(-time.Hour),
	})
	insertRule(t, st, &datatypes.WorkflowRule{
		ID:        "r2",
		Trigger:   datatypes.TriggerCreate,
		Condition: datatypes.RuleCondition{Field: "status", Value: "todo"},
		Action:    datatypes.RuleAction{Type: datatypes.ActionSetPriority, Value: "low"},
		Enabled:   true,
		CreatedAt: base,
	})

	require.True(t, eval.Evaluate(context.Background(), issue, datatypes.TriggerCreate))

	got, err := st.Issues().Get(context.Background(), "i1")
	require.NoError(t, err)
	require.Equal(t, "done", got.Status)
	require.Equal(t, "low", got.Priority)
}

func TestBadRuleDoesNotBlockRemainingRules(t *testing.T) {
	st := newTestStore(t)
	eval := NewEvaluator(st, nil)

	issue := &datatypes.Issue{ID: "i1", BoardID: "b1", Priority: "high"}
	insertIssue(t, st, issue)

	base := time.Now().UTC()
	insertRule(t, st, &datatypes.WorkflowRule{
		ID:        "r-broken",
		Name:      "broken field",
		Trigger:   datatypes.TriggerCreate,
		Condition: datatypes.RuleCondition{Field: "no_such_field", Value: "x"},
		Action:    datatypes.RuleAction{Type: datatypes.ActionAssign, Value: "nobody"},
		Enabled:   true,
		CreatedAt: base.Add(-time.Hour),
	})
	insertRule(t, st, &datatypes.WorkflowRule{
		ID:        "r-good",
		Name:      "good",
		Trigger:   datatypes.TriggerCreate,
		Condition: datatypes.RuleCondition{Field: "priority", Value: "high"},
		Action:    datatypes.RuleAction{Type: datatypes.ActionAssign, Value: "oncall-user"},
		Enabled:   true,
		CreatedAt: base,
	})

	require.True(t, eval.Evaluate(context.Background(), issue, datatypes.TriggerCreate))

	got, err := st.Issues().Get(context.Background(), "i1")
	require.NoError(t, err)
	require.Equal(t, "oncall-user", got.Assignee)
}

func TestAppliedRuleIsRecordedAsSystemActivity(t *testing.T) {
	st := newTestStore(t)
	eval := NewEvaluator(st, nil)

	issue := &datatypes.Issue{ID: "i1", BoardID: "b1", Priority: "high"}
	insertIssue(t, st, issue)
	insertRule(t, st, &datatypes.WorkflowRule{
		ID:        "r1",
		Name:      "assign urgent",
		Trigger:   datatypes.TriggerCreate,
		Condition: datatypes.RuleCondition{Field: "priority", Value: "high"},
		Action:    datatypes.RuleAction{Type: datatypes.ActionAssign, Value: "oncall-user"},
		Enabled:   true,
		CreatedAt: time.Now().UTC(),
	})

	require.True(t, eval.Evaluate(context.Background(), issue, datatypes.TriggerCreate))

	entries, err := st.Activity().ListByIssue(context.Background(), "i1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, datatypes.ActivityAutomation, entries[0].Action)
	require.Empty(t, entries[0].UserID, "automation entries carry the system actor")
	require.Equal(t, "assign urgent", entries[0].Details["rule"])
}

func TestNotEqualsOperator(t *testing.T) {
	st := newTestStore(t)
	eval := NewEvaluator(st, nil)

	issue := &datatypes.Issue{ID: "i1", BoardID: "b1", Status: "todo", Assignee: ""}
	insertIssue(t, st, issue)
	insertRule(t, st, &datatypes.WorkflowRule{
		ID:        "r1",
		Trigger:   datatypes.TriggerUpdate,
		Condition: datatypes.RuleCondition{Field: "assignee", Operator: "not_equals", Value: ""},
		Action:    datatypes.RuleAction{Type: datatypes.ActionMove, Value: "in-progress"},
		Enabled:   true,
		CreatedAt: time.Now().UTC(),
	})

	// Unassigned: condition (assignee != "") does not hold.
	require.False(t, eval.Evaluate(context.Background(), issue, datatypes.TriggerUpdate))

	issue.Assignee = "u1"
	require.True(t, eval.Evaluate(context.Background(), issue, datatypes.TriggerUpdate))
	got, err := st.Issues().Get(context.Background(), "i1")
	require.NoError(t, err)
	require.Equal(t, "in-progress", got.Status)
}
