// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package workflow implements the automation rule evaluator: a single
// bounded pass over the enabled rules for a trigger, run synchronously after
// a mutation and before its broadcast.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/teamsync-labs/teamsync/services/sync/datatypes"
	"github.com/teamsync-labs/teamsync/services/sync/store"
)

// Evaluator applies workflow rules to a freshly written issue. Rules are
// re-fetched from the store on every call; there is no cache to go stale.
//
// Every rule's condition is evaluated against the same issue snapshot the
// caller passed in, never against intermediate writes from earlier rules in
// the pass. That rules out rule-chaining within one mutation: two rules
// targeting the same field resolve last-applied-wins, and the store returns
// rules oldest-first so the newest rule wins. Actions cannot re-trigger
// evaluation; there is exactly one pass per mutation.
type Evaluator struct {
	rules    store.RuleStore
	issues   store.IssueStore
	activity store.ActivityStore
	log      *slog.Logger
}

// NewEvaluator wires the evaluator to its stores.
func NewEvaluator(st store.Store, log *slog.Logger) *Evaluator {
	if log == nil {
		log = slog.Default()
	}
	return &Evaluator{
		rules:    st.Rules(),
		issues:   st.Issues(),
		activity: st.Activity(),
		log:      log,
	}
}

// Evaluate runs one automation pass for the trigger and reports whether any
// rule applied, so the caller knows to re-read the issue before broadcasting.
//
// Failures are contained per rule: a bad field name or a store error is
// logged and the remaining rules still run. The triggering mutation never
// fails because of automation.
func (e *Evaluator) Evaluate(ctx context.Context, issue *datatypes.Issue, trigger string) bool {
	rules, err := e.rules.ListEnabledByTrigger(ctx, trigger)
	if err != nil {
		e.log.Error("failed to fetch workflow rules", "trigger", trigger, "error", err)
		return false
	}

	applied := false
	for _, rule := range rules {
		match, err := matchCondition(issue, rule.Condition)
		if err != nil {
			e.log.Warn("workflow rule condition failed", "rule", rule.Name, "issueId", issue.ID, "error", err)
			continue
		}
		if !match {
			continue
		}
		e.log.Info("workflow rule matched", "rule", rule.Name, "issueId", issue.ID)

		patch, err := patchForAction(rule.Action)
		if err != nil {
			e.log.Warn("workflow rule action invalid", "rule", rule.Name, "error", err)
			continue
		}
		if _, err := e.issues.Patch(ctx, issue.ID, patch); err != nil {
			e.log.Warn("workflow rule action failed", "rule", rule.Name, "issueId", issue.ID, "error", err)
			continue
		}
		e.logAutomation(ctx, issue.ID, rule)
		applied = true
	}
	return applied
}

// matchCondition compares the issue snapshot's field against the rule value.
// Only string equality and inequality exist; values stringify, nothing else.
func matchCondition(issue *datatypes.Issue, cond datatypes.RuleCondition) (bool, error) {
	value, err := issue.FieldValue(cond.Field)
	if err != nil {
		return false, err
	}
	switch cond.Operator {
	case datatypes.OperatorEquals, "":
		return value == cond.Value, nil
	case datatypes.OperatorNotEquals:
		return value != cond.Value, nil
	default:
		return false, fmt.Errorf("unknown operator %q", cond.Operator)
	}
}

// patchForAction maps an action onto its single-field issue patch.
func patchForAction(action datatypes.RuleAction) (datatypes.IssuePatch, error) {
	value := action.Value
	switch action.Type {
	case datatypes.ActionAssign:
		return datatypes.IssuePatch{Assignee: &value}, nil
	case datatypes.ActionMove:
		return datatypes.IssuePatch{Status: &value}, nil
	case datatypes.ActionSetPriority:
		return datatypes.IssuePatch{Priority: &value}, nil
	default:
		return datatypes.IssuePatch{}, fmt.Errorf("unknown action type %q", action.Type)
	}
}

// logAutomation records the applied rule on the issue timeline with the
// system actor (no user id). Best-effort: an audit failure never unwinds the
// applied action.
func (e *Evaluator) logAutomation(ctx context.Context, issueID string, rule *datatypes.WorkflowRule) {
	entry := &datatypes.ActivityLog{
		ID:      uuid.NewString(),
		IssueID: issueID,
		Action:  datatypes.ActivityAutomation,
		Details: map[string]any{
			"rule":   rule.Name,
			"action": rule.Action.Type,
			"value":  rule.Action.Value,
		},
		Timestamp: time.Now().UTC(),
	}
	if err := e.activity.Insert(ctx, entry); err != nil {
		e.log.Warn("failed to record automation activity", "rule", rule.Name, "issueId", issueID, "error", err)
	}
}
