// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"testing"
)

func TestFieldValue(t *testing.T) {
	issue := &Issue{
		Title:    "Fix login",
		Status:   StatusInProgress,
		Priority: PriorityHigh,
		Assignee: "u1",
		BoardID:  "b1",
		Order:    7,
	}

	cases := map[string]string{
		"title":    "Fix login",
		"status":   "in-progress",
		"priority": "high",
		"assignee": "u1",
		"boardId":  "b1",
		"order":    "7",
	}
	for field, want := range cases {
		got, err := issue.FieldValue(field)
		if err != nil {
			t.Fatalf("FieldValue(%q) error: %v", field, err)
		}
		if got != want {
			t.Errorf("FieldValue(%q) = %q, want %q", field, got, want)
		}
	}

	if _, err := issue.FieldValue("nonexistent"); err == nil {
		t.Error("expected an error for an unknown field")
	}
}

func TestPatchApplyOnlyTouchesSetFields(t *testing.T) {
	issue := &Issue{Title: "Keep", Status: StatusTodo, Priority: PriorityMedium}

	status := StatusDone
	patch := IssuePatch{Status: &status}
	patch.Apply(issue)

	if issue.Status != StatusDone {
		t.Errorf("status = %q, want done", issue.Status)
	}
	if issue.Title != "Keep" || issue.Priority != PriorityMedium {
		t.Error("patch modified fields it did not carry")
	}
	if issue.UpdatedAt.IsZero() {
		t.Error("Apply must bump UpdatedAt")
	}
}

func TestPatchIsZero(t *testing.T) {
	if !(IssuePatch{}).IsZero() {
		t.Error("empty patch must be zero")
	}
	s := "x"
	if (IssuePatch{Title: &s}).IsZero() {
		t.Error("non-empty patch must not be zero")
	}
}
