// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// Activity actions recorded on the issue timeline.
const (
	ActivityCreated    = "created"
	ActivityUpdated    = "updated"
	ActivityMoved      = "moved"
	ActivityAutomation = "automation"
)

// ActivityLog is one issue-timeline entry. UserID is empty for automation
// entries (system actor).
type ActivityLog struct {
	ID        string         `json:"id"`
	IssueID   string         `json:"issueId"`
	UserID    string         `json:"userId,omitempty"`
	User      *PublicUser    `json:"user,omitempty"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// FieldChange records a before/after pair inside an "updated" entry.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}
