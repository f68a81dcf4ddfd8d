// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"fmt"
	"strconv"
	"time"
)

// Issue statuses map 1:1 onto board columns.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in-progress"
	StatusDone       = "done"
)

// Issue priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Issue is a work item on a board. Assignee holds a user id; AssigneeUser is
// the resolved public profile attached for responses and broadcasts.
type Issue struct {
	ID           string      `json:"id"`
	BoardID      string      `json:"boardId"`
	Title        string      `json:"title"`
	Description  string      `json:"description,omitempty"`
	Tags         []string    `json:"tags"`
	Status       string      `json:"status"`
	Priority     string      `json:"priority"`
	Assignee     string      `json:"assignee,omitempty"`
	AssigneeUser *PublicUser `json:"assigneeUser,omitempty"`
	Order        int         `json:"order"`
	CreatedBy    string      `json:"createdBy"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// FieldValue returns the stringified value of a named issue field. Workflow
// rule conditions compare against this; comparisons are string equality only,
// so every supported field stringifies.
func (i *Issue) FieldValue(field string) (string, error) {
	switch field {
	case "title":
		return i.Title, nil
	case "description":
		return i.Description, nil
	case "status":
		return i.Status, nil
	case "priority":
		return i.Priority, nil
	case "assignee":
		return i.Assignee, nil
	case "boardId":
		return i.BoardID, nil
	case "order":
		return strconv.Itoa(i.Order), nil
	default:
		return "", fmt.Errorf("issue has no field %q", field)
	}
}

// IssuePatch is a partial issue update. Nil pointers leave the field as is.
// Both client updates and automation actions flow through the same patch
// shape so the store has a single read-modify-write path.
type IssuePatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Status      *string   `json:"status,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	Assignee    *string   `json:"assignee,omitempty"`
	Order       *int      `json:"order,omitempty"`
}

// Apply writes the non-nil patch fields onto the issue and bumps UpdatedAt.
func (p IssuePatch) Apply(i *Issue) {
	if p.Title != nil {
		i.Title = *p.Title
	}
	if p.Description != nil {
		i.Description = *p.Description
	}
	if p.Tags != nil {
		i.Tags = *p.Tags
	}
	if p.Status != nil {
		i.Status = *p.Status
	}
	if p.Priority != nil {
		i.Priority = *p.Priority
	}
	if p.Assignee != nil {
		i.Assignee = *p.Assignee
	}
	if p.Order != nil {
		i.Order = *p.Order
	}
	i.UpdatedAt = time.Now().UTC()
}

// IsZero reports whether the patch changes nothing.
func (p IssuePatch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.Tags == nil &&
		p.Status == nil && p.Priority == nil && p.Assignee == nil && p.Order == nil
}

// CreateIssueRequest creates an issue on a board. Status and priority fall
// back to their defaults when omitted.
type CreateIssueRequest struct {
	BoardID     string   `json:"boardId" binding:"required"`
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Priority    string   `json:"priority" binding:"omitempty,issuepriority"`
	Assignee    string   `json:"assignee"`
	Status      string   `json:"status" binding:"omitempty,issuestatus"`
}

// UpdateIssueRequest is a client-initiated partial update.
type UpdateIssueRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	Status      *string   `json:"status" binding:"omitempty,issuestatus"`
	Priority    *string   `json:"priority" binding:"omitempty,issuepriority"`
	Assignee    *string   `json:"assignee"`
}

// Patch converts the request into a store patch.
func (r UpdateIssueRequest) Patch() IssuePatch {
	return IssuePatch{
		Title:       r.Title,
		Description: r.Description,
		Tags:        r.Tags,
		Status:      r.Status,
		Priority:    r.Priority,
		Assignee:    r.Assignee,
	}
}

// MoveIssueRequest drags an issue to a column position.
type MoveIssueRequest struct {
	ToStatus string `json:"toStatus" binding:"required,issuestatus"`
	ToOrder  int    `json:"toOrder"`
}

// IssueMovedPayload is the board-room broadcast for a move. The full issue
// rides along so clients can update in place without a re-fetch.
type IssueMovedPayload struct {
	IssueID  string `json:"issueId"`
	BoardID  string `json:"boardId"`
	ToStatus string `json:"toStatus"`
	ToOrder  int    `json:"toOrder"`
	Issue    *Issue `json:"issue"`
}

// IssueDeletedPayload is the board-room broadcast for a delete.
type IssueDeletedPayload struct {
	IssueID string `json:"issueId"`
	BoardID string `json:"boardId"`
}
