// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/teamsync-labs/teamsync/services/sync/datatypes"
	"github.com/teamsync-labs/teamsync/services/sync/middleware"
	"github.com/teamsync-labs/teamsync/services/sync/realtime"
	"github.com/teamsync-labs/teamsync/services/sync/store"
	"github.com/teamsync-labs/teamsync/services/sync/workflow"
)

// ListIssues returns a board's issues sorted by order.
func ListIssues(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		boardID := c.Query("boardId")
		if boardID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "boardId is required"})
			return
		}
		issues, err := st.Issues().ListByBoard(c.Request.Context(), boardID)
		if err != nil {
			slog.Error("failed to list issues", "boardId", boardID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		resolveAssignees(c, st, issues)
		if issues == nil {
			issues = []*datatypes.Issue{}
		}
		c.JSON(http.StatusOK, issues)
	}
}

// GetIssue returns a single issue.
func GetIssue(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		issue, err := st.Issues().Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "issue not found"})
				return
			}
			slog.Error("failed to get issue", "issueId", c.Param("id"), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		resolveAssignee(c, st, issue)
		c.JSON(http.StatusOK, issue)
	}
}

// CreateIssue writes a new issue at the bottom of its column, runs the
// "create" automation pass, and broadcasts the post-automation issue to the
// board room.
func CreateIssue(st store.Store, eval *workflow.Evaluator, bc *realtime.Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := middleware.GetIdentity(c)
		if identity == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var req datatypes.CreateIssueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		status := req.Status
		if status == "" {
			status = datatypes.StatusTodo
		}
		priority := req.Priority
		if priority == "" {
			priority = datatypes.PriorityMedium
		}

		highest, err := st.Issues().MaxOrder(ctx, req.BoardID, status)
		if err != nil {
			slog.Error("failed to compute issue order", "boardId", req.BoardID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		now := time.Now().UTC()
		issue := &datatypes.Issue{
			ID:          uuid.NewString(),
			BoardID:     req.BoardID,
			Title:       req.Title,
			Description: req.Description,
			Tags:        req.Tags,
			Status:      status,
			Priority:    priority,
			Assignee:    req.Assignee,
			Order:       highest + 1,
			CreatedBy:   identity.UserID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if issue.Tags == nil {
			issue.Tags = []string{}
		}
		if err := st.Issues().Insert(ctx, issue); err != nil {
			slog.Error("failed to insert issue", "boardId", req.BoardID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		logActivity(c, st, &datatypes.ActivityLog{
			ID:        uuid.NewString(),
			IssueID:   issue.ID,
			UserID:    identity.UserID,
			Action:    datatypes.ActivityCreated,
			Details:   map[string]any{"title": issue.Title},
			Timestamp: now,
		})

		// Automation may rewrite the issue; re-read so the response and the
		// broadcast both carry the post-automation state.
		if eval.Evaluate(ctx, issue, datatypes.TriggerCreate) {
			if updated, err := st.Issues().Get(ctx, issue.ID); err == nil {
				issue = updated
			} else {
				slog.Warn("failed to re-read issue after automation", "issueId", issue.ID, "error", err)
			}
		}

		resolveAssignee(c, st, issue)
		bc.IssueCreated(issue)
		c.JSON(http.StatusCreated, issue)
	}
}

// UpdateIssue applies a partial update, records the field diff on the
// timeline, runs the "update" automation pass, and broadcasts the result.
func UpdateIssue(st store.Store, eval *workflow.Evaluator, bc *realtime.Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := middleware.GetIdentity(c)
		if identity == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var req datatypes.UpdateIssueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		patch := req.Patch()
		if patch.IsZero() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
			return
		}

		ctx := c.Request.Context()
		id := c.Param("id")
		before, err := st.Issues().Get(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "issue not found"})
				return
			}
			slog.Error("failed to get issue", "issueId", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		issue, err := st.Issues().Patch(ctx, id, patch)
		if err != nil {
			slog.Error("failed to patch issue", "issueId", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		if changes := diffIssues(before, issue); len(changes) > 0 {
			logActivity(c, st, &datatypes.ActivityLog{
				ID:        uuid.NewString(),
				IssueID:   issue.ID,
				UserID:    identity.UserID,
				Action:    datatypes.ActivityUpdated,
				Details:   map[string]any{"changes": changes},
				Timestamp: time.Now().UTC(),
			})
		}

		if eval.Evaluate(ctx, issue, datatypes.TriggerUpdate) {
			if updated, err := st.Issues().Get(ctx, issue.ID); err == nil {
				issue = updated
			} else {
				slog.Warn("failed to re-read issue after automation", "issueId", issue.ID, "error", err)
			}
		}

		resolveAssignee(c, st, issue)
		bc.IssueUpdated(issue)
		c.JSON(http.StatusOK, issue)
	}
}

// MoveIssue drags an issue to a column position. Moves skip automation:
// drag-and-drop is high-frequency and the reference behavior only evaluates
// rules on create and update.
func MoveIssue(st store.Store, bc *realtime.Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := middleware.GetIdentity(c)
		if identity == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var req datatypes.MoveIssueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		id := c.Param("id")
		before, err := st.Issues().Get(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "issue not found"})
				return
			}
			slog.Error("failed to get issue", "issueId", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		patch := datatypes.IssuePatch{Status: &req.ToStatus, Order: &req.ToOrder}
		issue, err := st.Issues().Patch(ctx, id, patch)
		if err != nil {
			slog.Error("failed to move issue", "issueId", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		logActivity(c, st, &datatypes.ActivityLog{
			ID:      uuid.NewString(),
			IssueID: issue.ID,
			UserID:  identity.UserID,
			Action:  datatypes.ActivityMoved,
			Details: map[string]any{
				"from": before.Status,
				"to":   issue.Status,
			},
			Timestamp: time.Now().UTC(),
		})

		resolveAssignee(c, st, issue)
		bc.IssueMoved(datatypes.IssueMovedPayload{
			IssueID:  issue.ID,
			BoardID:  issue.BoardID,
			ToStatus: issue.Status,
			ToOrder:  issue.Order,
			Issue:    issue,
		})
		c.JSON(http.StatusOK, issue)
	}
}

// DeleteIssue removes an issue and its comments and announces the deletion.
func DeleteIssue(st store.Store, bc *realtime.Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.Param("id")
		issue, err := st.Issues().Delete(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "issue not found"})
				return
			}
			slog.Error("failed to delete issue", "issueId", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		if err := st.Comments().DeleteByIssue(ctx, id); err != nil {
			slog.Warn("failed to delete issue comments", "issueId", id, "error", err)
		}

		bc.IssueDeleted(datatypes.IssueDeletedPayload{IssueID: id, BoardID: issue.BoardID})
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

// ListActivity returns the issue timeline, newest first, with actor profiles
// resolved. Automation entries have no actor.
func ListActivity(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		entries, err := st.Activity().ListByIssue(ctx, c.Param("id"))
		if err != nil {
			slog.Error("failed to list activity", "issueId", c.Param("id"), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		users := map[string]*datatypes.PublicUser{}
		for _, entry := range entries {
			if entry.UserID == "" {
				continue
			}
			pub, ok := users[entry.UserID]
			if !ok {
				if u, err := st.Users().Get(ctx, entry.UserID); err == nil {
					p := u.Public()
					pub = &p
				}
				users[entry.UserID] = pub
			}
			entry.User = pub
		}
		if entries == nil {
			entries = []*datatypes.ActivityLog{}
		}
		c.JSON(http.StatusOK, entries)
	}
}

// diffIssues records the before/after pairs for the fields an update changed.
// Only the fields a rule or a client can touch are compared.
func diffIssues(before, after *datatypes.Issue) map[string]datatypes.FieldChange {
	changes := map[string]datatypes.FieldChange{}
	if before.Title != after.Title {
		changes["title"] = datatypes.FieldChange{From: before.Title, To: after.Title}
	}
	if before.Description != after.Description {
		changes["description"] = datatypes.FieldChange{From: before.Description, To: after.Description}
	}
	if before.Status != after.Status {
		changes["status"] = datatypes.FieldChange{From: before.Status, To: after.Status}
	}
	if before.Priority != after.Priority {
		changes["priority"] = datatypes.FieldChange{From: before.Priority, To: after.Priority}
	}
	if before.Assignee != after.Assignee {
		changes["assignee"] = datatypes.FieldChange{From: before.Assignee, To: after.Assignee}
	}
	return changes
}

// logActivity writes a timeline entry best-effort. Timeline writes never fail
// the mutation that produced them.
func logActivity(c *gin.Context, st store.Store, entry *datatypes.ActivityLog) {
	if err := st.Activity().Insert(c.Request.Context(), entry); err != nil {
		slog.Warn("failed to record activity", "issueId", entry.IssueID, "action", entry.Action, "error", err)
	}
}

// resolveAssignee attaches the assignee's public profile, when one is set and
// still exists.
func resolveAssignee(c *gin.Context, st store.Store, issue *datatypes.Issue) {
	if issue == nil || issue.Assignee == "" {
		return
	}
	user, err := st.Users().Get(c.Request.Context(), issue.Assignee)
	if err != nil {
		return
	}
	pub := user.Public()
	issue.AssigneeUser = &pub
}

// resolveAssignees resolves assignee profiles for a list, caching lookups
// across issues.
func resolveAssignees(c *gin.Context, st store.Store, issues []*datatypes.Issue) {
	cache := map[string]*datatypes.PublicUser{}
	for _, issue := range issues {
		if issue.Assignee == "" {
			continue
		}
		pub, ok := cache[issue.Assignee]
		if !ok {
			if u, err := st.Users().Get(c.Request.Context(), issue.Assignee); err == nil {
				p := u.Public()
				pub = &p
			}
			cache[issue.Assignee] = pub
		}
		issue.AssigneeUser = pub
	}
}
