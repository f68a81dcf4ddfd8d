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
)

// AddComment appends a comment to an issue thread. Two emits follow the
// write: a board-room payload so cards can bump their comment count, and a
// comment-room refresh nudge for anyone with the thread open.
func AddComment(st store.Store, bc *realtime.Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := middleware.GetIdentity(c)
		if identity == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var req datatypes.AddCommentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		if _, err := st.Issues().Get(ctx, req.IssueID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "issue not found"})
				return
			}
			slog.Error("failed to get issue", "issueId", req.IssueID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		comment := &datatypes.Comment{
			ID:        uuid.NewString(),
			IssueID:   req.IssueID,
			Author:    identity.UserID,
			Text:      req.Text,
			CreatedAt: time.Now().UTC(),
		}
		if user, err := st.Users().Get(ctx, identity.UserID); err == nil {
			pub := user.Public()
			comment.AuthorUser = &pub
		}
		if err := st.Comments().Insert(ctx, comment); err != nil {
			slog.Error("failed to insert comment", "issueId", req.IssueID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		bc.CommentAdded(datatypes.CommentAddedPayload{Comment: *comment, BoardID: req.BoardID})
		bc.RefreshComments(comment.IssueID)
		c.JSON(http.StatusCreated, comment)
	}
}

// ListComments returns an issue's thread, oldest first, with author profiles
// resolved.
func ListComments(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		comments, err := st.Comments().ListByIssue(ctx, c.Param("id"))
		if err != nil {
			slog.Error("failed to list comments", "issueId", c.Param("id"), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		authors := map[string]*datatypes.PublicUser{}
		for _, comment := range comments {
			if comment.AuthorUser != nil || comment.Author == "" {
				continue
			}
			pub, ok := authors[comment.Author]
			if !ok {
				if u, err := st.Users().Get(ctx, comment.Author); err == nil {
					p := u.Public()
					pub = &p
				}
				authors[comment.Author] = pub
			}
			comment.AuthorUser = pub
		}
		if comments == nil {
			comments = []*datatypes.Comment{}
		}
		c.JSON(http.StatusOK, comments)
	}
}
