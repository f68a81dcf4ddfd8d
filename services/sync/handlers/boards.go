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
	"github.com/teamsync-labs/teamsync/services/sync/store"
)

// CreateBoard creates a board owned by the caller, who becomes its first
// member.
func CreateBoard(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := middleware.GetIdentity(c)
		if identity == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var req datatypes.CreateBoardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		board := &datatypes.Board{
			ID:          uuid.NewString(),
			Name:        req.Name,
			Description: req.Description,
			Owner:       identity.UserID,
			Members:     []string{identity.UserID},
			CreatedAt:   time.Now().UTC(),
		}
		if err := st.Boards().Insert(c.Request.Context(), board); err != nil {
			slog.Error("failed to insert board", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		c.JSON(http.StatusCreated, board)
	}
}

// ListBoards returns the caller's boards, newest first.
func ListBoards(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := middleware.GetIdentity(c)
		if identity == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		boards, err := st.Boards().ListByMember(c.Request.Context(), identity.UserID)
		if err != nil {
			slog.Error("failed to list boards", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		if boards == nil {
			boards = []*datatypes.Board{}
		}
		c.JSON(http.StatusOK, boards)
	}
}

// GetBoard returns one board together with its issues sorted by order.
func GetBoard(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		board, err := st.Boards().Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "board not found"})
				return
			}
			slog.Error("failed to get board", "boardId", c.Param("id"), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		issues, err := st.Issues().ListByBoard(c.Request.Context(), board.ID)
		if err != nil {
			slog.Error("failed to list board issues", "boardId", board.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		resolveAssignees(c, st, issues)
		if issues == nil {
			issues = []*datatypes.Issue{}
		}
		c.JSON(http.StatusOK, datatypes.BoardWithIssues{Board: board, Issues: issues})
	}
}
