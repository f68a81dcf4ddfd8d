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

// CreateRule registers a workflow rule. Rules take effect on the next
// mutation; the evaluator reads the store fresh every pass.
func CreateRule(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := middleware.GetIdentity(c)
		if identity == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var req datatypes.CreateRuleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		enabled := true
		if req.Enabled != nil {
			enabled = *req.Enabled
		}
		now := time.Now().UTC()
		rule := &datatypes.WorkflowRule{
			ID:        uuid.NewString(),
			Name:      req.Name,
			Trigger:   req.Trigger,
			Condition: req.Condition,
			Action:    req.Action,
			Enabled:   enabled,
			CreatedBy: identity.UserID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := st.Rules().Insert(c.Request.Context(), rule); err != nil {
			slog.Error("failed to insert rule", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		c.JSON(http.StatusCreated, rule)
	}
}

// ListRules returns all workflow rules, newest first.
func ListRules(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		rules, err := st.Rules().List(c.Request.Context())
		if err != nil {
			slog.Error("failed to list rules", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		if rules == nil {
			rules = []*datatypes.WorkflowRule{}
		}
		c.JSON(http.StatusOK, rules)
	}
}

// UpdateRule applies a partial rule update.
func UpdateRule(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.UpdateRuleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		rule, err := st.Rules().Get(ctx, c.Param("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
				return
			}
			slog.Error("failed to get rule", "ruleId", c.Param("id"), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		if req.Name != nil {
			rule.Name = *req.Name
		}
		if req.Trigger != nil {
			rule.Trigger = *req.Trigger
		}
		if req.Condition != nil {
			rule.Condition = *req.Condition
		}
		if req.Action != nil {
			rule.Action = *req.Action
		}
		if req.Enabled != nil {
			rule.Enabled = *req.Enabled
		}
		rule.UpdatedAt = time.Now().UTC()

		if err := st.Rules().Update(ctx, rule); err != nil {
			slog.Error("failed to update rule", "ruleId", rule.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		c.JSON(http.StatusOK, rule)
	}
}

// DeleteRule removes a workflow rule.
func DeleteRule(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := st.Rules().Delete(c.Request.Context(), c.Param("id")); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
				return
			}
			slog.Error("failed to delete rule", "ruleId", c.Param("id"), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}
