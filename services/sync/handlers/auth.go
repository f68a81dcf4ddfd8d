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
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/teamsync-labs/teamsync/pkg/auth"
	"github.com/teamsync-labs/teamsync/services/sync/datatypes"
	"github.com/teamsync-labs/teamsync/services/sync/store"
)

// tokenTTL is how long issued bearer tokens stay valid.
const tokenTTL = 24 * time.Hour

// Register creates an account and returns a bearer token.
func Register(st store.Store, provider auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			slog.Error("failed to hash password", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		user := &datatypes.User{
			ID:           uuid.NewString(),
			Name:         req.Name,
			Email:        strings.ToLower(req.Email),
			PasswordHash: string(hash),
			CreatedAt:    time.Now().UTC(),
		}
		if err := st.Users().Insert(c.Request.Context(), user); err != nil {
			if errors.Is(err, store.ErrConflict) {
				c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
				return
			}
			slog.Error("failed to insert user", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		token, err := provider.Issue(identityOf(user), tokenTTL)
		if err != nil {
			slog.Error("failed to issue token", "userId", user.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		c.JSON(http.StatusCreated, datatypes.AuthResponse{Token: token, User: user.Public()})
	}
}

// Login exchanges credentials for a bearer token. Unknown email and wrong
// password return the same response so the endpoint does not leak which
// accounts exist.
func Login(st store.Store, provider auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, err := st.Users().GetByEmail(c.Request.Context(), req.Email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			slog.Error("failed to look up user", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, err := provider.Issue(identityOf(user), tokenTTL)
		if err != nil {
			slog.Error("failed to issue token", "userId", user.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		c.JSON(http.StatusOK, datatypes.AuthResponse{Token: token, User: user.Public()})
	}
}

// ListUsers returns the public profiles for assignee pickers.
func ListUsers(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := st.Users().List(c.Request.Context())
		if err != nil {
			slog.Error("failed to list users", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		out := make([]datatypes.PublicUser, 0, len(users))
		for _, u := range users {
			out = append(out, u.Public())
		}
		c.JSON(http.StatusOK, out)
	}
}

func identityOf(user *datatypes.User) auth.Identity {
	return auth.Identity{UserID: user.ID, Email: user.Email, Name: user.Name}
}
