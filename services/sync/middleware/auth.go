// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides HTTP middleware for the sync service.
//
// The auth middleware extracts a bearer token from the Authorization header,
// validates it with the configured auth.Provider, and stores the resulting
// Identity in the gin context for downstream handlers.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/teamsync-labs/teamsync/pkg/auth"
)

// identityKey is the gin context key for the authenticated identity.
// A namespaced key prevents collisions with other context values.
const identityKey = "teamsync_identity"

// SetIdentity stores the authenticated identity in the gin context. Called
// by AuthMiddleware after successful validation; exported for handler tests.
func SetIdentity(c *gin.Context, identity *auth.Identity) {
	c.Set(identityKey, identity)
}

// GetIdentity retrieves the authenticated identity, or nil when the request
// was not authenticated (or the stored value has the wrong type).
func GetIdentity(c *gin.Context) *auth.Identity {
	if v, exists := c.Get(identityKey); exists {
		if identity, ok := v.(*auth.Identity); ok {
			return identity
		}
	}
	return nil
}

// AuthMiddleware authenticates requests with the provider and aborts
// unauthenticated ones with 401. Only Bearer tokens are supported.
func AuthMiddleware(provider auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)

		identity, err := provider.Validate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "unauthorized",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication failed",
			})
			return
		}

		SetIdentity(c, identity)
		c.Next()
	}
}

// extractBearerToken parses "Authorization: Bearer <token>", returning ""
// when the header is missing or malformed. The prefix is case-insensitive
// per RFC 7235.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
