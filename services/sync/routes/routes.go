// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	openai "github.com/sashabaranov/go-openai"

	"github.com/teamsync-labs/teamsync/pkg/auth"
	"github.com/teamsync-labs/teamsync/services/sync/handlers"
	"github.com/teamsync-labs/teamsync/services/sync/middleware"
	"github.com/teamsync-labs/teamsync/services/sync/realtime"
	"github.com/teamsync-labs/teamsync/services/sync/store"
	"github.com/teamsync-labs/teamsync/services/sync/workflow"
)

// SetupRoutes registers the full HTTP surface of the sync service.
// aiClient and aiModel may be zero when no AI backend is configured; the
// AI endpoint then answers 503.
func SetupRoutes(router *gin.Engine, st store.Store, core *realtime.Core,
	eval *workflow.Evaluator, provider auth.Provider,
	aiClient *openai.Client, aiModel string) {

	bc := realtime.NewBroadcaster(core)

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", handlers.WebSocket(core))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.POST("/auth/register", handlers.Register(st, provider))
		v1.POST("/auth/login", handlers.Login(st, provider))

		// Everything below requires a bearer token.
		authed := v1.Group("")
		authed.Use(middleware.AuthMiddleware(provider))
		{
			authed.GET("/users", handlers.ListUsers(st))

			boards := authed.Group("/boards")
			{
				boards.POST("", handlers.CreateBoard(st))
				boards.GET("", handlers.ListBoards(st))
				boards.GET("/:id", handlers.GetBoard(st))
			}

			issues := authed.Group("/issues")
			{
				issues.GET("", handlers.ListIssues(st))
				issues.POST("", handlers.CreateIssue(st, eval, bc))
				issues.GET("/:id", handlers.GetIssue(st))
				issues.PATCH("/:id", handlers.UpdateIssue(st, eval, bc))
				issues.PUT("/:id/move", handlers.MoveIssue(st, bc))
				issues.DELETE("/:id", handlers.DeleteIssue(st, bc))
				issues.GET("/:id/comments", handlers.ListComments(st))
				issues.GET("/:id/activity", handlers.ListActivity(st))
			}

			authed.POST("/comments", handlers.AddComment(st, bc))

			rules := authed.Group("/workflows")
			{
				rules.POST("", handlers.CreateRule(st))
				rules.GET("", handlers.ListRules(st))
				rules.PATCH("/:id", handlers.UpdateRule(st))
				rules.DELETE("/:id", handlers.DeleteRule(st))
			}

			authed.POST("/ai/suggest", handlers.SuggestDescription(aiClient, aiModel))
		}
	}
}
