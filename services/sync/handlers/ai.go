// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	openai "github.com/sashabaranov/go-openai"
)

// SuggestRequest asks for a generated issue description.
type SuggestRequest struct {
	Title   string `json:"title" binding:"required"`
	Context string `json:"context"`
}

// SuggestDescription generates an issue description from a title. Returns
// 503 when no AI backend is configured; the rest of the service works
// without one.
func SuggestDescription(client *openai.Client, model string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI backend not configured"})
			return
		}
		var req SuggestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		prompt := "Write a concise task description (2-4 sentences) for a kanban card titled: " + req.Title
		if req.Context != "" {
			prompt += "\nAdditional context: " + req.Context
		}

		resp, err := client.CreateChatCompletion(c.Request.Context(), openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: "You write clear, actionable task descriptions for software teams."},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			MaxTokens: 256,
		})
		if err != nil {
			slog.Error("AI completion failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "AI backend error"})
			return
		}
		if len(resp.Choices) == 0 {
			c.JSON(http.StatusBadGateway, gin.H{"error": "AI backend returned no choices"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"description": strings.TrimSpace(resp.Choices[0].Message.Content),
		})
	}
}
