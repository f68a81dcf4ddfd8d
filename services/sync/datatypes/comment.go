// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// Comment is a note on an issue. Author holds a user id; AuthorUser is the
// resolved public profile attached for responses.
type Comment struct {
	ID         string      `json:"id"`
	IssueID    string      `json:"issueId"`
	Author     string      `json:"author"`
	AuthorUser *PublicUser `json:"authorUser,omitempty"`
	Text       string      `json:"text"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// AddCommentRequest adds a comment to an issue. BoardID is carried by the
// client so the board-room emit does not need an extra issue lookup.
type AddCommentRequest struct {
	IssueID string `json:"issueId" binding:"required"`
	BoardID string `json:"boardId"`
	Text    string `json:"text" binding:"required"`
}

// CommentAddedPayload is the board-room broadcast when a comment lands.
// Subscribers of the issue's comment room get a separate refresh nudge.
type CommentAddedPayload struct {
	Comment
	BoardID string `json:"boardId,omitempty"`
}
