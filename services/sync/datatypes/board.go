// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// Board is a kanban board. Members may read and mutate its issues.
type Board struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Owner       string    `json:"owner"`
	Members     []string  `json:"members"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HasMember reports whether userID belongs to the board.
func (b *Board) HasMember(userID string) bool {
	for _, m := range b.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// CreateBoardRequest creates a new board owned by the caller.
type CreateBoardRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// BoardWithIssues is the GET /boards/:id response shape.
type BoardWithIssues struct {
	Board  *Board   `json:"board"`
	Issues []*Issue `json:"issues"`
}
