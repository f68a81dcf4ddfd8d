// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package store defines the persistence interfaces for the sync service and
// provides the embedded BadgerDB implementation.
//
// The interfaces deliberately expose document-store semantics only: find,
// insert, patch, delete. There is no optimistic concurrency token; concurrent
// patches to the same entity resolve last-write-wins inside a single
// transaction each.
package store

import (
	"context"
	"errors"

	"github.com/teamsync-labs/teamsync/services/sync/datatypes"
)

// ErrNotFound is returned when a looked-up entity does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrConflict is returned when a uniqueness constraint is violated
// (duplicate user email).
var ErrConflict = errors.New("store: conflict")

// IssueStore persists issues.
type IssueStore interface {
	Insert(ctx context.Context, issue *datatypes.Issue) error
	Get(ctx context.Context, id string) (*datatypes.Issue, error)
	// Patch applies a partial update in one read-modify-write transaction
	// and returns the updated issue.
	Patch(ctx context.Context, id string, patch datatypes.IssuePatch) (*datatypes.Issue, error)
	// Delete removes the issue and returns its last state.
	Delete(ctx context.Context, id string) (*datatypes.Issue, error)
	// ListByBoard returns the board's issues sorted by order ascending.
	ListByBoard(ctx context.Context, boardID string) ([]*datatypes.Issue, error)
	// MaxOrder returns the highest order within one board column, or 0 when
	// the column is empty.
	MaxOrder(ctx context.Context, boardID, status string) (int, error)
}

// BoardStore persists boards.
type BoardStore interface {
	Insert(ctx context.Context, board *datatypes.Board) error
	Get(ctx context.Context, id string) (*datatypes.Board, error)
	// ListByMember returns the user's boards, newest first.
	ListByMember(ctx context.Context, userID string) ([]*datatypes.Board, error)
}

// CommentStore persists issue comments.
type CommentStore interface {
	Insert(ctx context.Context, comment *datatypes.Comment) error
	// ListByIssue returns comments oldest first.
	ListByIssue(ctx context.Context, issueID string) ([]*datatypes.Comment, error)
	// DeleteByIssue removes all comments of a deleted issue.
	DeleteByIssue(ctx context.Context, issueID string) error
}

// UserStore persists accounts.
type UserStore interface {
	Insert(ctx context.Context, user *datatypes.User) error
	Get(ctx context.Context, id string) (*datatypes.User, error)
	GetByEmail(ctx context.Context, email string) (*datatypes.User, error)
	List(ctx context.Context) ([]*datatypes.User, error)
}

// RuleStore persists workflow rules.
type RuleStore interface {
	Insert(ctx context.Context, rule *datatypes.WorkflowRule) error
	Get(ctx context.Context, id string) (*datatypes.WorkflowRule, error)
	Update(ctx context.Context, rule *datatypes.WorkflowRule) error
	Delete(ctx context.Context, id string) error
	// List returns all rules, newest first (admin listing order).
	List(ctx context.Context) ([]*datatypes.WorkflowRule, error)
	// ListEnabledByTrigger returns the enabled rules for one trigger sorted
	// by creation time ascending. The evaluator applies them in this order,
	// so when two rules write the same field the newest rule wins.
	ListEnabledByTrigger(ctx context.Context, trigger string) ([]*datatypes.WorkflowRule, error)
}

// ActivityStore persists issue timeline entries.
type ActivityStore interface {
	Insert(ctx context.Context, entry *datatypes.ActivityLog) error
	// ListByIssue returns entries newest first.
	ListByIssue(ctx context.Context, issueID string) ([]*datatypes.ActivityLog, error)
}

// Store bundles the per-entity stores behind one handle.
type Store interface {
	Issues() IssueStore
	Boards() BoardStore
	Comments() CommentStore
	Users() UserStore
	Rules() RuleStore
	Activity() ActivityStore
	Close() error
}
