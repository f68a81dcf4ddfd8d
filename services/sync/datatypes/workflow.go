// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// Workflow rule triggers.
const (
	TriggerCreate = "create"
	TriggerUpdate = "update"
)

// Condition operators. No compound boolean logic; a rule carries exactly one
// single-field comparison.
const (
	OperatorEquals    = "equals"
	OperatorNotEquals = "not_equals"
)

// Action kinds. Each maps onto a single issue field.
const (
	ActionAssign      = "assign"
	ActionMove        = "move"
	ActionSetPriority = "set_priority"
)

// RuleCondition is a single-field string comparison against the issue
// snapshot that triggered evaluation.
type RuleCondition struct {
	Field    string `json:"field" binding:"required"`
	Operator string `json:"operator" binding:"omitempty,oneof=equals not_equals"`
	Value    string `json:"value" binding:"required"`
}

// RuleAction is the single-field write applied when the condition matches.
// Value is a user id, a status, or a priority depending on Type.
type RuleAction struct {
	Type  string `json:"type" binding:"required,oneof=assign move set_priority"`
	Value string `json:"value" binding:"required"`
}

// WorkflowRule is a trigger + condition + action automation. Rules are
// re-fetched from the store on every mutation; nothing is cached.
type WorkflowRule struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Trigger   string        `json:"trigger"`
	Condition RuleCondition `json:"condition"`
	Action    RuleAction    `json:"action"`
	Enabled   bool          `json:"enabled"`
	CreatedBy string        `json:"createdBy,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// CreateRuleRequest creates a workflow rule. Enabled defaults to true.
type CreateRuleRequest struct {
	Name      string        `json:"name" binding:"required"`
	Trigger   string        `json:"trigger" binding:"required,oneof=create update"`
	Condition RuleCondition `json:"condition" binding:"required"`
	Action    RuleAction    `json:"action" binding:"required"`
	Enabled   *bool         `json:"enabled"`
}

// UpdateRuleRequest is a partial rule update.
type UpdateRuleRequest struct {
	Name      *string        `json:"name"`
	Trigger   *string        `json:"trigger" binding:"omitempty,oneof=create update"`
	Condition *RuleCondition `json:"condition"`
	Action    *RuleAction    `json:"action"`
	Enabled   *bool          `json:"enabled"`
}
