// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs the issue enum validations on gin's binding
// engine. Call once at startup before the first request is bound.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("issuestatus", validIssueStatus); err != nil {
		return err
	}
	return v.RegisterValidation("issuepriority", validIssuePriority)
}

func validIssueStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

func validIssuePriority(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
