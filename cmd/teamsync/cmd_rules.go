// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runRulesList prints every workflow rule, newest first.
func runRulesList(cmd *cobra.Command, args []string) {
	data, err := apiRequest("GET", "/v1/workflows", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to list rules: %v\n", err)
		os.Exit(1)
	}
	if jsonOutput {
		printJSON(data)
		return
	}

	var rules []struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Trigger   string `json:"trigger"`
		Enabled   bool   `json:"enabled"`
		Condition struct {
			Field    string `json:"field"`
			Operator string `json:"operator"`
			Value    string `json:"value"`
		} `json:"condition"`
		Action struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"action"`
	}
	if err := json.Unmarshal(data, &rules); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Unexpected rules response: %v\n", err)
		os.Exit(1)
	}
	if len(rules) == 0 {
		fmt.Println("No workflow rules defined.")
		return
	}
	for _, r := range rules {
		state := "enabled"
		if !r.Enabled {
			state = "disabled"
		}
		fmt.Printf("%s  [%s, %s]  %s: when %s %s %q then %s %q\n",
			r.ID, r.Trigger, state, r.Name,
			r.Condition.Field, r.Condition.Operator, r.Condition.Value,
			r.Action.Type, r.Action.Value)
	}
}

func runRulesEnable(cmd *cobra.Command, args []string) {
	setRuleEnabled(args[0], true)
}

func runRulesDisable(cmd *cobra.Command, args []string) {
	setRuleEnabled(args[0], false)
}

func setRuleEnabled(id string, enabled bool) {
	data, err := apiRequest("PATCH", "/v1/workflows/"+id, map[string]any{"enabled": enabled})
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to update rule: %v\n", err)
		os.Exit(1)
	}
	if jsonOutput {
		printJSON(data)
		return
	}
	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	fmt.Printf("✅ Rule %s %s\n", id, state)
}

func runRulesDelete(cmd *cobra.Command, args []string) {
	if _, err := apiRequest("DELETE", "/v1/workflows/"+args[0], nil); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to delete rule: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Rule %s deleted\n", args[0])
}
