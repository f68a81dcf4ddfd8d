// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	serverURL  string
	authToken  string
	jsonOutput bool

	rootCmd = &cobra.Command{
		Use:   "teamsync",
		Short: "A cli to manage a TeamSync board server",
		Long: `TeamSync is a tool for inspecting and administering a TeamSync
				sync service: health, boards, and workflow automation rules.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			loadConfig()
			if serverURL != "" {
				config.Server.URL = serverURL
			}
			if authToken != "" {
				config.Auth.Token = authToken
			}
		},
	}

	// --- Health ---
	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Check whether the sync service is up",
		Run:   runHealthCommand, // Defined in cmd_health.go
	}

	// --- Boards ---
	boardsCmd = &cobra.Command{
		Use:   "boards",
		Short: "List the boards visible to the configured token",
		Run:   runBoardsCommand, // Defined in cmd_boards.go
	}

	// --- Workflow rules ---
	rulesCmd = &cobra.Command{
		Use:   "rules",
		Short: "Manage workflow automation rules",
	}
	rulesListCmd = &cobra.Command{
		Use:   "list",
		Short: "List all workflow rules",
		Run:   runRulesList, // Defined in cmd_rules.go
	}
	rulesEnableCmd = &cobra.Command{
		Use:   "enable [rule-id]",
		Short: "Enable a workflow rule",
		Args:  cobra.ExactArgs(1),
		Run:   runRulesEnable,
	}
	rulesDisableCmd = &cobra.Command{
		Use:   "disable [rule-id]",
		Short: "Disable a workflow rule",
		Args:  cobra.ExactArgs(1),
		Run:   runRulesDisable,
	}
	rulesDeleteCmd = &cobra.Command{
		Use:   "delete [rule-id]",
		Short: "Delete a workflow rule",
		Args:  cobra.ExactArgs(1),
		Run:   runRulesDelete,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "",
		"Sync service URL (overrides config.yaml)")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "",
		"Bearer token (overrides config.yaml and TEAMSYNC_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Print raw JSON responses")

	rulesCmd.AddCommand(rulesListCmd, rulesEnableCmd, rulesDisableCmd, rulesDeleteCmd)
	rootCmd.AddCommand(healthCmd, boardsCmd, rulesCmd)
}
