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

// runHealthCommand pings the sync service health endpoint.
//
// Examples:
//
//	teamsync health
//	teamsync health --json
//	teamsync health --server http://boards.internal:12400
func runHealthCommand(cmd *cobra.Command, args []string) {
	data, err := apiRequest("GET", "/health", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Sync service unreachable: %v\n", err)
		os.Exit(1)
	}
	if jsonOutput {
		printJSON(data)
		return
	}

	var health struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}
	if err := json.Unmarshal(data, &health); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Unexpected health response: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Service %q is %s at %s\n", health.Service, health.Status, config.Server.URL)
}
