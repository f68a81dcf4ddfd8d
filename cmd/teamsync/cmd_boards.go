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
	"time"

	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runBoardsCommand lists the boards the configured token can see.
func runBoardsCommand(cmd *cobra.Command, args []string) {
	data, err := apiRequest("GET", "/v1/boards", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to list boards: %v\n", err)
		os.Exit(1)
	}
	if jsonOutput {
		printJSON(data)
		return
	}

	var boards []struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Members   []string  `json:"members"`
		CreatedAt time.Time `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &boards); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Unexpected boards response: %v\n", err)
		os.Exit(1)
	}
	if len(boards) == 0 {
		fmt.Println("No boards found.")
		return
	}
	for _, b := range boards {
		fmt.Printf("%s  %-30s  %d member(s)  created %s\n",
			b.ID, b.Name, len(b.Members), b.CreatedAt.Format("2006-01-02"))
	}
}
