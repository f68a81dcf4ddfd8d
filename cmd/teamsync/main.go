// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the CLI configuration loaded from config.yaml. Every field has a
// working default so the file is optional.
type Config struct {
	Server struct {
		// URL of the sync service, e.g. http://localhost:12400.
		URL string `yaml:"url"`
	} `yaml:"server"`
	Auth struct {
		// Token is the bearer token used for authenticated endpoints.
		// The TEAMSYNC_TOKEN env var takes precedence.
		Token string `yaml:"token"`
	} `yaml:"auth"`
}

var config Config

func loadConfig() {
	config.Server.URL = "http://localhost:12400"

	yamlFile, err := os.ReadFile("config.yaml")
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("Error reading config.yaml: %v", err)
		}
		return
	}
	if err := yaml.Unmarshal(yamlFile, &config); err != nil {
		log.Fatalf("Error parsing config.yaml: %v", err)
	}
	if config.Server.URL == "" {
		config.Server.URL = "http://localhost:12400"
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
