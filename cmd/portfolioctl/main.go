// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/PortfolioLocal/pkg/logging"
)

// Config holds the CLI configuration, loaded from portfolioctl.yaml.
type Config struct {
	// ServerURL is the base URL of the portfolio service.
	ServerURL string `yaml:"server_url"`

	// APIToken is the bearer token for authenticated requests.
	APIToken string `yaml:"api_token"`

	// UserID is the default user to operate on.
	UserID string `yaml:"user_id"`

	// LogLevel sets the CLI log verbosity (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

var (
	config Config
	logger *logging.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		configPath := os.Getenv("PORTFOLIOCTL_CONFIG")
		if configPath == "" {
			configPath = "portfolioctl.yaml"
		}
		if yamlFile, err := os.ReadFile(configPath); err == nil {
			if err := yaml.Unmarshal(yamlFile, &config); err != nil {
				log.Fatalf("Error parsing %s: %v", configPath, err)
			}
		}

		// Flags and environment override the file.
		if serverURL != "" {
			config.ServerURL = serverURL
		}
		if config.ServerURL == "" {
			config.ServerURL = "http://localhost:12230"
		}
		if token := os.Getenv("PORTFOLIO_API_TOKEN"); token != "" {
			config.APIToken = token
		}
		if userID != "" {
			config.UserID = userID
		}

		var err error
		logger, err = logging.New(logging.Config{
			Level:   logging.ParseLevel(config.LogLevel),
			Service: "portfolioctl",
		})
		if err != nil {
			log.Printf("Warning: %v", err)
		}
	}
}
