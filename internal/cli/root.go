// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli wires the bridge into a small command line surface. All
// protocol logic lives in the internal packages; commands here only
// load settings, call the bridge, and print.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigbridge/internal/config"
)

var (
	flagEndpoint string
	flagModel    string
	version      = "dev"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "rigbridge",
	Short: "Talk to a local inference endpoint from the terminal",
	Long: `rigbridge is the streaming client for a locally hosted inference
endpoint. It composes provider-neutral requests into the endpoint's
wire dialect, streams the answer back, and recovers structured
function calls the model announces in plain text.

Quick Start:
  rigbridge ask "explain this error"     # Stream one answer
  rigbridge doctor                       # Check endpoint health`,
	Version: version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEndpoint, "endpoint", "", "Inference endpoint base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "Model name (overrides config)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadSettings resolves the effective settings for one command run.
func loadSettings() (config.Settings, error) {
	settings, err := config.Load()
	if err != nil {
		return settings, err
	}
	if flagEndpoint != "" {
		settings.Endpoint = flagEndpoint
	}
	if flagModel != "" {
		settings.Model = flagModel
	}
	return settings, nil
}
