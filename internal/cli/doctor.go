// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigbridge/internal/bridge"
	"github.com/jeranaias/rigbridge/internal/ollama"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check endpoint health and installed models",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}

		client := bridge.New(settings).Client()
		ctx := cmd.Context()

		fmt.Printf("endpoint: %s\n", settings.Endpoint)

		if err := client.Ping(ctx); err != nil {
			fmt.Printf("  reachable: no (%v)\n", err)
			if hint := ollama.Hint(err); hint != "" {
				fmt.Printf("  hint: %s\n", hint)
			}
			return nil
		}
		fmt.Println("  reachable: yes")

		models, err := client.ListModels(ctx)
		if err != nil {
			fmt.Printf("  models: unavailable (%v)\n", err)
			return nil
		}

		fmt.Printf("  models: %d installed\n", len(models))
		configured := false
		for _, m := range models {
			marker := " "
			if m.Name == settings.Model {
				marker = "*"
				configured = true
			}
			fmt.Printf("  %s %s (%.1f GB)\n", marker, m.Name, float64(m.Size)/1e9)
		}

		if !configured {
			fmt.Printf("  warning: configured model %q is not installed\n", settings.Model)
			fmt.Println("  hint: install the model on the inference server")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
