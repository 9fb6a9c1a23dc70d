// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigbridge/internal/bridge"
	"github.com/jeranaias/rigbridge/internal/model"
	"github.com/jeranaias/rigbridge/internal/ollama"
)

var flagNoStream bool

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Send one prompt and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		b := bridge.New(settings)
		req := model.Request{
			Turns: []model.Turn{model.NewUserTurn(strings.Join(args, " "))},
		}

		if flagNoStream {
			resp, err := b.GenerateOnce(ctx, req)
			if err != nil {
				return describeFailure(err)
			}
			printParts(resp.Parts)
			return nil
		}

		err = b.GenerateStream(ctx, req, func(event model.StreamEvent) {
			if event.Done {
				fmt.Println()
				printCalls(event.Parts)
				return
			}
			for _, part := range event.Parts {
				if text, ok := part.(model.TextPart); ok {
					fmt.Print(text.Text)
				}
			}
		})
		if err != nil {
			return describeFailure(err)
		}
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&flagNoStream, "no-stream", false, "Wait for the full answer instead of streaming")
	rootCmd.AddCommand(askCmd)
}

func printParts(parts []model.Part) {
	for _, part := range parts {
		if text, ok := part.(model.TextPart); ok {
			fmt.Println(text.Text)
		}
	}
	printCalls(parts)
}

// printCalls renders any recovered function calls after the text.
func printCalls(parts []model.Part) {
	for _, part := range parts {
		call, ok := part.(model.FunctionCallPart)
		if !ok {
			continue
		}
		args, _ := json.Marshal(call.Arguments)
		fmt.Printf("[function call] %s(%s)\n", call.Name, args)
	}
}

// describeFailure attaches the remediation hint to a failed generation.
func describeFailure(err error) error {
	if hint := ollama.Hint(err); hint != "" {
		return fmt.Errorf("%w (hint: %s)", err, hint)
	}
	return err
}
