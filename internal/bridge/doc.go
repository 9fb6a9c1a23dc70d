// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bridge translates between the provider-neutral conversation
// model and the inference endpoint's wire dialect, and orchestrates
// generation.
//
// # Key Types
//
//   - Bridge: the orchestrator; GenerateOnce and GenerateStream are the
//     two public operations.
//   - Compose: merges a request with the effective settings into one
//     wire-level chat request.
//   - ToWire / FromWire: the bidirectional turn translation. The wire
//     format is flat strings, so non-text parts are rendered into the
//     content stream going out and only function calls are recovered
//     coming back.
//   - RecoverParts: the text-embedded function call parser. The
//     endpoint has no native tool protocol; the model announces calls
//     with a textual marker that this parser reverses.
//
// # Usage
//
//	settings, _ := config.Load()
//	b := bridge.New(settings)
//	resp, err := b.GenerateOnce(ctx, model.Request{
//		Turns: []model.Turn{model.NewUserTurn("hello")},
//	})
package bridge
