// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the provider-neutral conversation types.
//
// This package defines the turn/part model the rest of the bridge is
// built on: a Turn is one conversational message tagged with a role,
// and each Turn holds an ordered sequence of Parts. A Part is a closed
// tagged variant (text, function call, function result, inline data,
// or file reference), so translators can match exhaustively instead of
// inspecting runtime types.
//
// # Key Types
//
//   - Turn: one message with a role and ordered parts
//   - Part: closed variant set implemented by TextPart, FunctionCallPart,
//     FunctionResultPart, InlinePart, FileRefPart
//   - Request: a generation request with optional sampling overrides
//   - Response / StreamEvent: the neutral generation results
//   - Usage: token accounting for one generation
//
// # Usage
//
// Build a conversation and hand it to the bridge:
//
//	turns := []model.Turn{
//	    model.NewUserTurn("list the files in cmd/"),
//	}
//	req := model.Request{Turns: turns}
package model
