// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jeranaias/rigbridge/internal/model"
	"github.com/jeranaias/rigbridge/internal/ollama"
)

// =============================================================================
// TURN TO WIRE
// =============================================================================

// wireRole maps a neutral role onto the wire role. The mapping is a
// fixed bijection; anything unrecognized goes out as user.
func wireRole(role model.Role) string {
	switch role {
	case model.RoleUser:
		return "user"
	case model.RoleAssistant:
		return "assistant"
	case model.RoleSystem:
		return "system"
	}
	return "user"
}

// ToWire flattens neutral turns into wire messages. The wire format is
// one flat string per message, so structured parts are rendered into
// text:
//
//   - text parts of one turn are joined with a single space and trimmed
//   - each function call becomes its own message rendered as
//     "Function call: <name>(<json-arguments>)"
//   - each function result becomes its own message rendered as
//     "Function response: <json-value>"
//   - inline data and file references are summarized as bracketed
//     placeholders inside the text stream
//
// The summarization is lossy on purpose; only function calls are ever
// reconstructed on the way back.
func ToWire(turns []model.Turn) []ollama.Message {
	var messages []ollama.Message

	for _, turn := range turns {
		role := wireRole(turn.Role)

		var pieces []string
		var calls []model.FunctionCallPart
		var results []model.FunctionResultPart

		for _, part := range turn.Parts {
			switch p := part.(type) {
			case model.TextPart:
				if p.Text != "" {
					pieces = append(pieces, p.Text)
				}
			case model.FunctionCallPart:
				calls = append(calls, p)
			case model.FunctionResultPart:
				results = append(results, p)
			case model.InlinePart:
				pieces = append(pieces, "[Inline data: "+p.MIMEType+"]")
			case model.FileRefPart:
				pieces = append(pieces, "[File: "+p.URI+"]")
			}
		}

		if text := strings.TrimSpace(strings.Join(pieces, " ")); text != "" {
			messages = append(messages, ollama.Message{Role: role, Content: text})
		}

		for _, call := range calls {
			messages = append(messages, ollama.Message{
				Role:    role,
				Content: renderFunctionCall(call),
			})
		}

		for _, result := range results {
			messages = append(messages, ollama.Message{
				Role:    role,
				Content: renderFunctionResult(result),
			})
		}
	}

	return messages
}

func renderFunctionCall(call model.FunctionCallPart) string {
	args, err := json.Marshal(call.Arguments)
	if err != nil {
		args = []byte("{}")
	}
	return fmt.Sprintf("Function call: %s(%s)", call.Name, args)
}

func renderFunctionResult(result model.FunctionResultPart) string {
	value, err := json.Marshal(result.Value)
	if err != nil {
		value = []byte(fmt.Sprintf("%q", fmt.Sprint(result.Value)))
	}
	return "Function response: " + string(value)
}

// =============================================================================
// WIRE TO PARTS
// =============================================================================

// FromWire reconstructs neutral parts from a finished assistant
// content string. Recovery of embedded function calls is the whole
// reverse translation; see RecoverParts.
func FromWire(content string) []model.Part {
	return RecoverParts(content)
}
