// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigbridge/internal/model"
)

func TestToWire_TextTurns(t *testing.T) {
	turns := []model.Turn{
		model.NewSystemTurn("be terse"),
		model.NewUserTurn("hello"),
		model.NewAssistantTurn("hi"),
	}

	messages := ToWire(turns)
	require.Len(t, messages, 3)

	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "be terse", messages[0].Content)
	assert.Equal(t, "user", messages[1].Role)
	assert.Equal(t, "assistant", messages[2].Role)
}

func TestToWire_JoinsTextPartsWithSingleSpace(t *testing.T) {
	turn := model.NewTurn(model.RoleUser,
		model.TextPart{Text: "  first "},
		model.TextPart{Text: "second  "},
	)

	messages := ToWire([]model.Turn{turn})
	require.Len(t, messages, 1)
	assert.Equal(t, "first  second", messages[0].Content)
}

func TestToWire_UnknownRoleDefaultsToUser(t *testing.T) {
	turn := model.NewTurn(model.Role("oracle"), model.TextPart{Text: "x"})

	messages := ToWire([]model.Turn{turn})
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].Role)
}

func TestToWire_FunctionCallRendering(t *testing.T) {
	turn := model.NewTurn(model.RoleAssistant,
		model.TextPart{Text: "I'll look that up."},
		model.FunctionCallPart{Name: "search", Arguments: map[string]any{"q": "go"}},
	)

	messages := ToWire([]model.Turn{turn})
	require.Len(t, messages, 2)

	assert.Equal(t, "I'll look that up.", messages[0].Content)
	assert.Equal(t, `Function call: search({"q":"go"})`, messages[1].Content)
	assert.Equal(t, "assistant", messages[1].Role)
}

func TestToWire_FunctionResultRendering(t *testing.T) {
	turn := model.NewFunctionResultTurn("search", map[string]any{"hits": 3})

	messages := ToWire([]model.Turn{turn})
	require.Len(t, messages, 1)
	assert.Equal(t, `Function response: {"hits":3}`, messages[0].Content)
	assert.Equal(t, "user", messages[0].Role)
}

func TestToWire_PlaceholderParts(t *testing.T) {
	turn := model.NewTurn(model.RoleUser,
		model.TextPart{Text: "see attachment"},
		model.InlinePart{MIMEType: "image/png"},
		model.FileRefPart{URI: "file:///tmp/a.go"},
	)

	messages := ToWire([]model.Turn{turn})
	require.Len(t, messages, 1)
	assert.Equal(t, "see attachment [Inline data: image/png] [File: file:///tmp/a.go]", messages[0].Content)
}

func TestToWire_EmptyTextTurnEmitsNothing(t *testing.T) {
	turn := model.NewTurn(model.RoleUser, model.TextPart{Text: "   "})

	messages := ToWire([]model.Turn{turn})
	assert.Empty(t, messages)
}

func TestRoundTrip_TextOnly(t *testing.T) {
	// Flattening text-only turns and recovering the content is
	// idempotent: the text comes back exactly once, unchanged.
	turns := []model.Turn{model.NewAssistantTurn("a plain answer")}

	messages := ToWire(turns)
	require.Len(t, messages, 1)

	parts := FromWire(messages[0].Content)
	require.Len(t, parts, 1)

	text, ok := parts[0].(model.TextPart)
	require.True(t, ok)
	assert.Equal(t, "a plain answer", text.Text)
}
