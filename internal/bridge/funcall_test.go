// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigbridge/internal/model"
)

func TestRecoverParts_SingleCall(t *testing.T) {
	parts := RecoverParts("FUNCTION_CALL:\n{\"name\":\"foo\",\"arguments\":{\"x\":1}}")

	require.Len(t, parts, 1)
	call, ok := parts[0].(model.FunctionCallPart)
	require.True(t, ok, "part should be a function call, got %T", parts[0])

	assert.Equal(t, "foo", call.Name)
	assert.Equal(t, map[string]any{"x": float64(1)}, call.Arguments)
	assert.NotEmpty(t, call.ID)
}

func TestRecoverParts_NoMarkerIsPlainText(t *testing.T) {
	input := "Just a normal answer.\nWith two lines."
	parts := RecoverParts(input)

	require.Len(t, parts, 1)
	text, ok := parts[0].(model.TextPart)
	require.True(t, ok)
	assert.Equal(t, input, text.Text)
}

func TestRecoverParts_OverflowDegradesToText(t *testing.T) {
	garbage := strings.Repeat("g", 1500)
	parts := RecoverParts("FUNCTION_CALL:\n" + garbage)

	require.Len(t, parts, 1)
	text, ok := parts[0].(model.TextPart)
	require.True(t, ok, "overlong unparseable block should come back as text")
	assert.Equal(t, "FUNCTION_CALL:\n"+garbage, text.Text)
}

func TestRecoverParts_TextBeforeCall(t *testing.T) {
	input := "Let me check that file.\nFUNCTION_CALL:\n{\"name\":\"read_file\",\"arguments\":{\"path\":\"main.go\"}}"
	parts := RecoverParts(input)

	require.Len(t, parts, 2)

	text, ok := parts[0].(model.TextPart)
	require.True(t, ok)
	assert.Equal(t, "Let me check that file.", text.Text)

	call, ok := parts[1].(model.FunctionCallPart)
	require.True(t, ok)
	assert.Equal(t, "read_file", call.Name)
	assert.Equal(t, "main.go", call.Arguments["path"])
}

func TestRecoverParts_MultiLineJSON(t *testing.T) {
	// The call body concatenates across lines with no separator.
	input := "FUNCTION_CALL:\n{\"name\":\"search\",\n\"arguments\":{\"query\":\"retry\"}}"
	parts := RecoverParts(input)

	require.Len(t, parts, 1)
	call, ok := parts[0].(model.FunctionCallPart)
	require.True(t, ok)
	assert.Equal(t, "search", call.Name)
}

func TestRecoverParts_TextResumesAfterCall(t *testing.T) {
	input := "FUNCTION_CALL:\n{\"name\":\"foo\",\"arguments\":{}}\nDone, anything else?"
	parts := RecoverParts(input)

	require.Len(t, parts, 2)
	_, ok := parts[0].(model.FunctionCallPart)
	require.True(t, ok)

	text, ok := parts[1].(model.TextPart)
	require.True(t, ok)
	assert.Equal(t, "Done, anything else?", text.Text)
}

func TestRecoverParts_UnterminatedCallAtEOF(t *testing.T) {
	input := "FUNCTION_CALL:\n{\"name\":\"foo\""
	parts := RecoverParts(input)

	require.Len(t, parts, 1)
	text, ok := parts[0].(model.TextPart)
	require.True(t, ok)
	assert.Equal(t, "FUNCTION_CALL:\n{\"name\":\"foo\"", text.Text)
}

func TestRecoverParts_MissingArgumentsNeverParses(t *testing.T) {
	// Valid JSON but no arguments object: not a call.
	parts := RecoverParts("FUNCTION_CALL:\n{\"name\":\"foo\"}")

	require.Len(t, parts, 1)
	_, ok := parts[0].(model.TextPart)
	assert.True(t, ok)
}

func TestRecoverParts_NeverEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\n"} {
		parts := RecoverParts(input)
		require.Len(t, parts, 1, "input %q", input)

		text, ok := parts[0].(model.TextPart)
		require.True(t, ok)
		assert.Equal(t, input, text.Text, "blank input comes back verbatim")
	}
}

func TestRecoverParts_TwoCallsGetDistinctIDs(t *testing.T) {
	input := "FUNCTION_CALL:\n{\"name\":\"a\",\"arguments\":{}}\nFUNCTION_CALL:\n{\"name\":\"b\",\"arguments\":{}}"
	parts := RecoverParts(input)

	require.Len(t, parts, 2)
	first := parts[0].(model.FunctionCallPart)
	second := parts[1].(model.FunctionCallPart)

	assert.Equal(t, "a", first.Name)
	assert.Equal(t, "b", second.Name)
	assert.NotEqual(t, first.ID, second.ID)
}
