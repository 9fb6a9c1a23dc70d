// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "testing"

// =============================================================================
// TURN TESTS
// =============================================================================

func TestNewUserTurn(t *testing.T) {
	turn := NewUserTurn("Hello")

	if turn.Role != RoleUser {
		t.Errorf("Role = %q, want 'user'", turn.Role)
	}

	if len(turn.Parts) != 1 {
		t.Fatalf("Parts length = %d, want 1", len(turn.Parts))
	}

	if tp, ok := turn.Parts[0].(TextPart); !ok || tp.Text != "Hello" {
		t.Errorf("Parts[0] = %#v, want TextPart{Hello}", turn.Parts[0])
	}
}

func TestNewSystemTurn(t *testing.T) {
	turn := NewSystemTurn("You are a coding assistant")

	if turn.Role != RoleSystem {
		t.Errorf("Role = %q, want 'system'", turn.Role)
	}
}

func TestNewFunctionResultTurn(t *testing.T) {
	turn := NewFunctionResultTurn("read_file", map[string]any{"ok": true})

	if turn.Role != RoleUser {
		t.Errorf("Role = %q, want 'user'", turn.Role)
	}

	fr, ok := turn.Parts[0].(FunctionResultPart)
	if !ok {
		t.Fatalf("Parts[0] = %#v, want FunctionResultPart", turn.Parts[0])
	}

	if fr.Name != "read_file" {
		t.Errorf("Name = %q", fr.Name)
	}
}

func TestTurn_Text(t *testing.T) {
	tests := []struct {
		name string
		turn Turn
		want string
	}{
		{"single text", NewUserTurn("hello"), "hello"},
		{
			"multiple text parts joined with space",
			NewTurn(RoleUser, TextPart{Text: "one"}, TextPart{Text: "two"}),
			"one two",
		},
		{
			"non-text parts ignored",
			NewTurn(RoleAssistant,
				TextPart{Text: "calling"},
				FunctionCallPart{Name: "ls", Arguments: map[string]any{}},
			),
			"calling",
		},
		{"empty turn", NewTurn(RoleUser), ""},
		{
			"whitespace trimmed",
			NewTurn(RoleUser, TextPart{Text: "  padded  "}),
			"padded",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.turn.Text(); got != tc.want {
				t.Errorf("Text() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTurn_FunctionCalls(t *testing.T) {
	turn := NewTurn(RoleAssistant,
		TextPart{Text: "running two tools"},
		FunctionCallPart{Name: "a"},
		FunctionCallPart{Name: "b"},
	)

	calls := turn.FunctionCalls()
	if len(calls) != 2 {
		t.Fatalf("FunctionCalls length = %d, want 2", len(calls))
	}

	if calls[0].Name != "a" || calls[1].Name != "b" {
		t.Errorf("calls = %v, order not preserved", calls)
	}
}

func TestHasSystemRole(t *testing.T) {
	turns := []Turn{NewUserTurn("hi")}
	if HasSystemRole(turns) {
		t.Error("HasSystemRole should be false without a system turn")
	}

	turns = append([]Turn{NewSystemTurn("be terse")}, turns...)
	if !HasSystemRole(turns) {
		t.Error("HasSystemRole should be true with a system turn")
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleAssistant, RoleSystem} {
		if !r.Valid() {
			t.Errorf("Valid(%q) = false", r)
		}
	}

	if Role("tool").Valid() {
		t.Error("Valid('tool') should be false for the neutral model")
	}
}

// =============================================================================
// RESPONSE TESTS
// =============================================================================

func TestResponse_Text(t *testing.T) {
	resp := &Response{
		Parts: []Part{
			TextPart{Text: "before "},
			FunctionCallPart{Name: "ls"},
			TextPart{Text: "after"},
		},
	}

	if got := resp.Text(); got != "before after" {
		t.Errorf("Text() = %q", got)
	}
}

func TestResponse_FunctionCalls(t *testing.T) {
	resp := &Response{
		Parts: []Part{
			TextPart{Text: "x"},
			FunctionCallPart{Name: "read_file", Arguments: map[string]any{"path": "go.mod"}},
		},
	}

	calls := resp.FunctionCalls()
	if len(calls) != 1 {
		t.Fatalf("FunctionCalls length = %d, want 1", len(calls))
	}

	if calls[0].Arguments["path"] != "go.mod" {
		t.Errorf("Arguments = %v", calls[0].Arguments)
	}
}

// =============================================================================
// TOKEN ESTIMATION TESTS
// =============================================================================

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		length int
		want   int
	}{
		{0, 0},
		{1, 1},
		{3, 1},
		{4, 1},
		{5, 2},
		{8, 2},
		{100, 25},
		{101, 26},
	}

	for _, tc := range tests {
		text := make([]byte, tc.length)
		for i := range text {
			text[i] = 'a'
		}

		if got := EstimateTokens(string(text)); got != tc.want {
			t.Errorf("EstimateTokens(len %d) = %d, want %d", tc.length, got, tc.want)
		}
	}
}
