// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn is one provider-neutral message: a role plus ordered parts.
// The role is fixed at construction; parts must be non-empty for any
// turn that enters a conversation.
type Turn struct {
	Role  Role
	Parts []Part
}

// NewTurn creates a turn with the given role and parts.
func NewTurn(role Role, parts ...Part) Turn {
	return Turn{Role: role, Parts: parts}
}

// NewUserTurn creates a user turn holding a single text part.
func NewUserTurn(text string) Turn {
	return NewTurn(RoleUser, TextPart{Text: text})
}

// NewAssistantTurn creates an assistant turn holding a single text part.
func NewAssistantTurn(text string) Turn {
	return NewTurn(RoleAssistant, TextPart{Text: text})
}

// NewSystemTurn creates a system turn holding a single text part.
func NewSystemTurn(text string) Turn {
	return NewTurn(RoleSystem, TextPart{Text: text})
}

// NewFunctionResultTurn creates a user turn carrying one function result.
func NewFunctionResultTurn(name string, value any) Turn {
	return NewTurn(RoleUser, FunctionResultPart{Name: name, Value: value})
}

// =============================================================================
// TURN METHODS
// =============================================================================

// IsEmpty reports whether the turn carries no parts.
func (t Turn) IsEmpty() bool {
	return len(t.Parts) == 0
}

// Text returns the concatenation of all text parts, joined with a
// single space. Non-text parts are ignored.
func (t Turn) Text() string {
	var pieces []string
	for _, p := range t.Parts {
		if tp, ok := p.(TextPart); ok && tp.Text != "" {
			pieces = append(pieces, tp.Text)
		}
	}
	return strings.TrimSpace(strings.Join(pieces, " "))
}

// FunctionCalls returns the function call parts of the turn, in order.
func (t Turn) FunctionCalls() []FunctionCallPart {
	var calls []FunctionCallPart
	for _, p := range t.Parts {
		if c, ok := p.(FunctionCallPart); ok {
			calls = append(calls, c)
		}
	}
	return calls
}

// HasSystemRole reports whether any turn in the slice is a system turn.
func HasSystemRole(turns []Turn) bool {
	for _, t := range turns {
		if t.Role == RoleSystem {
			return true
		}
	}
	return false
}
