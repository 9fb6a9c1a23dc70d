// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// PART VARIANTS
// =============================================================================

// Part is one semantic unit inside a Turn. The set of implementations
// is closed: concrete part types embed the unexported marker method so
// translators can switch exhaustively.
type Part interface{ isPart() }

// TextPart is a plain text segment.
type TextPart struct {
	Text string
}

func (TextPart) isPart() {}

// FunctionCallPart is a structured call the assistant wants executed.
// ID is assigned when the call is recovered from assistant text, since
// the wire format has no native slot for it.
type FunctionCallPart struct {
	ID        string
	Name      string
	Arguments map[string]any
}

func (FunctionCallPart) isPart() {}

// FunctionResultPart carries the outcome of an executed function back
// into the conversation. Name is optional; some callers only know the
// value.
type FunctionResultPart struct {
	Name  string
	Value any
}

func (FunctionResultPart) isPart() {}

// InlinePart is an opaque binary reference (image, audio, ...). The
// wire format has no structured slot for it, so it is summarized into
// the text stream on translation.
type InlinePart struct {
	MIMEType string
	Note     string
}

func (InlinePart) isPart() {}

// FileRefPart references external content by URI. Like InlinePart it
// is summarized, not transmitted.
type FileRefPart struct {
	URI string
}

func (FileRefPart) isPart() {}
