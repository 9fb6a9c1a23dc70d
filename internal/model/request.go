// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// GENERATION REQUEST
// =============================================================================

// Request is one provider-neutral generation request. Sampling
// overrides are pointers so an absent override is distinguishable from
// an explicit zero; absent values fall back to the effective settings.
type Request struct {
	// Model overrides the configured model when non-empty.
	Model string

	// Turns is the ordered conversation to send.
	Turns []Turn

	// System is an explicit system instruction. When empty, the
	// settings-level system prompt applies instead.
	System string

	// Tools are function declarations rendered into the injected
	// system instruction (the endpoint has no native tool protocol).
	Tools []ToolDecl

	// Sampling overrides.
	Temperature *float64
	TopP        *float64
	NumCtx      *int

	// KeepAlive overrides the configured keep-alive duration string.
	KeepAlive string
}

// ToolDecl declares one callable function to the model.
type ToolDecl struct {
	Name        string
	Description string
	Params      []ParamDecl
}

// ParamDecl describes one parameter of a declared function.
type ParamDecl struct {
	Name        string
	Description string
}

// =============================================================================
// GENERATION RESPONSE
// =============================================================================

// FinishReason describes why a generation stopped. The endpoint has no
// semantic finish reason, so the bridge maps its completion flag onto
// this closed set.
type FinishReason string

const (
	// FinishStop means the endpoint reported a completed generation.
	FinishStop FinishReason = "stop"
	// FinishOther means the generation ended without a terminal record.
	FinishOther FinishReason = "other"
)

// Usage holds token accounting for one generation.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the neutral result of a single-shot generation.
type Response struct {
	Parts        []Part
	Usage        Usage
	FinishReason FinishReason
}

// Text returns the concatenated text content of the response parts.
func (r *Response) Text() string {
	var out string
	for _, p := range r.Parts {
		if tp, ok := p.(TextPart); ok {
			out += tp.Text
		}
	}
	return out
}

// FunctionCalls returns the function call parts of the response.
func (r *Response) FunctionCalls() []FunctionCallPart {
	var calls []FunctionCallPart
	for _, p := range r.Parts {
		if c, ok := p.(FunctionCallPart); ok {
			calls = append(calls, c)
		}
	}
	return calls
}

// StreamEvent is one element of a streamed generation: the parts
// decoded from one wire record, the completion flag, and, on the final
// event, cumulative usage.
type StreamEvent struct {
	Parts []Part
	Done  bool
	Usage Usage
}

// =============================================================================
// TOKEN ESTIMATION
// =============================================================================

// EstimateTokens gives a rough token count for a text using the ~4
// characters per token approximation, rounding up.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
