// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import "time"

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Message is one flat wire message. The endpoint has no structured
// content slots: everything a turn carries must be serialized into the
// content string before it goes on the wire.
type Message struct {
	Role    string `json:"role"`    // "user", "assistant", "system"
	Content string `json:"content"` // The message content
}

// ChatRequest is the request body for the /api/chat endpoint.
type ChatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	Stream    bool      `json:"stream"`
	Options   *Options  `json:"options,omitempty"`
	KeepAlive string    `json:"keep_alive,omitempty"` // e.g. "5m"
}

// Options contains model parameters for inference.
type Options struct {
	Temperature float64  `json:"temperature,omitempty"` // 0.0-2.0
	TopP        float64  `json:"top_p,omitempty"`       // 0.0-1.0
	NumPredict  int      `json:"num_predict,omitempty"` // max tokens, -1 unlimited
	NumCtx      int      `json:"num_ctx,omitempty"`     // context window size
	Stop        []string `json:"stop,omitempty"`        // stop sequences
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ChatResponse is one record from the /api/chat endpoint. A
// non-streaming call yields exactly one terminal record; a streaming
// call yields many, the last of which has Done set and carries the
// cumulative usage counters.
type ChatResponse struct {
	Model              string    `json:"model"`
	CreatedAt          time.Time `json:"created_at"`
	Message            Message   `json:"message"`
	Done               bool      `json:"done"`
	TotalDuration      int64     `json:"total_duration,omitempty"`       // nanoseconds
	LoadDuration       int64     `json:"load_duration,omitempty"`        // nanoseconds
	PromptEvalCount    int       `json:"prompt_eval_count,omitempty"`    // prompt tokens
	PromptEvalDuration int64     `json:"prompt_eval_duration,omitempty"` // nanoseconds
	EvalCount          int       `json:"eval_count,omitempty"`           // generated tokens
	EvalDuration       int64     `json:"eval_duration,omitempty"`        // nanoseconds
}

// TokensPerSecond calculates the generation speed from a response.
func (r *ChatResponse) TokensPerSecond() float64 {
	if r.EvalDuration == 0 {
		return 0
	}
	return float64(r.EvalCount) / (float64(r.EvalDuration) / 1e9)
}

// apiError is the error body the endpoint returns on non-2xx statuses.
type apiError struct {
	Error string `json:"error"`
}

// =============================================================================
// MODEL TYPES
// =============================================================================

// ModelInfo describes one installed model from /api/tags.
type ModelInfo struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest"`
}

// ListModelsResponse is the response from the /api/tags endpoint.
type ListModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// =============================================================================
// STREAMING TYPES
// =============================================================================

// StreamChunk is one parsed unit of a streamed response.
type StreamChunk struct {
	// Content fragment from this record.
	Content string

	// Role reported by the record, if any.
	Role string

	// Done marks the terminal record.
	Done bool

	// Timing information (populated on the terminal record only).
	TotalDuration      time.Duration
	LoadDuration       time.Duration
	PromptEvalDuration time.Duration
	EvalDuration       time.Duration

	// Token counts (populated on the terminal record only).
	PromptTokens     int
	CompletionTokens int

	// Model reported by the stream.
	Model string

	// Error set on the synthetic chunk delivered by the channel
	// variant when streaming fails.
	Error error
}

// =============================================================================
// HELPER CONSTRUCTORS
// =============================================================================

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}
