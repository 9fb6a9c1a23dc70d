// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP transport for the local inference
// endpoint and the parsing of its wire dialect.
//
// The endpoint speaks its own JSON/HTTP protocol: flat {role, content}
// messages in, and either a single JSON object or a newline-delimited
// stream of JSON records out. This package owns everything that
// touches that wire format:
//
//   - Client: HTTP client with per-request deadline, retry with
//     exponential backoff, and remediation hints on failure
//   - Message / ChatRequest / ChatResponse: the wire types
//   - StreamReader: line-by-line reassembly of the streamed response,
//     dropping malformed records without aborting the stream
//   - ParseRecord: structural validation applied to every record
//
// # Usage
//
// Create a client and send a chat request:
//
//	client := ollama.NewClient()
//	resp, err := client.Chat(ctx, ollama.ChatRequest{
//	    Model:    "qwen2.5-coder:14b",
//	    Messages: []ollama.Message{ollama.NewUserMessage("Hello")},
//	})
//
// For streaming responses:
//
//	err := client.ChatStream(ctx, req, func(chunk ollama.StreamChunk) {
//	    fmt.Print(chunk.Content)
//	})
//
// Retries apply only to transport-level failures (connection refused,
// deadline timeout, DNS errors). Application-level HTTP errors and
// caller cancellation are never retried.
package ollama
