// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"strings"

	"github.com/jeranaias/rigbridge/internal/config"
	"github.com/jeranaias/rigbridge/internal/model"
	"github.com/jeranaias/rigbridge/internal/ollama"
)

// =============================================================================
// REQUEST COMPOSITION
// =============================================================================

// Compose merges a neutral request with the effective settings into one
// wire-level chat request. Explicit request values win; absent ones
// fall back to the settings. The streaming argument is the caller's
// choice of bridge operation: it gates whether the server-side chunking
// preference from the settings is echoed on the wire at all.
func Compose(req model.Request, settings config.Settings, streaming bool) ollama.ChatRequest {
	chatReq := ollama.ChatRequest{
		Model:    req.Model,
		Messages: composeMessages(req, settings),
		Options:  composeOptions(req, settings),
	}

	if chatReq.Model == "" {
		chatReq.Model = settings.Model
	}

	chatReq.KeepAlive = req.KeepAlive
	if chatReq.KeepAlive == "" {
		chatReq.KeepAlive = settings.KeepAlive
	}

	// The transport mode is decided by which bridge operation the
	// caller invoked; the settings flag only shapes the streaming
	// request's wire field.
	if streaming {
		chatReq.Stream = settings.Streaming
	}

	return chatReq
}

func composeOptions(req model.Request, settings config.Settings) *ollama.Options {
	opts := &ollama.Options{
		Temperature: settings.Temperature,
		TopP:        settings.TopP,
		NumCtx:      settings.NumCtx,
	}

	if req.Temperature != nil {
		opts.Temperature = *req.Temperature
	}
	if req.TopP != nil {
		opts.TopP = *req.TopP
	}
	if req.NumCtx != nil {
		opts.NumCtx = *req.NumCtx
	}

	return opts
}

// composeMessages translates the turns and prepends one system message
// when the request needs it: an explicit system instruction wins over
// the settings prompt, tool declarations are rendered into the same
// injected message, and a conversation that already carries a system
// turn is left alone.
func composeMessages(req model.Request, settings config.Settings) []ollama.Message {
	messages := ToWire(req.Turns)

	if model.HasSystemRole(req.Turns) {
		return messages
	}

	system := req.System
	if system == "" {
		system = settings.SystemPrompt
	}

	if tools := renderToolInstructions(req.Tools); tools != "" {
		if system != "" {
			system += "\n\n" + tools
		} else {
			system = tools
		}
	}

	if system == "" {
		return messages
	}

	return append([]ollama.Message{ollama.NewSystemMessage(system)}, messages...)
}

// renderToolInstructions describes the declared functions and the call
// announcement convention as plain instructions. The endpoint has no
// native tool protocol, so the convention rides in the system prompt
// and the recovery parser reverses it.
func renderToolInstructions(tools []model.ToolDecl) string {
	if len(tools) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("You can call the following functions. To call one, reply with a line containing exactly ")
	b.WriteString(CallMarker)
	b.WriteString(" followed by a JSON object with \"name\" and \"arguments\" fields.\n\nAvailable functions:\n")

	for _, tool := range tools {
		b.WriteString("- ")
		b.WriteString(tool.Name)
		if tool.Description != "" {
			b.WriteString(": ")
			b.WriteString(tool.Description)
		}
		if len(tool.Params) > 0 {
			b.WriteString(" (parameters: ")
			for i, p := range tool.Params {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(p.Name)
				if p.Description != "" {
					b.WriteString(" - ")
					b.WriteString(p.Description)
				}
			}
			b.WriteString(")")
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
