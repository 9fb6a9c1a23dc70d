// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"context"
	"strings"

	"github.com/jeranaias/rigbridge/internal/config"
	"github.com/jeranaias/rigbridge/internal/model"
	"github.com/jeranaias/rigbridge/internal/ollama"
)

// =============================================================================
// BRIDGE
// =============================================================================

// Bridge is the orchestrator: it composes requests, runs them through
// the transport, and translates responses back into neutral parts with
// usage accounting. Each call captures the settings snapshot it was
// created with; concurrent calls share no per-request state.
type Bridge struct {
	client   *ollama.Client
	settings config.Settings
}

// New creates a bridge from the effective settings.
func New(settings config.Settings) *Bridge {
	clientConfig := &ollama.ClientConfig{
		BaseURL: settings.Endpoint,
		Timeout: settings.Timeout(),
	}
	if settings.MaxRetries > 0 {
		clientConfig.MaxRetries = settings.MaxRetries
	}
	return NewWithClient(ollama.NewClientWithConfig(clientConfig), settings)
}

// NewWithClient creates a bridge around an existing client.
func NewWithClient(client *ollama.Client, settings config.Settings) *Bridge {
	return &Bridge{client: client, settings: settings}
}

// Client returns the underlying endpoint client, for health checks and
// model discovery.
func (b *Bridge) Client() *ollama.Client {
	return b.client
}

// =============================================================================
// SINGLE-SHOT GENERATION
// =============================================================================

// GenerateOnce runs one non-streaming generation and returns the
// recovered parts with usage accounting. Validation failures and
// transport errors (after retries) abort the call.
func (b *Bridge) GenerateOnce(ctx context.Context, req model.Request) (*model.Response, error) {
	chatReq := Compose(req, b.settings, false)

	resp, err := b.client.Chat(ctx, chatReq)
	if err != nil {
		return nil, err
	}

	finish := model.FinishOther
	if resp.Done {
		finish = model.FinishStop
	}

	return &model.Response{
		Parts:        FromWire(resp.Message.Content),
		Usage:        buildUsage(resp.PromptEvalCount, resp.EvalCount, chatReq.Messages, resp.Message.Content),
		FinishReason: finish,
	}, nil
}

// =============================================================================
// STREAMING GENERATION
// =============================================================================

// EventCallback receives stream events synchronously and in order.
type EventCallback func(event model.StreamEvent)

// GenerateStream runs one streaming generation. Each content fragment
// is delivered as a text-part event; the terminal record triggers a
// final event whose parts are the function-call recovery of the whole
// accumulated text and whose usage carries the endpoint counters.
//
// Malformed records were already dropped inside the stream parser;
// only transport failures abort the sequence and surface here.
func (b *Bridge) GenerateStream(ctx context.Context, req model.Request, fn EventCallback) error {
	chatReq := Compose(req, b.settings, true)

	var accumulated strings.Builder
	return b.client.ChatStream(ctx, chatReq, func(chunk ollama.StreamChunk) {
		accumulated.WriteString(chunk.Content)

		if chunk.Done {
			fn(model.StreamEvent{
				Parts: RecoverParts(accumulated.String()),
				Done:  true,
				Usage: buildUsage(chunk.PromptTokens, chunk.CompletionTokens, chatReq.Messages, accumulated.String()),
			})
			return
		}

		if chunk.Content != "" {
			fn(model.StreamEvent{
				Parts: []model.Part{model.TextPart{Text: chunk.Content}},
			})
		}
	})
}

// GenerateStreamChan is the channel form of GenerateStream. The event
// channel is unbuffered and closed when the stream ends; the error
// channel delivers at most one error after that.
func (b *Bridge) GenerateStreamChan(ctx context.Context, req model.Request) (<-chan model.StreamEvent, <-chan error) {
	events := make(chan model.StreamEvent)
	errc := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errc)

		err := b.GenerateStream(ctx, req, func(event model.StreamEvent) {
			select {
			case events <- event:
			case <-ctx.Done():
			}
		})
		if err != nil {
			errc <- err
		}
	}()

	return events, errc
}

// =============================================================================
// USAGE ACCOUNTING
// =============================================================================

// buildUsage packages the endpoint's token counters, estimating from
// character counts where the endpoint reported nothing. The estimate
// is the ~4 characters per token approximation, rounded up.
func buildUsage(promptTokens, completionTokens int, sent []ollama.Message, received string) model.Usage {
	if promptTokens == 0 {
		var prompt strings.Builder
		for _, m := range sent {
			prompt.WriteString(m.Content)
		}
		promptTokens = model.EstimateTokens(prompt.String())
	}
	if completionTokens == 0 {
		completionTokens = model.EstimateTokens(received)
	}

	return model.Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}
