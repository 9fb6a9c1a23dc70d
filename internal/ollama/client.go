// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the inference endpoint client.
// Hint carries remediation text surfaced to the user alongside the
// message.
type ClientError struct {
	Type    ErrorType
	Message string
	Hint    string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeTimeout
	ErrTypeModelNotFound
	ErrTypeConnection
	ErrTypeInvalidResponse
)

// Remediation hints keyed by failure class.
const (
	hintNotRunning    = "start the inference server"
	hintTimeout       = "check network connectivity and the configured timeout"
	hintModelNotFound = "install the model on the inference server"
)

// Sentinel errors for easy checking.
var (
	ErrNotRunning    = &ClientError{Type: ErrTypeNotRunning, Message: "inference endpoint is not reachable", Hint: hintNotRunning}
	ErrTimeout       = &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Hint: hintTimeout}
	ErrModelNotFound = &ClientError{Type: ErrTypeModelNotFound, Message: "model not found", Hint: hintModelNotFound}
)

// IsNotRunning checks if an error indicates the endpoint is down.
func IsNotRunning(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeNotRunning
	}
	return false
}

// IsTimeout checks if an error is an internal deadline timeout.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return false
}

// IsModelNotFound checks if an error is a model not found error.
func IsModelNotFound(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeModelNotFound
	}
	return false
}

// Hint returns the remediation hint attached to an error, if any.
func Hint(err error) string {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Hint
	}
	return ""
}

// =============================================================================
// LOGGING
// =============================================================================

// logger receives chunk-drop and advisory warnings. Tests redirect it.
var logger = log.New(os.Stderr, "ollama: ", log.LstdFlags)

// SetLogOutput redirects the package's warning log.
func SetLogOutput(w io.Writer) {
	logger.SetOutput(w)
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the endpoint client.
type ClientConfig struct {
	// BaseURL is the endpoint base URL (default: http://127.0.0.1:11434).
	// The explicit IPv4 address avoids IPv6 resolution issues on Windows.
	BaseURL string

	// Timeout is the per-attempt deadline (default: 30s).
	Timeout time.Duration

	// MaxRetries is the number of retries after the initial attempt
	// for transport-level failures (default: 3).
	MaxRetries int

	// RetryDelay is the base backoff delay; the delay before retry i
	// is RetryDelay * 2^(i-1) (default: 1s, giving 1s, 2s, 4s).
	RetryDelay time.Duration

	// RequestsPerSecond enables an optional client-side rate limit on
	// logical requests. Zero means unlimited.
	RequestsPerSecond float64

	// HTTPClient overrides the HTTP client used for requests. Used by
	// tests; leave nil for the default.
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:    "http://127.0.0.1:11434",
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: 1 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the inference endpoint. It is the
// only component that touches the network. Retry state is request
// local, so a Client is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new client with custom configuration.
// Zero values are filled in from the defaults.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:11434"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 1 * time.Second
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		// Deadlines come from per-attempt contexts, not the client,
		// so one client serves both single-shot and streaming calls.
		httpClient = &http.Client{}
	}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		limiter:    limiter,
	}
}

// =============================================================================
// HEALTH CHECK AND MODEL DISCOVERY
// =============================================================================

// Ping verifies that the endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, c.config.BaseURL, nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.classifyTransportError(ctx, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &ClientError{
			Type:    ErrTypeConnection,
			Message: "unexpected status from endpoint: " + resp.Status,
			Hint:    hintNotRunning,
		}
	}

	return nil
}

// ListModels retrieves the installed models from /api/tags.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	if err := c.waitLimiter(ctx); err != nil {
		return nil, err
	}

	var result ListModelsResponse
	err := c.withRetry(ctx, func(attemptCtx context.Context) error {
		req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, c.config.BaseURL+"/api/tags", nil)
		if err != nil {
			return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return c.classifyTransportError(ctx, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return &ClientError{
				Type:    ErrTypeInvalidResponse,
				Message: "failed to list models: " + resp.Status,
			}
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode model list", Cause: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result.Models, nil
}

// ModelExists checks whether a model is installed on the endpoint.
func (c *Client) ModelExists(ctx context.Context, model string) bool {
	models, err := c.ListModels(ctx)
	if err != nil {
		return false
	}
	for _, m := range models {
		if m.Name == model {
			return true
		}
	}
	return false
}

// =============================================================================
// CHAT (SINGLE-SHOT)
// =============================================================================

// maxResponseSize caps a single-shot response body read.
const maxResponseSize = 10 * 1024 * 1024

// Chat sends a chat request and returns the complete validated
// response. The transport mode is always non-streaming here; the
// caller's request Stream flag is overridden.
func (c *Client) Chat(ctx context.Context, chatReq ChatRequest) (*ChatResponse, error) {
	if err := c.waitLimiter(ctx); err != nil {
		return nil, err
	}

	chatReq.Stream = false
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	var result *ChatResponse
	err = c.withRetry(ctx, func(attemptCtx context.Context) error {
		resp, err := c.postChat(attemptCtx, ctx, body)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return c.classifyTransportError(ctx, err)
		}

		record, verr := ParseRecord(raw, false)
		if verr != nil {
			return verr
		}

		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// postChat issues one POST /api/chat attempt and maps non-OK statuses
// to typed errors. Status errors are application-level and are never
// retried.
func (c *Client) postChat(attemptCtx, parentCtx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.config.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(parentCtx, err)
	}

	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}

	defer drainAndClose(resp.Body)

	message := "chat request failed: " + resp.Status
	var endpointErr apiError
	if decodeErr := json.NewDecoder(resp.Body).Decode(&endpointErr); decodeErr == nil && endpointErr.Error != "" {
		message = endpointErr.Error
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, &ClientError{
			Type:    ErrTypeModelNotFound,
			Message: message,
			Hint:    hintModelNotFound,
		}
	}

	return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: message}
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// StreamCallback is called for each valid chunk received during
// streaming, synchronously and in order.
type StreamCallback func(chunk StreamChunk)

// ChatStream sends a streaming chat request and calls the callback for
// each valid record. The request's Stream flag is forwarded as-is: it
// is the server-side chunking preference, independent of the transport
// mode chosen by calling ChatStream.
//
// Connection establishment is retried like any transport call; once
// the body stream has started, a transport failure aborts the stream
// and is surfaced without retry.
func (c *Client) ChatStream(ctx context.Context, chatReq ChatRequest, callback StreamCallback) error {
	if err := c.waitLimiter(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt); err != nil {
				return err
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		started, err := c.streamOnce(attemptCtx, ctx, body, callback)
		cancel()

		if err == nil {
			return nil
		}
		if started || !c.retryable(ctx, err) {
			return err
		}
		lastErr = err
	}

	return lastErr
}

// streamOnce performs one streaming attempt. started reports whether
// any bytes of the response body were processed; a started stream is
// never retried.
func (c *Client) streamOnce(attemptCtx, parentCtx context.Context, body []byte, callback StreamCallback) (bool, error) {
	resp, err := c.postChat(attemptCtx, parentCtx, body)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	reader := NewStreamReader(resp.Body)
	if err := reader.Process(attemptCtx, callback); err != nil {
		if parentCtx.Err() != nil {
			return true, parentCtx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return true, &ClientError{Type: ErrTypeTimeout, Message: "stream timed out", Hint: hintTimeout, Cause: err}
		}
		return true, &ClientError{Type: ErrTypeConnection, Message: "stream aborted", Hint: hintNotRunning, Cause: err}
	}

	return true, nil
}

// ChatStreamChan sends a streaming chat request and returns a channel
// of chunks. The channel is unbuffered, so the source is not read
// ahead of the consumer. Errors are delivered as a final chunk with
// the Error field set, after which the channel is closed.
func (c *Client) ChatStreamChan(ctx context.Context, chatReq ChatRequest) <-chan StreamChunk {
	ch := make(chan StreamChunk)

	go func() {
		defer close(ch)

		err := c.ChatStream(ctx, chatReq, func(chunk StreamChunk) {
			select {
			case ch <- chunk:
			case <-ctx.Done():
			}
		})

		if err != nil {
			select {
			case ch <- StreamChunk{Error: err, Done: true}:
			case <-ctx.Done():
			}
		}
	}()

	return ch
}

// =============================================================================
// RETRY AND ERROR CLASSIFICATION
// =============================================================================

// withRetry runs one attempt function with a per-attempt deadline,
// retrying transport-level failures with exponential backoff. The
// caller's context always wins: external cancellation is surfaced
// immediately and never retried.
func (c *Client) withRetry(ctx context.Context, attemptFn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt); err != nil {
				return err
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		err := attemptFn(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		if !c.retryable(ctx, err) {
			return err
		}
		lastErr = err
	}

	return lastErr
}

// backoff waits RetryDelay * 2^(attempt-1) or until the caller's
// context is cancelled.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	delay := c.config.RetryDelay * time.Duration(1<<uint(attempt-1))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// retryable reports whether an attempt error is a transport-level
// failure worth retrying. Application-level errors (HTTP status,
// validation) and external cancellation are not.
func (c *Client) retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		switch clientErr.Type {
		case ErrTypeNotRunning, ErrTypeTimeout, ErrTypeConnection:
			return true
		}
	}

	return false
}

// classifyTransportError maps a failed HTTP attempt onto the error
// taxonomy. Cancellation from the parent context is returned verbatim
// so callers can tell an external abort from a transport failure.
func (c *Client) classifyTransportError(parentCtx context.Context, err error) error {
	if parentCtx.Err() != nil {
		return parentCtx.Err()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Hint: hintTimeout, Cause: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Hint: hintTimeout, Cause: err}
	}

	return &ClientError{
		Type:    ErrTypeNotRunning,
		Message: "inference endpoint is not reachable",
		Hint:    hintNotRunning,
		Cause:   err,
	}
}

// waitLimiter blocks on the optional client-side rate limiter.
func (c *Client) waitLimiter(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// drainAndClose drains and closes a response body so the connection
// can be reused.
func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}
