// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/jeranaias/rigbridge/internal/util"
)

// =============================================================================
// VALIDATION ERRORS
// =============================================================================

// ValidationError reports a structural contract violation in a wire
// record. It is fatal for a single-shot response; in the streaming
// path the offending record is dropped instead.
type ValidationError struct {
	Field  string // record field that violated the contract
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid response record: " + e.Reason
	}
	return "invalid response record: field " + e.Field + ": " + e.Reason
}

// MalformedChunkError wraps a ValidationError raised inside the stream
// parser. It is always caught and logged at the chunk boundary and
// never escapes to the caller.
type MalformedChunkError struct {
	Line []byte
	Err  error
}

func (e *MalformedChunkError) Error() string {
	return "malformed stream record: " + e.Err.Error()
}

func (e *MalformedChunkError) Unwrap() error {
	return e.Err
}

// maxContentWarnChars is the advisory upper bound on completed content
// length. Exceeding it is logged, never repaired or truncated.
const maxContentWarnChars = 100_000

// =============================================================================
// RECORD VALIDATION
// =============================================================================

// ParseRecord validates one raw wire record and decodes it into a
// ChatResponse. The same contract applies to single-shot responses and
// streamed records; streamed toggles the one relaxation the stream
// format needs (fragments may omit the message role).
//
// The record is checked structurally before the typed decode so that a
// violation is reported precisely rather than silently zeroed by
// encoding/json. Checks, in order:
//
//  1. the record is a JSON object
//  2. it has a boolean "done" field
//  3. "message", when present, is an object whose "role" is one of
//     user/assistant/system (role may be absent only when streamed)
//     and whose "content", when present, is a NUL-free string
//  4. when done, usage counts are non-negative integers and durations
//     are non-negative numbers
//
// Empty or oversized completed content is advisory only: logged,
// never failed.
func ParseRecord(raw []byte, streamed bool) (*ChatResponse, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, &ValidationError{Reason: "not valid JSON: " + err.Error()}
	}

	record, ok := decoded.(map[string]any)
	if !ok {
		return nil, &ValidationError{Reason: "record is not an object"}
	}

	done, ok := record["done"].(bool)
	if _, present := record["done"]; !present {
		return nil, &ValidationError{Field: "done", Reason: "missing"}
	} else if !ok {
		return nil, &ValidationError{Field: "done", Reason: "not a boolean"}
	}

	content, err := validateMessage(record, streamed)
	if err != nil {
		return nil, err
	}

	if done {
		if err := validateCounters(record); err != nil {
			return nil, err
		}
		// A streamed terminal record legitimately carries an empty
		// fragment; the stream reader checks the assembled content
		// instead.
		if !streamed {
			warnOnSuspectContent(content)
		}
	}

	var resp ChatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &ValidationError{Reason: "decode failed: " + err.Error()}
	}

	return &resp, nil
}

// validateMessage checks the optional message object and returns its
// content string for the advisory length check.
func validateMessage(record map[string]any, streamed bool) (string, error) {
	rawMsg, present := record["message"]
	if !present {
		return "", nil
	}

	msg, ok := rawMsg.(map[string]any)
	if !ok {
		return "", &ValidationError{Field: "message", Reason: "not an object"}
	}

	role, rolePresent := msg["role"]
	if !rolePresent {
		// Streamed fragments may omit the role; a final single-shot
		// response must carry it.
		if !streamed {
			return "", &ValidationError{Field: "message.role", Reason: "missing"}
		}
	} else {
		roleStr, ok := role.(string)
		if !ok {
			return "", &ValidationError{Field: "message.role", Reason: "not a string"}
		}
		switch roleStr {
		case "user", "assistant", "system":
		default:
			return "", &ValidationError{Field: "message.role", Reason: "unknown role " + roleStr}
		}
	}

	rawContent, present := msg["content"]
	if !present {
		return "", nil
	}

	content, ok := rawContent.(string)
	if !ok {
		return "", &ValidationError{Field: "message.content", Reason: "not a string"}
	}

	if strings.ContainsRune(content, 0) {
		return "", &ValidationError{Field: "message.content", Reason: "contains NUL byte"}
	}

	return content, nil
}

// validateCounters checks the usage and duration fields of a terminal
// record. Counts must be non-negative integers, durations non-negative
// numbers.
func validateCounters(record map[string]any) error {
	for _, field := range []string{"prompt_eval_count", "eval_count"} {
		raw, present := record[field]
		if !present {
			continue
		}
		num, ok := raw.(json.Number)
		if !ok {
			return &ValidationError{Field: field, Reason: "not a number"}
		}
		n, err := num.Int64()
		if err != nil {
			return &ValidationError{Field: field, Reason: "not an integer"}
		}
		if n < 0 {
			return &ValidationError{Field: field, Reason: "negative"}
		}
	}

	for _, field := range []string{"total_duration", "load_duration", "prompt_eval_duration", "eval_duration"} {
		raw, present := record[field]
		if !present {
			continue
		}
		num, ok := raw.(json.Number)
		if !ok {
			return &ValidationError{Field: field, Reason: "not a number"}
		}
		f, err := num.Float64()
		if err != nil {
			return &ValidationError{Field: field, Reason: "not a number"}
		}
		if f < 0 {
			return &ValidationError{Field: field, Reason: "negative"}
		}
	}

	return nil
}

// warnOnSuspectContent logs advisory warnings about completed content.
// No corrective action is taken.
func warnOnSuspectContent(content string) {
	if strings.TrimSpace(content) == "" {
		logger.Printf("warning: completed response content is empty")
		return
	}
	if len(content) > maxContentWarnChars {
		logger.Printf("warning: completed response content is unusually long (%d chars): %s",
			len(content), util.Preview(content, 80))
	}
}
