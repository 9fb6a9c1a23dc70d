// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/jeranaias/rigbridge/internal/model"
)

// =============================================================================
// FUNCTION CALL RECOVERY
// =============================================================================

// CallMarker is the literal line the model emits to announce a
// structured call. The system instruction teaches the model this
// convention; the parser below reverses it.
const CallMarker = "FUNCTION_CALL:"

// maxCallBuffer bounds the JSON accumulation after a marker. A block
// that grows past this without parsing is treated as ordinary text.
const maxCallBuffer = 1000

// RecoverParts scans finished assistant text for marker-announced
// function calls and returns the reconstructed part sequence. It never
// fails: anything that cannot be parsed as a call degrades to text,
// and the result is never empty (blank input comes back verbatim as a
// single text part).
//
// The scan is a two-state machine over lines. In TEXT, lines gather
// into a pending buffer until a line equal to the marker flushes it
// and switches to CALL. In CALL, lines concatenate (no separator) into
// a call buffer that is re-parsed after each line; a successful parse
// emits a call part and returns to TEXT, overflow or end of input
// re-emits the marker plus buffer as text.
func RecoverParts(content string) []model.Part {
	var parts []model.Part
	var pending []string
	var callBuf strings.Builder
	inCall := false

	flushText := func() {
		text := strings.Join(pending, "\n")
		pending = nil
		if strings.TrimSpace(text) != "" {
			parts = append(parts, model.TextPart{Text: text})
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if !inCall {
			if strings.TrimSpace(line) == CallMarker {
				flushText()
				inCall = true
				callBuf.Reset()
				continue
			}
			pending = append(pending, line)
			continue
		}

		callBuf.WriteString(line)

		if call, ok := parseCall(callBuf.String()); ok {
			parts = append(parts, call)
			inCall = false
			continue
		}

		if callBuf.Len() > maxCallBuffer {
			// Too long to plausibly complete; give the text back.
			parts = append(parts, model.TextPart{Text: CallMarker + "\n" + callBuf.String()})
			inCall = false
		}
	}

	if inCall {
		parts = append(parts, model.TextPart{Text: CallMarker + "\n" + callBuf.String()})
	} else {
		flushText()
	}

	if len(parts) == 0 {
		parts = append(parts, model.TextPart{Text: content})
	}

	return parts
}

// parseCall attempts to read a complete call announcement from the
// accumulated buffer.
func parseCall(buf string) (model.FunctionCallPart, bool) {
	var decoded struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal([]byte(buf), &decoded); err != nil {
		return model.FunctionCallPart{}, false
	}
	if decoded.Name == "" || decoded.Arguments == nil {
		return model.FunctionCallPart{}, false
	}

	return model.FunctionCallPart{
		ID:        uuid.NewString(),
		Name:      decoded.Name,
		Arguments: decoded.Arguments,
	}, true
}
