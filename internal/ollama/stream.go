// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/jeranaias/rigbridge/internal/util"
)

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader reassembles the newline-delimited JSON records of a
// streaming response. Bytes arrive at arbitrary chunk boundaries; the
// reader buffers the trailing unterminated fragment until its line
// completes, and parses the final residue when the source ends.
//
// A record that fails structural validation is logged and dropped;
// the rest of the stream is still processed. The reader is pull-based
// and single-use.
type StreamReader struct {
	reader      *bufio.Reader
	accumulator strings.Builder
	model       string
	stats       *StreamStats
}

// NewStreamReader creates a stream reader over a response body.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(r),
		stats:  NewStreamStats(),
	}
}

// Process reads the stream and calls the callback for each valid
// chunk, in order. It returns nil once the terminal record has been
// delivered or the source ends, and the context error if the caller
// cancels. Transport read failures are returned as-is.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			chunk, err := s.next()
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}

			if chunk == nil {
				continue
			}

			callback(*chunk)
			if chunk.Done {
				return nil
			}
		}
	}
}

// next reads one line and parses it into a chunk. A nil chunk with nil
// error means the line was blank or dropped as malformed.
func (s *StreamReader) next() (*StreamChunk, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	atEOF := err == io.EOF

	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		if atEOF {
			return nil, io.EOF
		}
		return nil, nil
	}

	record, verr := ParseRecord(trimmed, true)
	if verr != nil {
		// Isolate the corrupted record; the stream continues.
		merr := &MalformedChunkError{Line: trimmed, Err: verr}
		logger.Printf("dropping stream record: %v (line: %s)", merr, util.Preview(string(trimmed), 120))
		if atEOF {
			return nil, io.EOF
		}
		return nil, nil
	}

	return s.buildChunk(record), nil
}

// buildChunk converts a validated record into a StreamChunk and folds
// it into the reader's accumulated state.
func (s *StreamReader) buildChunk(record *ChatResponse) *StreamChunk {
	if record.Model != "" {
		s.model = record.Model
	}

	content := record.Message.Content
	if content != "" {
		if s.accumulator.Len() == 0 {
			s.stats.RecordFirstToken()
		}
		s.accumulator.WriteString(content)
	}

	chunk := &StreamChunk{
		Content: content,
		Role:    record.Message.Role,
		Done:    record.Done,
		Model:   s.model,
	}

	if record.Done {
		chunk.TotalDuration = time.Duration(record.TotalDuration)
		chunk.LoadDuration = time.Duration(record.LoadDuration)
		chunk.PromptEvalDuration = time.Duration(record.PromptEvalDuration)
		chunk.EvalDuration = time.Duration(record.EvalDuration)
		chunk.PromptTokens = record.PromptEvalCount
		chunk.CompletionTokens = record.EvalCount
		s.stats.Finalize(*chunk)
		warnOnSuspectContent(s.accumulator.String())
	}

	return chunk
}

// Accumulated returns all content received so far.
func (s *StreamReader) Accumulated() string {
	return s.accumulator.String()
}

// Model returns the model name reported by the stream.
func (s *StreamReader) Model() string {
	return s.model
}

// Stats returns the statistics collected while reading.
func (s *StreamReader) Stats() *StreamStats {
	return s.stats
}

// =============================================================================
// STREAM STATISTICS
// =============================================================================

// StreamStats holds timing and token statistics for one stream.
type StreamStats struct {
	StartTime      time.Time
	FirstTokenTime time.Time
	EndTime        time.Time

	// Durations reported by the endpoint on the terminal record.
	TotalDuration      time.Duration
	LoadDuration       time.Duration
	PromptEvalDuration time.Duration
	EvalDuration       time.Duration

	PromptTokens     int
	CompletionTokens int

	// Computed.
	TTFT            time.Duration
	TokensPerSecond float64
}

// NewStreamStats creates stream statistics with the start time set.
func NewStreamStats() *StreamStats {
	return &StreamStats{StartTime: time.Now()}
}

// RecordFirstToken marks the arrival of the first content fragment.
func (s *StreamStats) RecordFirstToken() {
	if s.FirstTokenTime.IsZero() {
		s.FirstTokenTime = time.Now()
		s.TTFT = s.FirstTokenTime.Sub(s.StartTime)
	}
}

// Finalize fills in the counters from the terminal chunk.
func (s *StreamStats) Finalize(chunk StreamChunk) {
	s.EndTime = time.Now()
	s.TotalDuration = chunk.TotalDuration
	s.LoadDuration = chunk.LoadDuration
	s.PromptEvalDuration = chunk.PromptEvalDuration
	s.EvalDuration = chunk.EvalDuration
	s.PromptTokens = chunk.PromptTokens
	s.CompletionTokens = chunk.CompletionTokens

	if s.EvalDuration > 0 {
		s.TokensPerSecond = float64(s.CompletionTokens) / s.EvalDuration.Seconds()
	}
}

// =============================================================================
// STREAM ACCUMULATOR
// =============================================================================

// StreamAccumulator collects chunks delivered to a consumer and tracks
// completion. It mirrors the reader-side accumulation for callers that
// consume the channel variant.
type StreamAccumulator struct {
	content strings.Builder
	Stats   *StreamStats
	Done    bool
	Err     error
}

// NewStreamAccumulator creates a new accumulator.
func NewStreamAccumulator() *StreamAccumulator {
	return &StreamAccumulator{Stats: NewStreamStats()}
}

// Add processes one chunk.
func (a *StreamAccumulator) Add(chunk StreamChunk) {
	if chunk.Error != nil {
		a.Err = chunk.Error
		a.Done = true
		return
	}

	if chunk.Content != "" && a.content.Len() == 0 {
		a.Stats.RecordFirstToken()
	}
	a.content.WriteString(chunk.Content)

	if chunk.Done {
		a.Done = true
		a.Stats.Finalize(chunk)
	}
}

// Content returns the accumulated content.
func (a *StreamAccumulator) Content() string {
	return a.content.String()
}
