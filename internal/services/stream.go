package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fablewright/fablewright/pkg/chat"
)

// ChunkType discriminates the payloads multiplexed through the
// streaming chat response.
type ChunkType string

const (
	ChunkText      ChunkType = "text"
	ChunkReasoning ChunkType = "reasoning"
	ChunkToolCall  ChunkType = "tool_call"
	ChunkDone      ChunkType = "done"
	ChunkError     ChunkType = "error"
)

// StreamChunk is one decoded event from the NDJSON chat stream.
// Exactly one of the payload fields is meaningful, selected by Type.
type StreamChunk struct {
	Type    ChunkType
	Content string // text or reasoning fragment

	// Tool call payload. Arguments are passed through untyped; schema
	// validation happens in the tool executor, not here.
	ToolName string
	ToolArgs map[string]interface{}

	Err error // set when Type is ChunkError
}

// Reasoning markers. The protocol has no discriminator for reasoning
// output, so classification is heuristic: content that opens a think
// block or carries a reasoning label is treated as reasoning.
const (
	reasoningPrefix = "<think>"
	reasoningMarker = "reasoning:"
)

// streamLine is the NDJSON envelope for one line of the Ollama chat
// response body.
type streamLine struct {
	Model      string        `json:"model"`
	CreatedAt  string        `json:"created_at"`
	Message    *chat.Message `json:"message"`
	Done       bool          `json:"done"`
	DoneReason string        `json:"done_reason,omitempty"`
}

// toolCallPayload matches tool invocations that arrive encoded as JSON
// inside the message content field.
type toolCallPayload struct {
	ToolCalls []struct {
		Function struct {
			Name      string                 `json:"name"`
			Arguments map[string]interface{} `json:"arguments"`
		} `json:"function"`
	} `json:"tool_calls"`
}

// DecodeStream reads an NDJSON chat response body and returns a channel
// of typed chunks. The channel is closed when the stream reports done,
// when a line fails to decode (after an error chunk), or when the
// reader is exhausted. Transport reads never align with line
// boundaries, so bytes are buffered until a full line is available.
func DecodeStream(r io.Reader) <-chan StreamChunk {
	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		decodeNDJSON(r, out)
	}()
	return out
}

// decodeNDJSON is the accumulation loop behind DecodeStream. It
// returns when the stream is done, errored, or the reader is drained.
func decodeNDJSON(r io.Reader, out chan<- StreamChunk) {
	var buf []byte
	read := make([]byte, 4096)

	for {
		n, err := r.Read(read)
		if n > 0 {
			buf = append(buf, read[:n]...)
			for {
				idx := bytes.IndexByte(buf, '\n')
				if idx < 0 {
					break // no complete line yet, keep accumulating
				}
				line := buf[:idx]
				buf = buf[idx+1:]

				chunk, emit, stop := decodeLine(line)
				if emit {
					out <- chunk
				}
				if stop {
					return
				}
			}
		}
		if err != nil {
			// EOF, or the transport dropped mid-stream. Either way the
			// sequence simply ends; any partial line is discarded.
			return
		}
	}
}

// decodeLine decodes a single NDJSON line into at most one chunk.
// stop reports whether the stream must not be read further.
func decodeLine(line []byte) (chunk StreamChunk, emit bool, stop bool) {
	var sl streamLine
	if err := json.Unmarshal(line, &sl); err != nil {
		// No resynchronization on a malformed line; the whole stream
		// is abandoned.
		return StreamChunk{
			Type: ChunkError,
			Err:  fmt.Errorf("failed to parse stream line: %w", err),
		}, true, true
	}

	if sl.Done {
		return StreamChunk{Type: ChunkDone}, true, true
	}

	if sl.Message == nil || sl.Message.Content == "" {
		return StreamChunk{}, false, false
	}
	content := sl.Message.Content

	// Tool calls arrive as JSON encoded inside the content string.
	// Only the first call of the array is honored.
	var payload toolCallPayload
	if err := json.Unmarshal([]byte(content), &payload); err == nil && len(payload.ToolCalls) > 0 {
		fn := payload.ToolCalls[0].Function
		if fn.Name != "" && fn.Arguments != nil {
			return StreamChunk{
				Type:     ChunkToolCall,
				ToolName: fn.Name,
				ToolArgs: fn.Arguments,
			}, true, false
		}
	}

	if strings.HasPrefix(content, reasoningPrefix) || strings.Contains(content, reasoningMarker) {
		return StreamChunk{Type: ChunkReasoning, Content: content}, true, false
	}
	return StreamChunk{Type: ChunkText, Content: content}, true, false
}
