package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/fablewright/fablewright/pkg/chat"
)

// MockLLM is a configurable LLMService implementation for tests.
type MockLLM struct {
	// ChatStreamFunc overrides the default streaming behavior.
	ChatStreamFunc func(ctx context.Context, messages []chat.Message, tools []chat.Tool) (<-chan StreamChunk, error)

	// Chunks are played back in order when ChatStreamFunc is nil.
	Chunks []StreamChunk

	mu    sync.Mutex
	calls []MockChatCall
}

// MockChatCall records one ChatStream invocation.
type MockChatCall struct {
	Messages []chat.Message
	Tools    []chat.Tool
}

// NewMockLLM creates a mock LLM service with no scripted chunks.
func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) InitModel(ctx context.Context, modelName string) error {
	return nil
}

func (m *MockLLM) ChatStream(ctx context.Context, messages []chat.Message, tools []chat.Tool) (<-chan StreamChunk, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockChatCall{Messages: messages, Tools: tools})
	m.mu.Unlock()

	if m.ChatStreamFunc != nil {
		return m.ChatStreamFunc(ctx, messages, tools)
	}

	out := make(chan StreamChunk, len(m.Chunks))
	for _, c := range m.Chunks {
		out <- c
	}
	close(out)
	return out, nil
}

// Calls returns a copy of all recorded ChatStream invocations.
func (m *MockLLM) Calls() []MockChatCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]MockChatCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// FailingChatStream returns a ChatStreamFunc that always fails,
// simulating an unreachable inference server.
func FailingChatStream(msg string) func(ctx context.Context, messages []chat.Message, tools []chat.Tool) (<-chan StreamChunk, error) {
	return func(ctx context.Context, messages []chat.Message, tools []chat.Tool) (<-chan StreamChunk, error) {
		return nil, fmt.Errorf("failed to send request: %s", msg)
	}
}
