package services

import (
	"context"

	"github.com/fablewright/fablewright/pkg/chat"
)

// LLMService defines the interface for interacting with the LLM API
type LLMService interface {
	// InitModel initializes the LLM model on startup
	InitModel(ctx context.Context, modelName string) error

	// ChatStream opens a streaming chat exchange. The returned channel
	// yields decoded chunks in arrival order and is closed at end of
	// stream. The underlying connection stays open only while the
	// caller consumes the channel.
	ChatStream(ctx context.Context, messages []chat.Message, tools []chat.Tool) (<-chan StreamChunk, error)
}
