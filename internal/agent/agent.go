package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fablewright/fablewright/internal/services"
	"github.com/fablewright/fablewright/pkg/chat"
	"github.com/fablewright/fablewright/pkg/prompts"
	"github.com/fablewright/fablewright/pkg/state"
)

// Agent is the orchestration loop for one game session. It owns the
// LLM conversation history and drives a single streaming chat exchange
// per turn, folding decoded chunks into game-state mutations and an
// ordered stream of TurnEvents.
//
// An Agent is not safe for concurrent use; callers must serialize
// turns against the same session (see Manager).
type Agent struct {
	llm     services.LLMService
	history []chat.Message
	logger  *slog.Logger
}

// New creates an agent with an empty conversation history.
func New(llm services.LLMService, logger *slog.Logger) *Agent {
	return &Agent{
		llm:    llm,
		logger: logger,
	}
}

// StartSession clears the conversation history, seeds the
// dungeon-master system prompt, and returns a fresh game state.
func (a *Agent) StartSession() state.GameState {
	a.history = a.history[:0]
	a.history = append(a.history, chat.Message{
		Role:    chat.RoleSystem,
		Content: prompts.SystemPrompt,
	})
	return state.NewGameState()
}

// History returns a copy of the conversation history, for persistence.
func (a *Agent) History() []chat.Message {
	h := make([]chat.Message, len(a.history))
	copy(h, a.history)
	return h
}

// RestoreHistory replaces the conversation history, for resuming a
// persisted session.
func (a *Agent) RestoreHistory(history []chat.Message) {
	a.history = make([]chat.Message, len(history))
	copy(a.history, history)
}

// ProcessAction runs one player turn: it appends the action to the
// conversation, opens a streaming chat exchange with the game tools,
// drains the stream into emitted events and game-state mutations, and
// finishes with exactly one turn_complete event carrying the full
// narrative, exactly three choices, and the resulting state.
//
// The game state is owned exclusively by this call for its duration.
// A failure to open the stream is returned as an error with no events
// emitted; every later failure surfaces as an error event instead.
func (a *Agent) ProcessAction(ctx context.Context, action string, gs *state.GameState, turnNumber int, emit func(TurnEvent)) error {
	a.history = append(a.history, chat.Message{
		Role:    chat.RoleUser,
		Content: prompts.FormatUserMessage(action, *gs),
	})

	stream, err := a.llm.ChatStream(ctx, a.history, GameTools())
	if err != nil {
		return fmt.Errorf("failed to open chat stream: %w", err)
	}

	var storyText strings.Builder
	var reasoning strings.Builder

drain:
	for chunk := range stream {
		switch chunk.Type {
		case services.ChunkText:
			storyText.WriteString(chunk.Content)
			emit(textChunkEvent(chunk.Content))

		case services.ChunkReasoning:
			reasoning.WriteString(chunk.Content)
			emit(reasoningChunkEvent(chunk.Content))

		case services.ChunkToolCall:
			emit(toolCallEvent(chunk.ToolName, chunk.ToolArgs))
			if err := executeTool(chunk.ToolName, chunk.ToolArgs, gs); err != nil {
				a.logger.Warn("Tool execution failed", "tool", chunk.ToolName, "error", err)
				emit(errorEvent(fmt.Sprintf("Tool execution failed: %v", err)))
			} else {
				emit(toolResultEvent(chunk.ToolName, *gs))
			}

		case services.ChunkDone:
			break drain

		case services.ChunkError:
			// A malformed stream line ends the turn early; whatever
			// narrative accumulated so far still completes the turn.
			a.logger.Error("Stream decode failed", "error", chunk.Err)
			emit(errorEvent(fmt.Sprintf("Stream error: %v", chunk.Err)))
			break drain
		}
	}

	// Reasoning is shown to the player but never persisted to history.
	if storyText.Len() > 0 {
		a.history = append(a.history, chat.Message{
			Role:    chat.RoleAssistant,
			Content: storyText.String(),
		})
	}

	choices := ExtractChoices(storyText.String())

	emit(turnCompleteEvent(state.TurnRecord{
		TurnNumber: turnNumber,
		StoryText:  storyText.String(),
		Choices:    choices,
		GameState:  *gs,
	}))
	return nil
}
