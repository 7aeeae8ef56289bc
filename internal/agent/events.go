package agent

import (
	"github.com/fablewright/fablewright/pkg/state"
)

// TurnEventType discriminates events emitted while a turn is processed.
type TurnEventType string

const (
	EventTextChunk      TurnEventType = "text_chunk"
	EventReasoningChunk TurnEventType = "reasoning_chunk"
	EventToolCall       TurnEventType = "tool_call"
	EventToolResult     TurnEventType = "tool_result"
	EventError          TurnEventType = "error"
	EventTurnComplete   TurnEventType = "turn_complete"
)

// TurnEvent is one event in the ordered stream a turn emits to its
// consumer. Consumers key on Type; only the fields for that type are
// populated. Every event is independently JSON serializable.
type TurnEvent struct {
	Type TurnEventType `json:"type"`

	// text_chunk, reasoning_chunk
	Content string `json:"content,omitempty"`

	// tool_call, tool_result
	Name   string                 `json:"name,omitempty"`
	Args   map[string]interface{} `json:"args,omitempty"`
	Result *state.GameState       `json:"result,omitempty"`

	// error
	Message string `json:"message,omitempty"`

	// turn_complete
	TurnNumber int              `json:"turn_number,omitempty"`
	StoryText  string           `json:"story_text,omitempty"`
	Choices    []string         `json:"choices,omitempty"`
	GameState  *state.GameState `json:"game_state,omitempty"`
}

func textChunkEvent(content string) TurnEvent {
	return TurnEvent{Type: EventTextChunk, Content: content}
}

func reasoningChunkEvent(content string) TurnEvent {
	return TurnEvent{Type: EventReasoningChunk, Content: content}
}

func toolCallEvent(name string, args map[string]interface{}) TurnEvent {
	return TurnEvent{Type: EventToolCall, Name: name, Args: args}
}

func toolResultEvent(name string, result state.GameState) TurnEvent {
	return TurnEvent{Type: EventToolResult, Name: name, Result: &result}
}

func errorEvent(message string) TurnEvent {
	return TurnEvent{Type: EventError, Message: message}
}

func turnCompleteEvent(turn state.TurnRecord) TurnEvent {
	gs := turn.GameState
	return TurnEvent{
		Type:       EventTurnComplete,
		TurnNumber: turn.TurnNumber,
		StoryText:  turn.StoryText,
		Choices:    turn.Choices,
		GameState:  &gs,
	}
}
