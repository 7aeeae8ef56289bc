package state

import (
	"encoding/json"
	"testing"

	"github.com/fablewright/fablewright/pkg/chat"
)

func TestNewSession(t *testing.T) {
	s := NewSession("midnight run")

	if s.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("Expected a generated session ID")
	}
	if s.Name != "midnight run" {
		t.Errorf("Expected name preserved, got %q", s.Name)
	}
	if s.CreatedAt.IsZero() || s.UpdatedAt.IsZero() {
		t.Error("Expected timestamps set")
	}
	if s.GameState != NewGameState() {
		t.Errorf("Expected fresh game state, got %+v", s.GameState)
	}
	if len(s.Turns) != 0 || len(s.History) != 0 {
		t.Error("Expected empty turn and conversation history")
	}
}

func TestSession_Turn(t *testing.T) {
	s := NewSession("")
	s.Turns = []TurnRecord{
		{TurnNumber: 0, StoryText: "opening"},
		{TurnNumber: 1, StoryText: "first action"},
	}

	if turn := s.Turn(1); turn == nil || turn.StoryText != "first action" {
		t.Errorf("Expected turn 1, got %+v", turn)
	}
	if turn := s.Turn(-1); turn != nil {
		t.Errorf("Expected nil for negative index, got %+v", turn)
	}
	if turn := s.Turn(2); turn != nil {
		t.Errorf("Expected nil for out-of-range index, got %+v", turn)
	}
}

func TestSession_Summary(t *testing.T) {
	s := NewSession("summary test")
	s.Turns = make([]TurnRecord, 4)

	sum := s.Summary()
	if sum.ID != s.ID {
		t.Error("Summary ID mismatch")
	}
	if sum.Name != "summary test" {
		t.Errorf("Summary name mismatch: %q", sum.Name)
	}
	if sum.TurnCount != 4 {
		t.Errorf("Expected turn count 4, got %d", sum.TurnCount)
	}
	if !sum.LastPlayed.Equal(s.UpdatedAt) {
		t.Error("Expected LastPlayed to mirror UpdatedAt")
	}
}

func TestSession_JSONRoundTrip(t *testing.T) {
	s := NewSession("persisted game")
	s.GameState.Time = TimeNight
	s.Turns = []TurnRecord{{
		TurnNumber: 0,
		StoryText:  "You wake up.",
		Choices:    []string{"A", "B", "C"},
		GameState:  s.GameState,
	}}
	s.History = []chat.Message{
		{Role: chat.RoleSystem, Content: "system"},
		{Role: chat.RoleAssistant, Content: "You wake up."},
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var loaded Session
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if loaded.ID != s.ID {
		t.Error("ID did not round trip")
	}
	if loaded.GameState.Time != TimeNight {
		t.Errorf("Game state did not round trip: %+v", loaded.GameState)
	}
	if len(loaded.Turns) != 1 || len(loaded.Turns[0].Choices) != 3 {
		t.Errorf("Turns did not round trip: %+v", loaded.Turns)
	}
	if len(loaded.History) != 2 || loaded.History[1].Role != chat.RoleAssistant {
		t.Errorf("History did not round trip: %+v", loaded.History)
	}
}
