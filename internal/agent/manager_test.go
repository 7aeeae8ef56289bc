package agent

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/fablewright/fablewright/internal/services"
	"github.com/fablewright/fablewright/internal/storage"
	"github.com/fablewright/fablewright/pkg/prompts"
	"github.com/fablewright/fablewright/pkg/state"
)

func newTestManager(chunks []services.StreamChunk) (*Manager, *storage.MockStorage) {
	store := storage.NewMockStorage()
	newLLM := func() services.LLMService {
		mock := services.NewMockLLM()
		mock.Chunks = chunks
		return mock
	}
	return NewManager(store, newLLM, testLogger()), store
}

func TestManager_StartSession(t *testing.T) {
	m, store := newTestManager(nil)

	s, err := m.StartSession(context.Background(), "my adventure")
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	if s.Name != "my adventure" {
		t.Errorf("Expected session name preserved, got %q", s.Name)
	}
	if len(s.Turns) != 1 {
		t.Fatalf("Expected the opening turn, got %d turns", len(s.Turns))
	}

	opening := s.Turns[0]
	if opening.TurnNumber != 0 {
		t.Errorf("Expected opening turn number 0, got %d", opening.TurnNumber)
	}
	if opening.StoryText != prompts.OpeningStoryText {
		t.Error("Opening story text mismatch")
	}
	if len(opening.Choices) != 3 {
		t.Errorf("Expected 3 opening choices, got %d", len(opening.Choices))
	}
	if opening.GameState.Location != state.StartingLocation {
		t.Errorf("Expected starting location, got %q", opening.GameState.Location)
	}

	// The session must be persisted.
	loaded, err := store.LoadSession(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Session was not persisted")
	}
	if len(loaded.History) != 1 {
		t.Errorf("Expected seeded system prompt in history, got %d messages", len(loaded.History))
	}
}

func TestManager_SubmitAction(t *testing.T) {
	m, store := newTestManager([]services.StreamChunk{
		{Type: services.ChunkText, Content: "You descend the stairs.\n\n"},
		{Type: services.ChunkText, Content: "1. Light a torch\n2. Feel along the wall\n3. Turn back"},
		{
			Type:     services.ChunkToolCall,
			ToolName: ToolSetLocation,
			ToolArgs: map[string]interface{}{"location": "Cellar"},
		},
		{Type: services.ChunkDone},
	})

	s, err := m.StartSession(context.Background(), "")
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	var events []TurnEvent
	turn, err := m.SubmitAction(context.Background(), s.ID, "go downstairs", func(ev TurnEvent) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("SubmitAction failed: %v", err)
	}

	if turn == nil {
		t.Fatal("Expected a completed turn record")
	}
	if turn.TurnNumber != 1 {
		t.Errorf("Expected turn number 1, got %d", turn.TurnNumber)
	}
	if turn.GameState.Location != "Cellar" {
		t.Errorf("Expected tool mutation persisted, got %q", turn.GameState.Location)
	}
	if turn.Choices[0] != "Light a torch" {
		t.Errorf("Unexpected choices: %v", turn.Choices)
	}

	if len(events) == 0 || events[len(events)-1].Type != EventTurnComplete {
		t.Error("Expected events forwarded, ending with turn_complete")
	}

	loaded, err := store.LoadSession(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if len(loaded.Turns) != 2 {
		t.Fatalf("Expected opening + played turn persisted, got %d", len(loaded.Turns))
	}
	if loaded.GameState.Location != "Cellar" {
		t.Errorf("Expected persisted state mutation, got %q", loaded.GameState.Location)
	}
	// system + user + assistant
	if len(loaded.History) != 3 {
		t.Errorf("Expected 3 persisted history messages, got %d", len(loaded.History))
	}
}

func TestManager_SubmitActionUnknownSession(t *testing.T) {
	m, _ := newTestManager(nil)

	_, err := m.SubmitAction(context.Background(), uuid.New(), "hello", func(TurnEvent) {})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_SubmitActionSerializedPerSession(t *testing.T) {
	m, store := newTestManager([]services.StreamChunk{
		{Type: services.ChunkText, Content: "1. A\n2. B\n3. C"},
		{Type: services.ChunkDone},
	})

	s, err := m.StartSession(context.Background(), "")
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	const turns = 5
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.SubmitAction(context.Background(), s.ID, "act", func(TurnEvent) {}); err != nil {
				t.Errorf("SubmitAction failed: %v", err)
			}
		}()
	}
	wg.Wait()

	loaded, err := store.LoadSession(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	// Serialized turns mean no turn number is ever duplicated.
	if len(loaded.Turns) != turns+1 {
		t.Fatalf("Expected %d turns, got %d", turns+1, len(loaded.Turns))
	}
	seen := make(map[int]bool)
	for _, turn := range loaded.Turns {
		if seen[turn.TurnNumber] {
			t.Errorf("Duplicate turn number %d", turn.TurnNumber)
		}
		seen[turn.TurnNumber] = true
	}
}

func TestManager_GetTurn(t *testing.T) {
	m, _ := newTestManager(nil)

	s, err := m.StartSession(context.Background(), "")
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	turn, err := m.GetTurn(context.Background(), s.ID, 0)
	if err != nil {
		t.Fatalf("GetTurn failed: %v", err)
	}
	if turn.StoryText != prompts.OpeningStoryText {
		t.Error("Expected the opening turn")
	}

	if _, err := m.GetTurn(context.Background(), s.ID, 99); err == nil {
		t.Error("Expected error for out-of-range turn")
	}
	if _, err := m.GetTurn(context.Background(), uuid.New(), 0); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_DeleteSession(t *testing.T) {
	m, store := newTestManager(nil)

	s, err := m.StartSession(context.Background(), "")
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	if err := m.DeleteSession(context.Background(), s.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	loaded, err := store.LoadSession(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if loaded != nil {
		t.Error("Session still present after delete")
	}
}

func TestManager_ListSessions(t *testing.T) {
	m, _ := newTestManager(nil)

	for i := 0; i < 3; i++ {
		if _, err := m.StartSession(context.Background(), ""); err != nil {
			t.Fatalf("StartSession failed: %v", err)
		}
	}

	summaries, err := m.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(summaries) != 3 {
		t.Errorf("Expected 3 summaries, got %d", len(summaries))
	}
	for _, s := range summaries {
		if s.TurnCount != 1 {
			t.Errorf("Expected turn count 1 (opening turn), got %d", s.TurnCount)
		}
	}
}
