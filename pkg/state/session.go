package state

import (
	"time"

	"github.com/google/uuid"

	"github.com/fablewright/fablewright/pkg/chat"
)

// Session is one saved game: the current world state, the completed
// turn history, and the conversation history that feeds the LLM.
type Session struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	GameState GameState      `json:"game_state"`
	Turns     []TurnRecord   `json:"turns,omitempty"`
	History   []chat.Message `json:"history,omitempty"` // LLM conversation history
}

// NewSession creates a session with a fresh game state and no history.
func NewSession(name string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		GameState: NewGameState(),
	}
}

// Turn returns the turn record at the given index, or nil if the
// session has no such turn.
func (s *Session) Turn(n int) *TurnRecord {
	if n < 0 || n >= len(s.Turns) {
		return nil
	}
	return &s.Turns[n]
}

// TurnCount returns the number of completed turns.
func (s *Session) TurnCount() int {
	return len(s.Turns)
}

// SessionSummary is the listing form of a saved game.
type SessionSummary struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name,omitempty"`
	LastPlayed time.Time `json:"last_played"`
	TurnCount  int       `json:"turn_count"`
}

// Summary returns the listing form of the session.
func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		ID:         s.ID,
		Name:       s.Name,
		LastPlayed: s.UpdatedAt,
		TurnCount:  len(s.Turns),
	}
}
