package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/fablewright/fablewright/internal/services"
	"github.com/fablewright/fablewright/internal/storage"
	"github.com/fablewright/fablewright/pkg/prompts"
	"github.com/fablewright/fablewright/pkg/state"
)

// ErrSessionNotFound is returned when an operation targets a session
// id that has no persisted session.
var ErrSessionNotFound = errors.New("session not found")

// Manager coordinates game sessions. Each session's conversation
// history and game state form a single unit guarded by one lock, so a
// turn's tool mutations can never interleave with the next turn.
type Manager struct {
	store  storage.Storage
	newLLM func() services.LLMService
	logger *slog.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewManager creates a session manager. newLLM is invoked once per
// turn so runtime configuration changes take effect on the next turn.
func NewManager(store storage.Storage, newLLM func() services.LLMService, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		newLLM: newLLM,
		logger: logger,
		locks:  make(map[uuid.UUID]*sync.Mutex),
	}
}

// sessionLock returns the exclusive guard for one session.
func (m *Manager) sessionLock(id uuid.UUID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

// StartSession creates and persists a new game: fresh state, seeded
// system prompt, and the fixed opening turn.
func (m *Manager) StartSession(ctx context.Context, name string) (*state.Session, error) {
	ag := New(m.newLLM(), m.logger)
	gs := ag.StartSession()

	s := state.NewSession(name)
	s.GameState = gs
	s.History = ag.History()
	s.Turns = []state.TurnRecord{{
		TurnNumber: 0,
		StoryText:  prompts.OpeningStoryText,
		Choices:    prompts.OpeningChoices(),
		GameState:  gs,
	}}

	if err := m.store.SaveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save new session: %w", err)
	}

	m.logger.Info("New game session started", "session_id", s.ID.String())
	return s, nil
}

// SubmitAction processes one player turn against a session, emitting
// TurnEvents in order, and persists the completed turn. Concurrent
// calls against the same session are serialized.
func (m *Manager) SubmitAction(ctx context.Context, id uuid.UUID, action string, emit func(TurnEvent)) (*state.TurnRecord, error) {
	lock := m.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	s, err := m.store.LoadSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s == nil {
		return nil, ErrSessionNotFound
	}

	ag := New(m.newLLM(), m.logger)
	ag.RestoreHistory(s.History)

	gs := s.GameState
	turnNumber := len(s.Turns)

	var completed *state.TurnRecord
	err = ag.ProcessAction(ctx, action, &gs, turnNumber, func(ev TurnEvent) {
		if ev.Type == EventTurnComplete {
			completed = &state.TurnRecord{
				TurnNumber: ev.TurnNumber,
				StoryText:  ev.StoryText,
				Choices:    ev.Choices,
				GameState:  *ev.GameState,
			}
		}
		emit(ev)
	})
	if err != nil {
		return nil, err
	}

	s.GameState = gs
	s.History = ag.History()
	if completed != nil {
		s.Turns = append(s.Turns, *completed)
	}

	if err := m.store.SaveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session after turn: %w", err)
	}

	return completed, nil
}

// GetSession loads a session by id.
func (m *Manager) GetSession(ctx context.Context, id uuid.UUID) (*state.Session, error) {
	s, err := m.store.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// GetTurn fetches one completed turn record by index.
func (m *Manager) GetTurn(ctx context.Context, id uuid.UUID, n int) (*state.TurnRecord, error) {
	s, err := m.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	turn := s.Turn(n)
	if turn == nil {
		return nil, fmt.Errorf("turn %d not found", n)
	}
	return turn, nil
}

// ListSessions returns summaries of all saved games.
func (m *Manager) ListSessions(ctx context.Context) ([]state.SessionSummary, error) {
	return m.store.ListSessions(ctx)
}

// DeleteSession removes a saved game.
func (m *Manager) DeleteSession(ctx context.Context, id uuid.UUID) error {
	lock := m.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()
	return m.store.DeleteSession(ctx, id)
}
