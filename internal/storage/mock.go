package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fablewright/fablewright/pkg/state"
)

// MockStorage is an in-memory Storage implementation for tests.
// Sessions are stored as JSON to mirror the serialization round trip
// of the Redis implementation.
type MockStorage struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID][]byte

	// FailSave forces SaveSession to return an error when set.
	FailSave bool

	// PingErr is returned by Ping when set.
	PingErr error
}

var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates an empty in-memory store.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions: make(map[uuid.UUID][]byte),
	}
}

func (m *MockStorage) Ping(ctx context.Context) error {
	return m.PingErr
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveSession(ctx context.Context, s *state.Session) error {
	if m.FailSave {
		return fmt.Errorf("failed to save session: mock failure")
	}

	s.UpdatedAt = time.Now()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = data
	return nil
}

func (m *MockStorage) LoadSession(ctx context.Context, id uuid.UUID) (*state.Session, error) {
	m.mu.RLock()
	data, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var s state.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (m *MockStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MockStorage) ListSessions(ctx context.Context) ([]state.SessionSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summaries := make([]state.SessionSummary, 0, len(m.sessions))
	for id := range m.sessions {
		s, err := m.LoadSessionLocked(id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s.Summary())
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastPlayed.After(summaries[j].LastPlayed)
	})
	return summaries, nil
}

// LoadSessionLocked unmarshals a session while the caller holds the
// read lock.
func (m *MockStorage) LoadSessionLocked(id uuid.UUID) (*state.Session, error) {
	data, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session missing from mock store: %s", id)
	}
	var s state.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}
