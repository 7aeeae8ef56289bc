package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/fablewright/fablewright/pkg/state"
)

// Storage persists game sessions (turn history, conversation history,
// and current world state).
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Session operations
	SaveSession(ctx context.Context, s *state.Session) error
	// LoadSession returns nil with no error when the session does not exist.
	LoadSession(ctx context.Context, id uuid.UUID) (*state.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	ListSessions(ctx context.Context) ([]state.SessionSummary, error)
}
