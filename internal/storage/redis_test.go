package storage

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/fablewright/fablewright/pkg/chat"
	"github.com/fablewright/fablewright/pkg/state"
)

func setupTestRedis(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store := NewRedisStorage(mr.Addr(), time.Hour, logger)

	return store, mr
}

func sampleSession(name string) *state.Session {
	s := state.NewSession(name)
	s.History = []chat.Message{
		{Role: chat.RoleSystem, Content: "system prompt"},
		{Role: chat.RoleUser, Content: "open the door"},
	}
	s.Turns = []state.TurnRecord{{
		TurnNumber: 0,
		StoryText:  "You wake up.",
		Choices:    []string{"A", "B", "C"},
		GameState:  s.GameState,
	}}
	return s
}

func TestRedisStorage_SaveAndLoadSession(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	s := sampleSession("test game")

	if err := store.SaveSession(ctx, s); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	loaded, err := store.LoadSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected session, got nil")
	}

	if loaded.ID != s.ID {
		t.Errorf("Expected ID %s, got %s", s.ID, loaded.ID)
	}
	if loaded.Name != "test game" {
		t.Errorf("Expected name preserved, got %q", loaded.Name)
	}
	if loaded.GameState.Location != state.StartingLocation {
		t.Errorf("Expected game state round trip, got %q", loaded.GameState.Location)
	}
	if len(loaded.History) != 2 {
		t.Errorf("Expected 2 history messages, got %d", len(loaded.History))
	}
	if len(loaded.Turns) != 1 || loaded.Turns[0].StoryText != "You wake up." {
		t.Errorf("Turn records did not round trip: %+v", loaded.Turns)
	}
	if loaded.UpdatedAt.IsZero() {
		t.Error("Expected UpdatedAt set on save")
	}
}

func TestRedisStorage_LoadMissingSession(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	loaded, err := store.LoadSession(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Expected no error for missing session, got %v", err)
	}
	if loaded != nil {
		t.Error("Expected nil for missing session")
	}
}

func TestRedisStorage_DeleteSession(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	s := sampleSession("")

	if err := store.SaveSession(ctx, s); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	if err := store.DeleteSession(ctx, s.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	loaded, err := store.LoadSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if loaded != nil {
		t.Error("Session still present after delete")
	}

	summaries, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("Expected empty index after delete, got %d entries", len(summaries))
	}
}

func TestRedisStorage_ListSessions(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	ctx := context.Background()

	first := sampleSession("first")
	second := sampleSession("second")

	if err := store.SaveSession(ctx, first); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	if err := store.SaveSession(ctx, second); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	summaries, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("Expected 2 summaries, got %d", len(summaries))
	}

	// Most recently played first.
	if summaries[0].Name != "second" {
		t.Errorf("Expected most recent session first, got %q", summaries[0].Name)
	}
	if summaries[0].TurnCount != 1 {
		t.Errorf("Expected turn count 1, got %d", summaries[0].TurnCount)
	}
}

func TestRedisStorage_ListSessionsPrunesExpired(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	s := sampleSession("")

	if err := store.SaveSession(ctx, s); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	// Expire the session key but leave the index entry behind.
	mr.FastForward(2 * time.Hour)

	summaries, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("Expected expired session pruned, got %d entries", len(summaries))
	}

	// The stale index entry is removed on the way through.
	members, err := mr.SMembers(sessionIndexKey)
	if err == nil && len(members) != 0 {
		t.Errorf("Expected index pruned, got %v", members)
	}
}

func TestRedisStorage_TTLApplied(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	s := sampleSession("")

	if err := store.SaveSession(ctx, s); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	ttl := mr.TTL(sessionKey(s.ID))
	if ttl <= 0 || ttl > time.Hour {
		t.Errorf("Expected TTL within one hour, got %v", ttl)
	}
}
