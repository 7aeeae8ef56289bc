package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fablewright/fablewright/pkg/state"
)

const sessionIndexKey = "sessions"

// RedisStorage implements the Storage interface using Redis. Sessions
// are stored as JSON under session:<uuid> with a TTL; an index set
// tracks known session IDs for listing.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, ttl time.Duration, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	return &RedisStorage{
		client: rdb,
		logger: logger,
		ttl:    ttl,
	}
}

func sessionKey(id uuid.UUID) string {
	return "session:" + id.String()
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

func (r *RedisStorage) SaveSession(ctx context.Context, s *state.Session) error {
	s.UpdatedAt = time.Now()

	data, err := json.Marshal(s)
	if err != nil {
		r.logger.Error("Failed to marshal session", "uuid", s.ID, "error", err)
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(s.ID), string(data), r.ttl).Err(); err != nil {
		r.logger.Error("Failed to save session", "uuid", s.ID, "error", err)
		return fmt.Errorf("failed to save session: %w", err)
	}

	if err := r.client.SAdd(ctx, sessionIndexKey, s.ID.String()).Err(); err != nil {
		r.logger.Error("Failed to index session", "uuid", s.ID, "error", err)
		return fmt.Errorf("failed to index session: %w", err)
	}

	return nil
}

func (r *RedisStorage) LoadSession(ctx context.Context, id uuid.UUID) (*state.Session, error) {
	cmd := r.client.Get(ctx, sessionKey(id))
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			r.logger.Warn("Session not found", "uuid", id)
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load session", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s state.Session
	if err := json.Unmarshal([]byte(cmd.Val()), &s); err != nil {
		r.logger.Error("Failed to unmarshal session", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &s, nil
}

func (r *RedisStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		r.logger.Error("Failed to delete session", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if err := r.client.SRem(ctx, sessionIndexKey, id.String()).Err(); err != nil {
		r.logger.Error("Failed to unindex session", "uuid", id, "error", err)
		return fmt.Errorf("failed to unindex session: %w", err)
	}
	return nil
}

func (r *RedisStorage) ListSessions(ctx context.Context) ([]state.SessionSummary, error) {
	ids, err := r.client.SMembers(ctx, sessionIndexKey).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	summaries := make([]state.SessionSummary, 0, len(ids))
	for _, idStr := range ids {
		id, err := uuid.Parse(idStr)
		if err != nil {
			r.logger.Warn("Skipping malformed session index entry", "entry", idStr)
			continue
		}

		s, err := r.LoadSession(ctx, id)
		if err != nil {
			return nil, err
		}
		if s == nil {
			// Session expired but index entry remained; clean it up.
			if err := r.client.SRem(ctx, sessionIndexKey, idStr).Err(); err != nil {
				r.logger.Warn("Failed to prune expired session from index", "uuid", idStr, "error", err)
			}
			continue
		}
		summaries = append(summaries, s.Summary())
	}

	// Most recently played first
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastPlayed.After(summaries[j].LastPlayed)
	})

	return summaries, nil
}
