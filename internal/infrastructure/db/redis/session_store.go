package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pagekeep/diary/internal/core/domain"
)

// SessionStore persists sessions until they expire.
// Key format: session:<session_id> -> JSON record, TTL = remaining session lifetime.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

type sessionRecord struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Save stores s. The secret is never persisted; it is derived from the id.
func (st *SessionStore) Save(ctx context.Context, s *domain.Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", s.ID)
	}

	raw, err := json.Marshal(sessionRecord{
		ID:        s.ID,
		AccountID: s.AccountID,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return st.client.Set(ctx, st.key(s.ID), raw, ttl).Err()
}

// Get returns the live session with id, or domain.ErrNotFound.
func (st *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := st.client.Get(ctx, st.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &domain.Session{
		ID:        rec.ID,
		AccountID: rec.AccountID,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// Delete removes the session with id. Deleting an unknown session returns domain.ErrNotFound.
func (st *SessionStore) Delete(ctx context.Context, id string) error {
	n, err := st.client.Del(ctx, st.key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (st *SessionStore) key(id string) string {
	return "session:" + id
}
