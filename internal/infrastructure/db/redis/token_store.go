package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/pagekeep/diary/internal/core/domain"
)

// TokenStore keeps one pending one-time code per account.
// Key format: otp:<account_id> -> hash{hash, attempts}, expiring after domain.TokenTTL.
type TokenStore struct {
	client *redis.Client
	cost   int
	ttl    time.Duration
	max    int

	compare func(hash, code []byte) error
}

// NewTokenStore creates a TokenStore wrapping the given Redis client.
func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{
		client: client,
		cost:   bcrypt.DefaultCost,
		ttl:    domain.TokenTTL,
		max:    domain.MaxTokenAttempts,

		compare: bcrypt.CompareHashAndPassword,
	}
}

// Put replaces any pending code of accountID and returns when the new one expires.
func (s *TokenStore) Put(ctx context.Context, accountID, code string) (time.Time, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return time.Time{}, fmt.Errorf("hash code: %w", err)
	}

	key := s.key(accountID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "hash", string(hash), "attempts", 0)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("store code: %w", err)
	}
	return time.Now().Add(s.ttl), nil
}

// claimAttempt counts one verification attempt and returns the stored hash.
// A code past its attempt limit is deleted and yields nil, as does a missing one.
var claimAttempt = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return false
end
local n = redis.call("HINCRBY", KEYS[1], "attempts", 1)
if n > tonumber(ARGV[1]) then
	redis.call("DEL", KEYS[1])
	return false
end
return redis.call("HGET", KEYS[1], "hash")
`)

// Verify consumes the pending code of accountID when code matches. Every
// attempt is counted before the comparison, and only the caller that deletes
// the key wins a match.
func (s *TokenStore) Verify(ctx context.Context, accountID, code string) (bool, error) {
	key := s.key(accountID)

	hash, err := claimAttempt.Run(ctx, s.client, []string{key}, s.max).Text()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("claim attempt: %w", err)
	}

	if err := s.compare([]byte(hash), []byte(code)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("compare code: %w", err)
	}

	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("consume code: %w", err)
	}
	return n == 1, nil
}

func (s *TokenStore) key(accountID string) string {
	return "otp:" + accountID
}
