package redis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pagekeep/diary/internal/core/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newTestTokenStore(t *testing.T) (*miniredis.Miniredis, *TokenStore) {
	mr, client := newTestClient(t)
	s := NewTokenStore(client)
	s.cost = bcrypt.MinCost
	return mr, s
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	_ = client.Close()

	addr := mr.Addr()
	mr.Close()
	_, err = Connect(context.Background(), Config{Addr: addr, Timeout: 200 * time.Millisecond})
	assert.Error(t, err)
}

func TestTokenStore_RightCodeIsSingleUse(t *testing.T) {
	mr, s := newTestTokenStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "acct-1", "123456")
	require.NoError(t, err)
	assert.True(t, mr.Exists("otp:acct-1"))

	stored := mr.HGet("otp:acct-1", "hash")
	assert.NotEqual(t, "123456", stored, "code must not be stored in clear")

	ok, err := s.Verify(ctx, "acct-1", "123456")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Verify(ctx, "acct-1", "123456")
	require.NoError(t, err)
	assert.False(t, ok, "code must not verify twice")
}

func TestTokenStore_WrongCodesExhaustAttempts(t *testing.T) {
	mr, s := newTestTokenStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "acct-1", "123456")
	require.NoError(t, err)

	for i := 0; i < domain.MaxTokenAttempts; i++ {
		ok, err := s.Verify(ctx, "acct-1", "000000")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, "5", mr.HGet("otp:acct-1", "attempts"))

	ok, err := s.Verify(ctx, "acct-1", "123456")
	require.NoError(t, err)
	assert.False(t, ok, "right code after exhausting attempts must fail")
	assert.False(t, mr.Exists("otp:acct-1"))
}

func TestTokenStore_Expiry(t *testing.T) {
	mr, s := newTestTokenStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "acct-1", "123456")
	require.NoError(t, err)

	mr.FastForward(domain.TokenTTL + time.Second)

	ok, err := s.Verify(ctx, "acct-1", "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenStore_PutReplacesPendingCode(t *testing.T) {
	_, s := newTestTokenStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "acct-1", "111111")
	require.NoError(t, err)
	_, err = s.Verify(ctx, "acct-1", "000000")
	require.NoError(t, err)
	_, err = s.Put(ctx, "acct-1", "222222")
	require.NoError(t, err)

	ok, err := s.Verify(ctx, "acct-1", "111111")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Verify(ctx, "acct-1", "222222")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTokenStore_ConcurrentRightCodeWinsOnce(t *testing.T) {
	_, s := newTestTokenStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "acct-1", "123456")
	require.NoError(t, err)

	const callers = 8
	var (
		wg       sync.WaitGroup
		accepted atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := s.Verify(ctx, "acct-1", "123456")
			assert.NoError(t, err)
			if ok {
				accepted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
}

func TestTokenStore_ConcurrentGuessesAreCapped(t *testing.T) {
	mr, s := newTestTokenStore(t)
	ctx := context.Background()

	var compares atomic.Int32
	compare := s.compare
	s.compare = func(hash, code []byte) error {
		compares.Add(1)
		return compare(hash, code)
	}

	_, err := s.Put(ctx, "acct-1", "123456")
	require.NoError(t, err)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := s.Verify(ctx, "acct-1", "000000")
			assert.NoError(t, err)
			assert.False(t, ok)
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(domain.MaxTokenAttempts), compares.Load())
	assert.False(t, mr.Exists("otp:acct-1"), "code must be burnt once the limit is passed")

	ok, err := s.Verify(ctx, "acct-1", "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_Lifecycle(t *testing.T) {
	mr, client := newTestClient(t)
	st := NewSessionStore(client)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	sess := &domain.Session{ID: "sid-1", AccountID: "acct-1", Secret: "never-stored", CreatedAt: now, ExpiresAt: now.Add(domain.SessionTTL)}
	require.NoError(t, st.Save(ctx, sess))

	raw, err := mr.Get("session:sid-1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "never-stored")
	assert.InDelta(t, domain.SessionTTL.Seconds(), mr.TTL("session:sid-1").Seconds(), 5)

	got, err := st.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "acct-1", got.AccountID)
	assert.True(t, got.ExpiresAt.Equal(sess.ExpiresAt))

	require.NoError(t, st.Delete(ctx, "sid-1"))
	_, err = st.Get(ctx, "sid-1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(st.Delete(ctx, "sid-1"), domain.ErrNotFound))
}

func TestSessionStore_ExpiresWithTTL(t *testing.T) {
	mr, client := newTestClient(t)
	st := NewSessionStore(client)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, st.Save(ctx, &domain.Session{ID: "sid-2", AccountID: "a", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))

	mr.FastForward(time.Hour + time.Second)

	_, err := st.Get(ctx, "sid-2")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSessionStore_RejectsExpired(t *testing.T) {
	_, client := newTestClient(t)
	st := NewSessionStore(client)

	err := st.Save(context.Background(), &domain.Session{ID: "old", ExpiresAt: time.Now().Add(-time.Minute)})
	assert.Error(t, err)
}
