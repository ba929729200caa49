// Package authctx carries the signed-in user through a single request.
package authctx

import (
	"context"
	"sync"

	"github.com/pagekeep/diary/internal/core/domain"
)

// State is the auth view of one request. The session middleware creates it;
// handlers read it and may attach the loaded profile.
type State struct {
	mu       sync.RWMutex
	identity domain.Identity
	user     *domain.Profile
	loading  bool
}

// NewState starts in the loading state until the session is resolved.
func NewState() *State {
	return &State{loading: true}
}

// Resolve records the outcome of the session lookup and ends loading.
func (s *State) Resolve(id domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = id
	s.loading = false
}

func (s *State) Identity() domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

func (s *State) User() *domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *State) SetUser(p *domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = p
}

func (s *State) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Recheck flips the loading flag on and off again. It does not fetch
// anything: the identity is fixed for the lifetime of the request.
func (s *State) Recheck() {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

func (s *State) SignedIn() bool {
	return !s.Identity().Anonymous()
}

type ctxKey struct{}

func With(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func From(ctx context.Context) (*State, bool) {
	s, ok := ctx.Value(ctxKey{}).(*State)
	return s, ok
}

// MustFrom panics when ctx did not pass through the session middleware.
func MustFrom(ctx context.Context) *State {
	s, ok := From(ctx)
	if !ok {
		panic("authctx: no auth state in context; route is not behind the session middleware")
	}
	return s
}
