package authctx

import (
	"context"
	"testing"

	"github.com/pagekeep/diary/internal/core/domain"
)

func TestState_Lifecycle(t *testing.T) {
	s := NewState()
	if !s.Loading() || s.SignedIn() {
		t.Fatal("new state should be loading and anonymous")
	}

	s.Resolve(domain.Identity{AccountID: "acct-1", SessionID: "sid"})
	if s.Loading() || !s.SignedIn() {
		t.Fatal("resolved state should be signed in and done loading")
	}

	s.SetUser(&domain.Profile{FullName: "Ada"})
	s.Recheck()
	if s.Loading() {
		t.Error("Recheck must end with loading false")
	}
	if s.User() == nil || s.User().FullName != "Ada" || s.Identity().AccountID != "acct-1" {
		t.Error("Recheck must not change user or identity")
	}
}

func TestFrom(t *testing.T) {
	if _, ok := From(context.Background()); ok {
		t.Fatal("expected no state in a bare context")
	}

	s := NewState()
	got, ok := From(With(context.Background(), s))
	if !ok || got != s {
		t.Fatal("expected the stored state back")
	}
}

func TestMustFrom_PanicsOutsideMiddleware(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustFrom(context.Background())
}
