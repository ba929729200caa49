package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/pagekeep/diary/internal/api/authctx"
	"github.com/pagekeep/diary/internal/api/middleware"
	"github.com/pagekeep/diary/internal/core/domain"
	"github.com/pagekeep/diary/internal/core/ports"
	"github.com/pagekeep/diary/internal/web"
)

type stubAuthService struct {
	sendOTPFn       func(email string) (string, error)
	createAccountFn func(fullName, email string) (string, error)
	signInFn        func(email string) (string, error)
	verifyFn        func(accountID, code string) (*domain.Session, error)
	currentUserFn   func(secret string) (*domain.Profile, error)
	signOutFn       func(secret string) error
}

func (s *stubAuthService) SendOTP(_ context.Context, email string) (string, error) {
	return s.sendOTPFn(email)
}

func (s *stubAuthService) CreateAccount(_ context.Context, fullName, email string) (string, error) {
	return s.createAccountFn(fullName, email)
}

func (s *stubAuthService) SignIn(_ context.Context, email string) (string, error) {
	return s.signInFn(email)
}

func (s *stubAuthService) VerifySecret(_ context.Context, accountID, code string) (*domain.Session, error) {
	return s.verifyFn(accountID, code)
}

func (s *stubAuthService) Authenticate(context.Context, string) (domain.Identity, error) {
	return domain.Identity{}, domain.ErrUnauthorized
}

func (s *stubAuthService) CurrentUser(_ context.Context, secret string) (*domain.Profile, error) {
	if s.currentUserFn == nil {
		return &domain.Profile{AccountID: "acct-1", FullName: "Ada Lovelace"}, nil
	}
	return s.currentUserFn(secret)
}

func (s *stubAuthService) SignOut(_ context.Context, secret string) error {
	return s.signOutFn(secret)
}

type stubEntryService struct {
	createFn func(caller domain.Identity, in ports.CreateEntryInput) (*domain.Entry, error)
	getFn    func(caller domain.Identity, id string) (*domain.Entry, error)
	listFn   func(caller domain.Identity) ([]*domain.Entry, error)
	updateFn func(caller domain.Identity, id string, in ports.UpdateEntryInput) (*domain.Entry, error)
	deleteFn func(caller domain.Identity, id string) (bool, error)
}

func (s *stubEntryService) Create(_ context.Context, caller domain.Identity, in ports.CreateEntryInput) (*domain.Entry, error) {
	return s.createFn(caller, in)
}

func (s *stubEntryService) Get(_ context.Context, caller domain.Identity, id string) (*domain.Entry, error) {
	return s.getFn(caller, id)
}

func (s *stubEntryService) List(_ context.Context, caller domain.Identity) ([]*domain.Entry, error) {
	if s.listFn == nil {
		return []*domain.Entry{}, nil
	}
	return s.listFn(caller)
}

func (s *stubEntryService) Update(_ context.Context, caller domain.Identity, id string, in ports.UpdateEntryInput) (*domain.Entry, error) {
	return s.updateFn(caller, id, in)
}

func (s *stubEntryService) Delete(_ context.Context, caller domain.Identity, id string) (bool, error) {
	return s.deleteFn(caller, id)
}

var testCaller = domain.Identity{AccountID: "acct-1", SessionID: "sid-1"}

// newContext builds an echo context that has already passed the session
// middleware as caller. An anonymous caller has no session cookie.
func newContext(t *testing.T, method, target, contentType string, body io.Reader, caller domain.Identity) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	e.Validator = NewValidator()
	renderer, err := web.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	e.Renderer = renderer

	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if !caller.Anonymous() {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "secret-1"})
	}
	state := authctx.NewState()
	state.Resolve(caller)
	req = req.WithContext(authctx.With(req.Context(), state))

	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.SessionCookieName {
			return ck
		}
	}
	return nil
}
