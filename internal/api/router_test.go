package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagekeep/diary/internal/api/middleware"
	"github.com/pagekeep/diary/internal/core/domain"
	"github.com/pagekeep/diary/internal/core/ports"
)

// fakeAuth accepts the secret "good" as acct-1 and rejects everything else.
type fakeAuth struct{}

func (fakeAuth) SendOTP(context.Context, string) (string, error) { return "acct-1", nil }
func (fakeAuth) CreateAccount(context.Context, string, string) (string, error) {
	return "acct-1", nil
}
func (fakeAuth) SignIn(context.Context, string) (string, error) { return "acct-1", nil }
func (fakeAuth) VerifySecret(context.Context, string, string) (*domain.Session, error) {
	return nil, domain.ErrInvalidOTP
}

func (fakeAuth) Authenticate(_ context.Context, secret string) (domain.Identity, error) {
	if secret == "good" {
		return domain.Identity{AccountID: "acct-1", SessionID: "sid-1"}, nil
	}
	return domain.Identity{}, domain.ErrUnauthorized
}

func (fakeAuth) CurrentUser(context.Context, string) (*domain.Profile, error) {
	return &domain.Profile{AccountID: "acct-1", FullName: "Ada Lovelace"}, nil
}
func (fakeAuth) SignOut(context.Context, string) error { return nil }

type fakeEntries struct{}

func (fakeEntries) Create(context.Context, domain.Identity, ports.CreateEntryInput) (*domain.Entry, error) {
	return nil, domain.ErrScheduleMissing
}
func (fakeEntries) Get(context.Context, domain.Identity, string) (*domain.Entry, error) {
	return nil, domain.ErrNotFound
}
func (fakeEntries) List(context.Context, domain.Identity) ([]*domain.Entry, error) {
	return []*domain.Entry{}, nil
}
func (fakeEntries) Update(context.Context, domain.Identity, string, ports.UpdateEntryInput) (*domain.Entry, error) {
	return nil, domain.ErrForbidden
}
func (fakeEntries) Delete(context.Context, domain.Identity, string) (bool, error) {
	return false, nil
}

// orphanAuth has a live session for "good" whose profile was never written.
type orphanAuth struct{ fakeAuth }

func (orphanAuth) CurrentUser(context.Context, string) (*domain.Profile, error) {
	return nil, domain.ErrUserNotFound
}

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()
	return newTestRouterWith(t, fakeAuth{})
}

func newTestRouterWith(t *testing.T, auth ports.AuthService) *echo.Echo {
	t.Helper()
	e, err := NewRouter(Deps{
		Auth:     auth,
		Entries:  fakeEntries{},
		Location: time.UTC,
		Log:      zerolog.Nop(),
		Registry: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func withSession(req *http.Request, secret string) *http.Request {
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: secret})
	return req
}

func TestRouter_Health(t *testing.T) {
	e := newTestRouter(t)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_APIRequiresSession(t *testing.T) {
	e := newTestRouter(t)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/v1/entries", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"no active session"}`, rec.Body.String())
}

func TestRouter_APIWithSession(t *testing.T) {
	e := newTestRouter(t)

	rec := serve(e, withSession(httptest.NewRequest(http.MethodGet, "/api/v1/entries", nil), "good"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[],"total":0}`, rec.Body.String())
}

func TestRouter_PagesRedirectAnonymous(t *testing.T) {
	e := newTestRouter(t)

	for _, path := range []string{"/dashboard", "/entries"} {
		rec := serve(e, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/sign-in", rec.Header().Get(echo.HeaderLocation), path)
	}
}

func TestRouter_StaleCookieIsExpired(t *testing.T) {
	e := newTestRouter(t)

	rec := serve(e, withSession(httptest.NewRequest(http.MethodGet, "/sign-in", nil), "revoked"))

	assert.Equal(t, http.StatusOK, rec.Code)
	var expired bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.SessionCookieName && ck.MaxAge < 0 {
			expired = true
		}
	}
	assert.True(t, expired, "expected the stale session cookie to be cleared")
}

func TestRouter_DomainErrorsMapToStatus(t *testing.T) {
	e := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/entries/e2", strings.NewReader(`{"title":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := serve(e, withSession(req, "good"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"access forbidden"}`, rec.Body.String())

	rec = serve(e, withSession(httptest.NewRequest(http.MethodGet, "/api/v1/entries/nope", nil), "good"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ValidationErrorIsJSON(t *testing.T) {
	e := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/otp", strings.NewReader(`{"email":"bad"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := serve(e, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email must be a valid email")
}

func TestRouter_NotFoundPageForBrowsers(t *testing.T) {
	e := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	req.Header.Set(echo.HeaderAccept, "text/html,application/xhtml+xml")
	rec := serve(e, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML)
	assert.Contains(t, rec.Body.String(), "<h1>404</h1>")
}

func TestRouter_Metrics(t *testing.T) {
	e := newTestRouter(t)

	serve(e, httptest.NewRequest(http.MethodGet, "/health", nil))
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "diary_requests_total")
}

func TestRouter_SessionWithoutProfileIsSignedOut(t *testing.T) {
	e := newTestRouterWith(t, orphanAuth{})

	cleared := func(rec *httptest.ResponseRecorder) bool {
		for _, ck := range rec.Result().Cookies() {
			if ck.Name == middleware.SessionCookieName && ck.MaxAge < 0 {
				return true
			}
		}
		return false
	}

	rec := serve(e, withSession(httptest.NewRequest(http.MethodGet, "/sign-in", nil), "good"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/sign-in"`)
	assert.True(t, cleared(rec))

	for _, path := range []string{"/dashboard", "/entries", "/"} {
		rec = serve(e, withSession(httptest.NewRequest(http.MethodGet, path, nil), "good"))
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		if path != "/" {
			assert.Equal(t, "/sign-in", rec.Header().Get(echo.HeaderLocation), path)
			assert.True(t, cleared(rec), path)
		}
	}
}
