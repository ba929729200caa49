package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/pagekeep/diary/internal/api/authctx"
	"github.com/pagekeep/diary/internal/api/middleware"
	"github.com/pagekeep/diary/internal/core/domain"
	"github.com/pagekeep/diary/internal/core/ports"
	"github.com/pagekeep/diary/internal/web"
)

const genericFailure = "An unexpected error occurred."

// PageHandler serves the HTML pages. Entries are loaded server side on every
// request; forms post back and the page is rendered again.
type PageHandler struct {
	auth    ports.AuthService
	entries ports.EntryService
	loc     *time.Location
	secure  bool
	log     zerolog.Logger
	now     func() time.Time
}

func NewPageHandler(auth ports.AuthService, entries ports.EntryService, loc *time.Location, secureCookies bool, log zerolog.Logger) *PageHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &PageHandler{
		auth:    auth,
		entries: entries,
		loc:     loc,
		secure:  secureCookies,
		log:     log,
		now:     time.Now,
	}
}

type signInForm struct {
	FullName  string `form:"fullName"`
	Email     string `form:"email"`
	AccountID string `form:"accountId"`
	Code      string `form:"code"`
}

// Home handles GET /.
func (h *PageHandler) Home(c echo.Context) error {
	if authctx.MustFrom(c.Request().Context()).SignedIn() {
		return c.Redirect(http.StatusSeeOther, "/entries")
	}
	return c.Redirect(http.StatusSeeOther, "/sign-in")
}

// SignInForm handles GET /sign-in. Only a session that resolves to a profile
// skips the form; any other session is dropped.
func (h *PageHandler) SignInForm(c echo.Context) error {
	if authctx.MustFrom(c.Request().Context()).SignedIn() {
		_, err := h.currentUser(c)
		if err == nil {
			return c.Redirect(http.StatusSeeOther, "/dashboard")
		}
		if profileMissing(err) {
			h.revokeSession(c, err)
		}
	}
	return c.Render(http.StatusOK, web.PageSignIn, web.SignInPage{Base: web.Base{Title: "Sign in"}})
}

// SignIn handles POST /sign-in. A full name means sign up; an email alone
// signs in to an existing account.
func (h *PageHandler) SignIn(c echo.Context) error {
	var f signInForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	page := web.SignInPage{Base: web.Base{Title: "Sign in"}, FullName: f.FullName, Email: f.Email}

	if strings.TrimSpace(f.Email) == "" {
		page.Error = "Email is required."
		return c.Render(http.StatusBadRequest, web.PageSignIn, page)
	}

	ctx := c.Request().Context()
	var (
		accountID string
		err       error
	)
	if strings.TrimSpace(f.FullName) != "" {
		accountID, err = h.auth.CreateAccount(ctx, f.FullName, f.Email)
	} else {
		accountID, err = h.auth.SignIn(ctx, f.Email)
	}
	if err != nil {
		page.Error = pageMessage(err)
		return c.Render(StatusFor(err), web.PageSignIn, page)
	}

	page.AccountID = accountID
	page.AwaitCode = true
	return c.Render(http.StatusOK, web.PageSignIn, page)
}

// Verify handles POST /verify.
func (h *PageHandler) Verify(c echo.Context) error {
	var f signInForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	if strings.TrimSpace(f.AccountID) == "" {
		page := web.SignInPage{Base: web.Base{Title: "Sign in"}, Email: f.Email,
			Error: "Account ID is missing. Please go back and enter your email again."}
		return c.Render(http.StatusBadRequest, web.PageSignIn, page)
	}

	session, err := h.auth.VerifySecret(c.Request().Context(), f.AccountID, f.Code)
	if err != nil {
		page := web.SignInPage{
			Base:      web.Base{Title: "Verify"},
			Email:     f.Email,
			AccountID: f.AccountID,
			AwaitCode: true,
			Error:     pageMessage(err),
		}
		return c.Render(StatusFor(err), web.PageSignIn, page)
	}

	c.SetCookie(middleware.SessionCookie(session.Secret, h.secure))
	return c.Redirect(http.StatusSeeOther, "/dashboard")
}

// SignOut handles POST /sign-out.
func (h *PageHandler) SignOut(c echo.Context) error {
	err := h.auth.SignOut(c.Request().Context(), middleware.SessionSecret(c))
	if err != nil && domain.KindOf(err) != domain.KindUnauthorized {
		h.log.Error().Err(err).Msg("sign out failed, clearing cookie anyway")
	}
	c.SetCookie(middleware.ExpiredSessionCookie(h.secure))
	return c.Redirect(http.StatusSeeOther, "/sign-in")
}

// Dashboard handles GET /dashboard.
func (h *PageHandler) Dashboard(c echo.Context) error {
	user, err := h.currentUser(c)
	if err != nil {
		if profileMissing(err) {
			return h.dropSession(c, err)
		}
		return err
	}
	return c.Render(http.StatusOK, web.PageDashboard, web.DashboardPage{Base: web.Base{Title: "Dashboard", User: user}})
}

// Entries handles GET /entries and GET /entries?edit=<id>.
func (h *PageHandler) Entries(c echo.Context) error {
	if _, err := h.currentUser(c); err != nil && profileMissing(err) {
		return h.dropSession(c, err)
	}
	page := web.EntriesPage{Form: web.NewEntryForm(h.now(), h.loc)}

	if id := c.QueryParam("edit"); id != "" {
		caller := authctx.MustFrom(c.Request().Context()).Identity()
		entry, err := h.entries.Get(c.Request().Context(), caller, id)
		if err != nil {
			page.Error = pageMessage(err)
		} else {
			page.EditID = entry.ID
			page.Form = web.FormFromEntry(entry, h.loc)
		}
	}
	return h.renderEntries(c, http.StatusOK, page)
}

// CreateEntry handles POST /entries.
func (h *PageHandler) CreateEntry(c echo.Context) error {
	var f web.EntryForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	page := web.EntriesPage{Form: f}

	in, err := f.CreateInput(h.loc)
	if err != nil {
		page.Error = err.Error()
		return h.renderEntries(c, http.StatusUnprocessableEntity, page)
	}

	caller := authctx.MustFrom(c.Request().Context()).Identity()
	entry, err := h.entries.Create(c.Request().Context(), caller, in)
	if err != nil {
		page.Error = pageMessage(err)
		return h.renderEntries(c, StatusFor(err), page)
	}

	page.Form = web.NewEntryForm(h.now(), h.loc)
	page.Success = fmt.Sprintf("Entry %q created successfully!", titleOrUntitled(entry.Title))
	return h.renderEntries(c, http.StatusCreated, page)
}

// UpdateEntry handles POST /entries/:id.
func (h *PageHandler) UpdateEntry(c echo.Context) error {
	id := c.Param("id")
	var f web.EntryForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	page := web.EntriesPage{Form: f, EditID: id}

	in, err := f.UpdateInput(h.loc)
	if err != nil {
		page.Error = err.Error()
		return h.renderEntries(c, http.StatusUnprocessableEntity, page)
	}

	caller := authctx.MustFrom(c.Request().Context()).Identity()
	entry, err := h.entries.Update(c.Request().Context(), caller, id, in)
	if err != nil {
		page.Error = pageMessage(err)
		return h.renderEntries(c, StatusFor(err), page)
	}

	page.EditID = ""
	page.Form = web.NewEntryForm(h.now(), h.loc)
	page.Success = fmt.Sprintf("Entry %q updated successfully!", titleOrUntitled(entry.Title))
	return h.renderEntries(c, http.StatusOK, page)
}

// DeleteEntry handles POST /entries/:id/delete.
func (h *PageHandler) DeleteEntry(c echo.Context) error {
	caller := authctx.MustFrom(c.Request().Context()).Identity()

	ok, err := h.entries.Delete(c.Request().Context(), caller, c.Param("id"))
	if err != nil || !ok {
		page := web.EntriesPage{Form: web.NewEntryForm(h.now(), h.loc), Error: "Failed to delete entry."}
		if err != nil {
			page.Error += " " + pageMessage(err)
		}
		return h.renderEntries(c, StatusFor(err), page)
	}
	return c.Redirect(http.StatusSeeOther, "/entries")
}

// renderEntries fills in the user and the entry list, then renders page.
// A failing list is shown in place of the entries, not as a page error.
func (h *PageHandler) renderEntries(c echo.Context, status int, page web.EntriesPage) error {
	page.Title = "Entries"
	if user, err := h.currentUser(c); err == nil {
		page.User = user
	}

	caller := authctx.MustFrom(c.Request().Context()).Identity()
	entries, err := h.entries.List(c.Request().Context(), caller)
	if err != nil {
		page.ListError = pageMessage(err)
	} else {
		page.Entries = web.EntryViews(entries, h.loc)
	}
	return c.Render(status, web.PageEntries, page)
}

// currentUser loads the profile once per request and caches it on the auth state.
func (h *PageHandler) currentUser(c echo.Context) (*domain.Profile, error) {
	state := authctx.MustFrom(c.Request().Context())
	if u := state.User(); u != nil {
		return u, nil
	}
	user, err := h.auth.CurrentUser(c.Request().Context(), middleware.SessionSecret(c))
	if err != nil {
		return nil, err
	}
	state.SetUser(user)
	return user, nil
}

// profileMissing reports whether err means the session has no usable profile.
func profileMissing(err error) bool {
	k := domain.KindOf(err)
	return k == domain.KindNotFound || k == domain.KindUnauthorized
}

// revokeSession deletes the session behind the request cookie and expires the cookie.
func (h *PageHandler) revokeSession(c echo.Context, cause error) {
	h.log.Warn().Err(cause).Msg("session has no profile, signing out")
	err := h.auth.SignOut(c.Request().Context(), middleware.SessionSecret(c))
	if err != nil && domain.KindOf(err) != domain.KindUnauthorized {
		h.log.Error().Err(err).Msg("revoke session failed")
	}
	c.SetCookie(middleware.ExpiredSessionCookie(h.secure))
}

// dropSession revokes the session and sends the browser back to sign in.
func (h *PageHandler) dropSession(c echo.Context, cause error) error {
	h.revokeSession(c, cause)
	return c.Redirect(http.StatusSeeOther, "/sign-in")
}

// pageMessage is the text shown to the user for err. Backend failures get a
// generic line; their detail is already logged by the services.
func pageMessage(err error) string {
	var fe web.FormError
	if errors.As(err, &fe) {
		return fe.Error()
	}
	if domain.KindOf(err) == domain.KindTransient {
		return genericFailure
	}
	return domain.Message(err)
}

func titleOrUntitled(title string) string {
	if title == "" {
		return web.UntitledEntry
	}
	return title
}
