// Package web renders the server-side HTML pages.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pagekeep/diary/internal/core/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names accepted by Renderer.Render.
const (
	PageSignIn    = "sign_in"
	PageDashboard = "dashboard"
	PageEntries   = "entries"
	PageError     = "error"
)

// Base is embedded by every page.
type Base struct {
	Title string
	User  *domain.Profile
}

// SignInPage drives both steps of the sign-in form: email first, then the code.
type SignInPage struct {
	Base
	Error     string
	FullName  string
	Email     string
	AccountID string
	AwaitCode bool
}

type DashboardPage struct {
	Base
}

// EntryView is one row of the entry list.
type EntryView struct {
	ID          string
	Title       string
	Content     string
	TimeDisplay string
	Status      string
}

type EntriesPage struct {
	Base
	Form      EntryForm
	EditID    string
	Entries   []EntryView
	ListError string
	Error     string
	Success   string
}

type ErrorPage struct {
	Base
	Status  int
	Message string
}

// Renderer implements echo.Renderer over the embedded templates. Each page is
// parsed together with the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{PageSignIn, PageDashboard, PageEntries, PageError} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// UntitledEntry stands in for an empty title.
const UntitledEntry = "Untitled Entry"

// EntryViews prepares entries for display in loc.
func EntryViews(entries []*domain.Entry, loc *time.Location) []EntryView {
	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		v := EntryView{
			ID:          e.ID,
			Title:       e.Title,
			Content:     e.Content,
			TimeDisplay: e.TimeDisplay(loc),
			Status:      string(e.Status),
		}
		if v.Title == "" {
			v.Title = UntitledEntry
		}
		if v.Content == "" {
			v.Content = "No content."
		}
		views = append(views, v)
	}
	return views
}
