package web

import (
	"strings"
	"time"

	"github.com/pagekeep/diary/internal/core/domain"
	"github.com/pagekeep/diary/internal/core/ports"
)

// DateTimeLocal is the value layout of <input type="datetime-local">.
const DateTimeLocal = "2006-01-02T15:04"

// FormError is a message shown next to the entry form.
type FormError string

func (e FormError) Error() string { return string(e) }

const (
	ErrTitleRequired = FormError("Title is required.")
	ErrStartRequired = FormError("Start date and time are required.")
	ErrStartInvalid  = FormError("Invalid Start Date/Time format.")
	ErrEndInvalid    = FormError("Invalid End Date/Time format.")
	ErrEndNotAfter   = FormError("End time must be after start time.")
)

// EntryForm is the create/edit form as posted by the browser.
type EntryForm struct {
	Title         string `form:"title"`
	Content       string `form:"content"`
	StartDateTime string `form:"startDateTime"`
	EndDateTime   string `form:"endDateTime"`
	IsAllDay      bool   `form:"isAllDay"`
	Status        string `form:"status"`
}

// NewEntryForm returns the blank form: starting now, status planned.
func NewEntryForm(now time.Time, loc *time.Location) EntryForm {
	return EntryForm{
		StartDateTime: now.In(loc).Format(DateTimeLocal),
		Status:        string(domain.StatusPlanned),
	}
}

// FormFromEntry pre-fills the form for editing e.
func FormFromEntry(e *domain.Entry, loc *time.Location) EntryForm {
	f := EntryForm{
		Title:         e.Title,
		Content:       e.Content,
		StartDateTime: e.StartDateTime.In(loc).Format(DateTimeLocal),
		IsAllDay:      e.IsAllDay,
		Status:        string(e.Status),
	}
	if e.EndDateTime != nil && !e.IsAllDay {
		f.EndDateTime = e.EndDateTime.In(loc).Format(DateTimeLocal)
	}
	if f.Status == "" {
		f.Status = string(domain.StatusPlanned)
	}
	return f
}

// CreateInput checks the form the way the page does before submitting and
// converts local times in loc to UTC. The entry service re-validates.
func (f EntryForm) CreateInput(loc *time.Location) (ports.CreateEntryInput, error) {
	if strings.TrimSpace(f.Title) == "" {
		return ports.CreateEntryInput{}, ErrTitleRequired
	}
	if strings.TrimSpace(f.StartDateTime) == "" {
		return ports.CreateEntryInput{}, ErrStartRequired
	}
	start, err := time.ParseInLocation(DateTimeLocal, strings.TrimSpace(f.StartDateTime), loc)
	if err != nil {
		return ports.CreateEntryInput{}, ErrStartInvalid
	}
	start = start.UTC()

	var end *time.Time
	if !f.IsAllDay && strings.TrimSpace(f.EndDateTime) != "" {
		t, err := time.ParseInLocation(DateTimeLocal, strings.TrimSpace(f.EndDateTime), loc)
		if err != nil {
			return ports.CreateEntryInput{}, ErrEndInvalid
		}
		if !t.After(start) {
			return ports.CreateEntryInput{}, ErrEndNotAfter
		}
		t = t.UTC()
		end = &t
	}

	status := strings.TrimSpace(f.Status)
	if status == "" {
		status = string(domain.StatusPlanned)
	}
	allDay := f.IsAllDay

	return ports.CreateEntryInput{
		Title:         strings.TrimSpace(f.Title),
		Content:       f.Content,
		StartDateTime: &start,
		EndDateTime:   end,
		IsAllDay:      &allDay,
		Status:        status,
	}, nil
}

// UpdateInput is CreateInput for an existing entry: every field is sent.
// An empty end field leaves a stored end in place.
func (f EntryForm) UpdateInput(loc *time.Location) (ports.UpdateEntryInput, error) {
	in, err := f.CreateInput(loc)
	if err != nil {
		return ports.UpdateEntryInput{}, err
	}
	return ports.UpdateEntryInput{
		Title:         &in.Title,
		Content:       &in.Content,
		StartDateTime: in.StartDateTime,
		EndDateTime:   in.EndDateTime,
		IsAllDay:      in.IsAllDay,
		Status:        &in.Status,
	}, nil
}
