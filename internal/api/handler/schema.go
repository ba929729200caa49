package handler

import (
	"time"

	"github.com/pagekeep/diary/internal/core/domain"
	"github.com/pagekeep/diary/internal/core/ports"
)

// --- Auth ---

type otpRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type signUpRequest struct {
	FullName string `json:"fullName" validate:"required,max=128"`
	Email    string `json:"email" validate:"required,email"`
}

type verifyRequest struct {
	AccountID string `json:"accountId" validate:"required"`
	Code      string `json:"code" validate:"required,len=6,numeric"`
}

type accountIDResponse struct {
	AccountID string `json:"accountId"`
}

type sessionResponse struct {
	SessionID string    `json:"sessionId"`
	AccountID string    `json:"accountId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// --- Entries ---

// createEntryRequest uses pointers for the schedule so "absent" can be told
// apart from false / the zero time.
type createEntryRequest struct {
	Title         string     `json:"title" validate:"max=256"`
	Content       string     `json:"content"`
	StartDateTime *time.Time `json:"startDateTime"`
	EndDateTime   *time.Time `json:"endDateTime"`
	IsAllDay      *bool      `json:"isAllDay"`
	Status        string     `json:"status" validate:"omitempty,oneof=planned ongoing completed done cancelled instantaneous"`
}

func (r createEntryRequest) input() ports.CreateEntryInput {
	return ports.CreateEntryInput{
		Title:         r.Title,
		Content:       r.Content,
		StartDateTime: r.StartDateTime,
		EndDateTime:   r.EndDateTime,
		IsAllDay:      r.IsAllDay,
		Status:        r.Status,
	}
}

type updateEntryRequest struct {
	Title         *string    `json:"title" validate:"omitempty,max=256"`
	Content       *string    `json:"content"`
	StartDateTime *time.Time `json:"startDateTime"`
	EndDateTime   *time.Time `json:"endDateTime"`
	IsAllDay      *bool      `json:"isAllDay"`
	Status        *string    `json:"status"`
}

func (r updateEntryRequest) input() ports.UpdateEntryInput {
	return ports.UpdateEntryInput{
		Title:         r.Title,
		Content:       r.Content,
		StartDateTime: r.StartDateTime,
		EndDateTime:   r.EndDateTime,
		IsAllDay:      r.IsAllDay,
		Status:        r.Status,
	}
}

type entryResponse struct {
	*domain.Entry
	TimeDisplay string `json:"timeDisplay"`
}

type listEntriesResponse struct {
	Data  []entryResponse `json:"data"`
	Total int             `json:"total"`
}

type deleteEntryResponse struct {
	Deleted bool `json:"deleted"`
}

func toEntryResponse(e *domain.Entry, loc *time.Location) entryResponse {
	return entryResponse{Entry: e, TimeDisplay: e.TimeDisplay(loc)}
}
