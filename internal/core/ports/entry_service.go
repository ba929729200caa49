package ports

import (
	"context"
	"time"

	"github.com/pagekeep/diary/internal/core/domain"
)

// CreateEntryInput is the client payload for a new entry. Pointer fields
// distinguish "absent" from the zero value.
type CreateEntryInput struct {
	Title         string
	Content       string
	StartDateTime *time.Time
	EndDateTime   *time.Time
	IsAllDay      *bool
	Status        string
}

// UpdateEntryInput is a partial client payload.
type UpdateEntryInput struct {
	Title         *string
	Content       *string
	StartDateTime *time.Time
	EndDateTime   *time.Time
	IsAllDay      *bool
	Status        *string
}

// Empty reports whether no field was supplied.
func (in UpdateEntryInput) Empty() bool {
	return in.Title == nil && in.Content == nil && in.StartDateTime == nil &&
		in.EndDateTime == nil && in.IsAllDay == nil && in.Status == nil
}

// EntryService is the owner-scoped CRUD surface over diary entries.
type EntryService interface {
	Create(ctx context.Context, caller domain.Identity, in CreateEntryInput) (*domain.Entry, error)
	Get(ctx context.Context, caller domain.Identity, id string) (*domain.Entry, error)
	List(ctx context.Context, caller domain.Identity) ([]*domain.Entry, error)
	Update(ctx context.Context, caller domain.Identity, id string, in UpdateEntryInput) (*domain.Entry, error)
	Delete(ctx context.Context, caller domain.Identity, id string) (bool, error)
}
