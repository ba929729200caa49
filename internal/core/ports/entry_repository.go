package ports

import (
	"context"
	"time"

	"github.com/pagekeep/diary/internal/core/domain"
)

// EntryPatch carries a partial update. Nil fields are left untouched.
type EntryPatch struct {
	Title         *string
	Content       *string
	StartDateTime *time.Time
	EndDateTime   *time.Time
	// ClearEnd removes a stored end timestamp.
	ClearEnd bool
	IsAllDay *bool
	Status   *domain.EntryStatus
}

// Empty reports whether the patch changes nothing.
func (p EntryPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.StartDateTime == nil &&
		p.EndDateTime == nil && !p.ClearEnd && p.IsAllDay == nil && p.Status == nil
}

// EntryRepository persists entries. Reads and writes are checked against the
// document permission list of ownerID; a document that exists but does not
// grant the permission yields domain.ErrForbidden, a missing one domain.ErrNotFound.
type EntryRepository interface {
	Create(ctx context.Context, e *domain.Entry) error
	FindByID(ctx context.Context, id, ownerID string) (*domain.Entry, error)
	// ListByOwner returns ownerID's entries ordered by start time, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Entry, error)
	Update(ctx context.Context, id, ownerID string, patch EntryPatch, now time.Time) (*domain.Entry, error)
	Delete(ctx context.Context, id, ownerID string) error
}
