package ports

import (
	"context"

	"github.com/pagekeep/diary/internal/core/domain"
)

// UserRepository persists profile documents. Lookups that match nothing return domain.ErrNotFound.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Profile, error)
	FindByAccountID(ctx context.Context, accountID string) (*domain.Profile, error)
	Create(ctx context.Context, p *domain.Profile) error
}

// AccountRepository persists identity records.
type AccountRepository interface {
	// FindOrCreateByEmail returns the account registered for email, creating it
	// with newID when none exists.
	FindOrCreateByEmail(ctx context.Context, email, newID string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	MarkVerified(ctx context.Context, id string) error
}
