package ports

import (
	"context"

	"github.com/pagekeep/diary/internal/core/domain"
)

// Account is the identity capability: one-time codes and sessions.
type Account interface {
	// CreateEmailToken emails a one-time code to email and returns the account it
	// belongs to. The same email always resolves to the same account id.
	CreateEmailToken(ctx context.Context, email string) (*domain.Token, error)
	// CreateSession exchanges a code for a session. Wrong, expired or exhausted
	// codes return domain.ErrInvalidOTP.
	CreateSession(ctx context.Context, accountID, code string) (*domain.Session, error)
	// GetSession resolves a session secret; unknown or expired secrets return domain.ErrUnauthorized.
	GetSession(ctx context.Context, secret string) (*domain.Session, error)
	// DeleteSession revokes the session behind secret.
	DeleteSession(ctx context.Context, secret string) error
	// Get returns the account of the session behind secret.
	Get(ctx context.Context, secret string) (*domain.Account, error)
}

// Mailer delivers one-time codes.
type Mailer interface {
	SendOTP(ctx context.Context, email, code string) error
}
