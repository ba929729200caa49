package ports

import (
	"context"

	"github.com/pagekeep/diary/internal/core/domain"
)

// AuthService is the sign-up / sign-in flow built on one-time codes.
type AuthService interface {
	SendOTP(ctx context.Context, email string) (accountID string, err error)
	CreateAccount(ctx context.Context, fullName, email string) (accountID string, err error)
	SignIn(ctx context.Context, email string) (accountID string, err error)
	VerifySecret(ctx context.Context, accountID, code string) (*domain.Session, error)
	// Authenticate resolves a session secret into the caller's identity.
	Authenticate(ctx context.Context, secret string) (domain.Identity, error)
	CurrentUser(ctx context.Context, secret string) (*domain.Profile, error)
	SignOut(ctx context.Context, secret string) error
}
