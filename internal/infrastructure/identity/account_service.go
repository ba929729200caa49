// Package identity implements the account capability: emailed one-time codes
// and the sessions they are exchanged for.
package identity

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pagekeep/diary/internal/core/domain"
	"github.com/pagekeep/diary/internal/core/ports"
)

// TokenStore keeps pending one-time codes.
type TokenStore interface {
	Put(ctx context.Context, accountID, code string) (time.Time, error)
	Verify(ctx context.Context, accountID, code string) (bool, error)
}

// SessionStore keeps live sessions.
type SessionStore interface {
	Save(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// AccountService satisfies ports.Account.
type AccountService struct {
	accounts ports.AccountRepository
	tokens   TokenStore
	sessions SessionStore
	mailer   ports.Mailer
	signer   *SessionTokens
	log      zerolog.Logger

	now     func() time.Time
	newID   func() string
	newCode func() (string, error)
}

func NewAccountService(
	accounts ports.AccountRepository,
	tokens TokenStore,
	sessions SessionStore,
	mailer ports.Mailer,
	signer *SessionTokens,
	log zerolog.Logger,
) *AccountService {
	return &AccountService{
		accounts: accounts,
		tokens:   tokens,
		sessions: sessions,
		mailer:   mailer,
		signer:   signer,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		newCode:  randomCode,
	}
}

var _ ports.Account = (*AccountService)(nil)

func (s *AccountService) CreateEmailToken(ctx context.Context, email string) (*domain.Token, error) {
	acct, err := s.accounts.FindOrCreateByEmail(ctx, email, s.newID())
	if err != nil {
		return nil, fmt.Errorf("resolve account: %w", err)
	}

	code, err := s.newCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	expires, err := s.tokens.Put(ctx, acct.ID, code)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.SendOTP(ctx, email, code); err != nil {
		return nil, fmt.Errorf("deliver code: %w", err)
	}

	s.log.Debug().Str("account_id", acct.ID).Time("expires_at", expires).Msg("email token issued")
	return &domain.Token{AccountID: acct.ID, ExpiresAt: expires}, nil
}

func (s *AccountService) CreateSession(ctx context.Context, accountID, code string) (*domain.Session, error) {
	ok, err := s.tokens.Verify(ctx, accountID, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidOTP
	}

	if err := s.accounts.MarkVerified(ctx, accountID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidOTP
		}
		return nil, err
	}

	now := s.now()
	session := &domain.Session{
		ID:        s.newID(),
		AccountID: accountID,
		CreatedAt: now,
		ExpiresAt: now.Add(domain.SessionTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	secret, err := s.signer.Issue(session)
	if err != nil {
		return nil, err
	}
	session.Secret = secret
	return session, nil
}

// GetSession accepts a secret only while its session record still exists, so
// deleting the record revokes the secret before its exp claim.
func (s *AccountService) GetSession(ctx context.Context, secret string) (*domain.Session, error) {
	sid, sub, err := s.signer.Parse(secret)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Get(ctx, sid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if session.AccountID != sub {
		s.log.Warn().Str("session_id", sid).Msg("session secret names a different account")
		return nil, domain.ErrUnauthorized
	}

	session.Secret = secret
	return session, nil
}

func (s *AccountService) DeleteSession(ctx context.Context, secret string) error {
	session, err := s.GetSession(ctx, secret)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrUnauthorized
		}
		return err
	}
	return nil
}

func (s *AccountService) Get(ctx context.Context, secret string) (*domain.Account, error) {
	session, err := s.GetSession(ctx, secret)
	if err != nil {
		return nil, err
	}

	acct, err := s.accounts.FindByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	return acct, nil
}

var codeSpace = big.NewInt(1_000_000)

// randomCode returns a uniformly drawn six-digit code.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
