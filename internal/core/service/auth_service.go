package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pagekeep/diary/internal/api/metrics"
	"github.com/pagekeep/diary/internal/core/domain"
	"github.com/pagekeep/diary/internal/core/ports"
)

// AuthService implements sign-up, sign-in and session handling on top of the
// account capability and the profile collection.
type AuthService struct {
	account ports.Account
	users   ports.UserRepository
	log     zerolog.Logger
	now     func() time.Time
	newID   func() string
}

func NewAuthService(account ports.Account, users ports.UserRepository, log zerolog.Logger) *AuthService {
	return &AuthService{
		account: account,
		users:   users,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// SendOTP emails a one-time code and returns the pending account id.
func (s *AuthService) SendOTP(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", domain.ErrEmailRequired
	}

	token, err := s.account.CreateEmailToken(ctx, email)
	if err != nil {
		metrics.OTPRequestsTotal.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Str("email", email).Str("kind", string(domain.KindOf(err))).Msg("sending otp failed")
		return "", domain.Transient("sending OTP to "+email, err)
	}

	metrics.OTPRequestsTotal.WithLabelValues("sent").Inc()
	s.log.Info().Str("email", email).Str("account_id", token.AccountID).Msg("otp sent")
	return token.AccountID, nil
}

// CreateAccount resends a code to a known email, or sends one for a new account
// and stores the profile. The profile write happens after the code is sent and
// is not rolled back into the token on failure.
func (s *AuthService) CreateAccount(ctx context.Context, fullName, email string) (string, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalizeEmail(email)
	if email == "" {
		return "", domain.ErrEmailRequired
	}

	existing, err := s.profileByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil && existing.AccountID != "" {
		s.log.Warn().Str("email", email).Str("account_id", existing.AccountID).Msg("profile already exists, resending otp")
		return s.SendOTP(ctx, email)
	}

	if fullName == "" {
		return "", domain.ErrNameRequired
	}

	accountID, err := s.SendOTP(ctx, email)
	if err != nil {
		return "", err
	}

	now := s.now()
	profile := &domain.Profile{
		ID:          s.newID(),
		AccountID:   accountID,
		FullName:    fullName,
		Email:       email,
		CreatedAt:   now,
		UpdatedAt:   now,
		Permissions: []string{domain.ReadPermission(accountID)},
	}
	if err := s.users.Create(ctx, profile); err != nil {
		s.log.Error().Err(err).Str("email", email).Str("account_id", accountID).Msg("profile write failed after otp was sent")
		return "", domain.Transient("creating account for "+email, err)
	}

	s.log.Info().Str("profile_id", profile.ID).Str("account_id", accountID).Msg("profile created")
	return accountID, nil
}

// SignIn sends a code to an existing profile's email. Unknown emails get
// domain.ErrUserNotFound and nothing is created.
func (s *AuthService) SignIn(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", domain.ErrEmailRequired
	}

	existing, err := s.profileByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if existing == nil || existing.AccountID == "" {
		s.log.Info().Str("email", email).Msg("sign in for unknown email")
		return "", domain.ErrUserNotFound
	}
	return s.SendOTP(ctx, email)
}

// VerifySecret exchanges a one-time code for a session.
func (s *AuthService) VerifySecret(ctx context.Context, accountID, code string) (*domain.Session, error) {
	accountID = strings.TrimSpace(accountID)
	code = strings.TrimSpace(code)
	if accountID == "" || code == "" {
		return nil, domain.ErrCodeRequired
	}

	session, err := s.account.CreateSession(ctx, accountID, code)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOTP) {
			metrics.SessionEventsTotal.WithLabelValues("rejected").Inc()
			s.log.Warn().Str("account_id", accountID).Msg("invalid or expired otp")
			return nil, domain.ErrInvalidOTP
		}
		s.log.Error().Err(err).Str("account_id", accountID).Msg("session creation failed")
		return nil, domain.Transient("verifying secret for account "+accountID, err)
	}

	metrics.SessionEventsTotal.WithLabelValues("created").Inc()
	s.log.Info().Str("account_id", session.AccountID).Str("session_id", session.ID).Msg("session created")
	return session, nil
}

// Authenticate resolves the identity behind a session secret.
func (s *AuthService) Authenticate(ctx context.Context, secret string) (domain.Identity, error) {
	if secret == "" {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	session, err := s.account.GetSession(ctx, secret)
	if err != nil {
		if domain.KindOf(err) != domain.KindUnauthorized {
			s.log.Error().Err(err).Msg("session lookup failed")
		}
		return domain.Identity{}, domain.Transient("authenticate", err)
	}
	return domain.Identity{AccountID: session.AccountID, SessionID: session.ID}, nil
}

// CurrentUser returns the profile of the session's account. The error kind
// tells apart a missing session (unauthorized), a missing profile (not_found)
// and backend failures (transient).
func (s *AuthService) CurrentUser(ctx context.Context, secret string) (*domain.Profile, error) {
	if secret == "" {
		return nil, domain.ErrUnauthorized
	}

	acct, err := s.account.Get(ctx, secret)
	if err != nil {
		if domain.KindOf(err) == domain.KindUnauthorized {
			s.log.Debug().Msg("no active session")
		} else {
			s.log.Error().Err(err).Msg("current account lookup failed")
		}
		return nil, domain.Transient("current user", err)
	}

	profile, err := s.users.FindByAccountID(ctx, acct.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Warn().Str("account_id", acct.ID).Msg("session valid but profile missing")
		} else {
			s.log.Error().Err(err).Str("account_id", acct.ID).Msg("profile lookup failed")
		}
		return nil, domain.Transient("current user", err)
	}
	return profile, nil
}

// SignOut deletes the session behind secret.
func (s *AuthService) SignOut(ctx context.Context, secret string) error {
	if secret == "" {
		return domain.ErrUnauthorized
	}
	if err := s.account.DeleteSession(ctx, secret); err != nil {
		s.log.Error().Err(err).Msg("session deletion failed")
		return domain.Transient("sign out", err)
	}
	metrics.SessionEventsTotal.WithLabelValues("deleted").Inc()
	s.log.Info().Msg("session deleted")
	return nil
}

// profileByEmail returns (nil, nil) when no profile matches.
func (s *AuthService) profileByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	p, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		s.log.Error().Err(err).Str("email", email).Msg("profile lookup by email failed")
		return nil, domain.Transient("looking up "+email, err)
	}
	return p, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
