package domain

import "time"

// SessionTTL is the lifetime of a session and of its cookie.
const SessionTTL = 7 * 24 * time.Hour

// TokenTTL is how long an emailed one-time code stays valid.
const TokenTTL = 15 * time.Minute

// MaxTokenAttempts bounds wrong guesses against a single code.
const MaxTokenAttempts = 5

// Account is the identity record an email resolves to.
type Account struct {
	ID            string    `json:"id" bson:"_id"`
	Email         string    `json:"email" bson:"email"`
	EmailVerified bool      `json:"emailVerified" bson:"email_verified"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
}

// Token is a pending one-time code issued for an account.
type Token struct {
	AccountID string
	ExpiresAt time.Time
}

// Session is a verified login. Secret is what the browser holds in its cookie.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Secret    string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Identity is the caller resolved from a session. Entry operations are scoped to AccountID.
type Identity struct {
	AccountID string
	SessionID string
}

func (i Identity) Anonymous() bool { return i.AccountID == "" }
