package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pagekeep/diary/internal/core/domain"
)

// SessionTokens signs and verifies the secrets handed to browsers. A secret
// is an HS256 JWT naming the session (sid), its account (sub) and the
// project it was issued for (aud).
type SessionTokens struct {
	key      []byte
	audience string
}

func NewSessionTokens(secretKey, projectID string) *SessionTokens {
	return &SessionTokens{key: []byte(secretKey), audience: projectID}
}

// Issue returns the signed secret for s.
func (t *SessionTokens) Issue(s *domain.Session) (string, error) {
	claims := jwt.MapClaims{
		"sid": s.ID,
		"sub": s.AccountID,
		"iat": s.CreatedAt.Unix(),
		"exp": s.ExpiresAt.Unix(),
	}
	if t.audience != "" {
		claims["aud"] = t.audience
	}

	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tkn.SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Parse validates raw and returns the session and account ids it names.
// Any malformed, foreign or expired secret yields domain.ErrUnauthorized.
func (t *SessionTokens) Parse(raw string) (sessionID, accountID string, err error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if t.audience != "" {
		opts = append(opts, jwt.WithAudience(t.audience))
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return t.key, nil
	}, opts...)
	if err != nil || !tkn.Valid {
		return "", "", domain.ErrUnauthorized
	}

	sid, _ := claims["sid"].(string)
	sub, _ := claims["sub"].(string)
	if sid == "" || sub == "" {
		return "", "", domain.ErrUnauthorized
	}
	return sid, sub, nil
}
