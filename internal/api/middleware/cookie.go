package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pagekeep/diary/internal/core/domain"
)

// SessionCookieName is the cookie holding the session secret.
const SessionCookieName = "appwrite-session"

// SessionCookie builds the cookie that stores secret for domain.SessionTTL.
// Secure is set in production only so local HTTP development keeps working.
func SessionCookie(secret string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    secret,
		Path:     "/",
		MaxAge:   int(domain.SessionTTL / time.Second),
		Expires:  time.Now().Add(domain.SessionTTL),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// ExpiredSessionCookie tells the browser to drop the session cookie.
func ExpiredSessionCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// SessionSecret returns the secret from the request cookie, or "".
func SessionSecret(c echo.Context) string {
	ck, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}
