package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/pagekeep/diary/internal/api/authctx"
	"github.com/pagekeep/diary/internal/core/domain"
)

// Authenticator resolves a session secret into an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, secret string) (domain.Identity, error)
}

// Session resolves the session cookie once per request and stores the result
// in an authctx.State on the request context. Requests without a valid
// session continue anonymously; a stale cookie is expired.
func Session(auth Authenticator, secure bool, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			state := authctx.NewState()
			req := c.Request()

			var ident domain.Identity
			if secret := SessionSecret(c); secret != "" {
				id, err := auth.Authenticate(req.Context(), secret)
				switch {
				case err == nil:
					ident = id
				case domain.KindOf(err) == domain.KindUnauthorized:
					c.SetCookie(ExpiredSessionCookie(secure))
				default:
					log.Error().Err(err).Str("path", c.Path()).Msg("session lookup failed, continuing anonymously")
				}
			}
			state.Resolve(ident)

			c.SetRequest(req.WithContext(authctx.With(req.Context(), state)))
			return next(c)
		}
	}
}

// RequireUser rejects anonymous requests. Pages pass the sign-in path to be
// redirected there; API groups pass "" to get a 401 from the error handler.
func RequireUser(redirectTo string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authctx.MustFrom(c.Request().Context()).SignedIn() {
				return next(c)
			}
			if redirectTo != "" {
				return c.Redirect(http.StatusSeeOther, redirectTo)
			}
			return domain.ErrUnauthorized
		}
	}
}
