package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pagekeep/diary/internal/api/middleware"
	"github.com/pagekeep/diary/internal/core/domain"
	"github.com/pagekeep/diary/internal/core/ports"
)

// AuthHandler exposes the one-time code flow as JSON endpoints. Errors are
// returned to the central error handler.
type AuthHandler struct {
	authService ports.AuthService
	secure      bool
}

func NewAuthHandler(authService ports.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{authService: authService, secure: secureCookies}
}

// RequestOTP emails a one-time code without touching profiles.
//
// @Summary      Request a one-time code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      otpRequest  true  "Email to send the code to"
// @Success      200   {object}  accountIDResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/auth/otp [post]
func (h *AuthHandler) RequestOTP(c echo.Context) error {
	var req otpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	accountID, err := h.authService.SendOTP(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountIDResponse{AccountID: accountID})
}

// SignUp creates a profile for a new email, or resends a code to a known one.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "Name and email"
// @Success      200   {object}  accountIDResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/auth/sign-up [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	accountID, err := h.authService.CreateAccount(c.Request().Context(), req.FullName, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountIDResponse{AccountID: accountID})
}

// SignIn sends a code to an existing account.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      otpRequest  true  "Registered email"
// @Success      200   {object}  accountIDResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/auth/sign-in [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req otpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	accountID, err := h.authService.SignIn(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountIDResponse{AccountID: accountID})
}

// Verify exchanges a code for a session and sets the session cookie.
//
// @Summary      Verify a one-time code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyRequest  true  "Account id and code"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/auth/verify [post]
func (h *AuthHandler) Verify(c echo.Context) error {
	var req verifyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.authService.VerifySecret(c.Request().Context(), req.AccountID, req.Code)
	if err != nil {
		return err
	}

	c.SetCookie(middleware.SessionCookie(session.Secret, h.secure))
	return c.JSON(http.StatusOK, sessionResponse{
		SessionID: session.ID,
		AccountID: session.AccountID,
		ExpiresAt: session.ExpiresAt,
	})
}

// SignOut deletes the current session and clears the cookie. Signing out
// without a live session still succeeds.
//
// @Summary      Sign out
// @Tags         auth
// @Success      204
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/auth/sign-out [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	err := h.authService.SignOut(c.Request().Context(), middleware.SessionSecret(c))
	if err != nil && domain.KindOf(err) != domain.KindUnauthorized {
		return err
	}
	c.SetCookie(middleware.ExpiredSessionCookie(h.secure))
	return c.NoContent(http.StatusNoContent)
}

// Me returns the profile of the signed-in user.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.Profile
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	profile, err := h.authService.CurrentUser(c.Request().Context(), middleware.SessionSecret(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// bindAndValidate decodes the body into req and runs the struct validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
