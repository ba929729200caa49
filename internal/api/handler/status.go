package handler

import (
	"errors"
	"net/http"

	"github.com/pagekeep/diary/internal/core/domain"
)

// StatusFor maps an error to its HTTP status by domain kind. Ordering and
// enum violations are 422; other validation failures are 400.
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch domain.KindOf(err) {
	case domain.KindValidation:
		if errors.Is(err, domain.ErrEndBeforeStart) || errors.Is(err, domain.ErrInvalidStatus) {
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadRequest
	case domain.KindUnauthorized, domain.KindInvalidOTP:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
