package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/pagekeep/diary/internal/core/domain"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"missing field", domain.ErrScheduleMissing, http.StatusBadRequest},
		{"end before start", domain.ErrEndBeforeStart, http.StatusUnprocessableEntity},
		{"wrapped end before start", domain.Wrap("entries.update", domain.ErrEndBeforeStart), http.StatusUnprocessableEntity},
		{"bad status", domain.ErrInvalidStatus, http.StatusUnprocessableEntity},
		{"no session", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"bad code", domain.ErrInvalidOTP, http.StatusUnauthorized},
		{"missing", domain.ErrNotFound, http.StatusNotFound},
		{"not owner", domain.ErrForbidden, http.StatusForbidden},
		{"duplicate", domain.ErrUserExists, http.StatusConflict},
		{"transient", domain.Transient("op", errors.New("boom")), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Fatalf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
