package handler

import (
	"testing"

	"github.com/pagekeep/diary/internal/core/domain"
)

func TestValidator_Messages(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"missing email", &otpRequest{}, "email is required"},
		{"bad email", &otpRequest{Email: "nope"}, "email must be a valid email"},
		{"short code", &verifyRequest{AccountID: "a", Code: "123"}, "code must be 6 characters long"},
		{"letters in code", &verifyRequest{AccountID: "a", Code: "12345x"}, "code must contain digits only"},
		{"missing account", &verifyRequest{Code: "123456"}, "accountId is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if domain.KindOf(err) != domain.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := domain.Message(err); got != tt.want {
				t.Fatalf("message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidator_Valid(t *testing.T) {
	v := NewValidator()
	if err := v.Validate(&verifyRequest{AccountID: "acct-1", Code: "123456"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
