package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can branch on it without string matching.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindNotFound     Kind = "not_found"
	KindForbidden    Kind = "forbidden"
	KindInvalidOTP   Kind = "invalid_otp"
	KindConflict     Kind = "conflict"
	KindTransient    Kind = "transient"
)

// Error is the error type returned by services. Sentinels below are *Error values
// so errors.Is works by identity and errors.As recovers the kind.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

var (
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "document not found"}
	ErrForbidden    = &Error{Kind: KindForbidden, Message: "access forbidden"}
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "no active session"}
	ErrInvalidOTP   = &Error{Kind: KindInvalidOTP, Message: "Invalid OTP or expired request."}
	ErrUserNotFound = &Error{Kind: KindNotFound, Message: "User not found."}
	ErrUserExists   = &Error{Kind: KindConflict, Message: "user already exists"}

	ErrEmailRequired   = &Error{Kind: KindValidation, Message: "email is required"}
	ErrNameRequired    = &Error{Kind: KindValidation, Message: "full name is required"}
	ErrCodeRequired    = &Error{Kind: KindValidation, Message: "accountId and code are required"}
	ErrIDRequired      = &Error{Kind: KindValidation, Message: "entryId is required"}
	ErrScheduleMissing = &Error{Kind: KindValidation, Message: "startDateTime and isAllDay are required"}
	ErrEndBeforeStart  = &Error{Kind: KindValidation, Message: "endDateTime must be after startDateTime for non-all-day entries"}
	ErrEmptyUpdate     = &Error{Kind: KindValidation, Message: "non-empty entry data is required"}
	ErrInvalidStatus   = &Error{Kind: KindValidation, Message: "status must be one of: planned ongoing completed cancelled instantaneous"}
)

// Transient wraps an unexpected backend failure (network, quota, server-side validation).
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: KindTransient, Op: op, Err: err}
}

// Wrap annotates err with op while keeping its kind.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// KindOf reports the kind of err. Errors that carry no kind are transient.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindTransient
}

// Message returns the user-facing message of err: the sentinel text for known
// failures, the underlying error text for everything else.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		if de.Message != "" {
			return de.Message
		}
		if de.Err != nil {
			return de.Err.Error()
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
