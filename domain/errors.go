package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodePersistence  ErrorCode = "PERSISTENCE"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrContactNotFound     = NewError(ErrCodeNotFound, "contact not found")
	ErrAppointmentNotFound = NewError(ErrCodeNotFound, "appointment not found")
	ErrInvalidPayload      = NewError(ErrCodeInvalid, "invalid payload")
	ErrSameStatus          = NewError(ErrCodeInvalid, "appointment already in requested status")
	ErrPastDate            = NewError(ErrCodeInvalid, "appointment date is in the past")
	ErrContactUnreachable  = NewError(ErrCodeInvalid, "contact has no account or email to file the appointment under")
	ErrUnauthorized        = NewError(ErrCodeUnauthorized, "unauthorized")
)

// NewPersistenceError classifies a failed write. A persistence failure aborts
// the operation that produced it; no side effects may follow.
func NewPersistenceError(op string, err error) *Error {
	return WrapError(ErrCodePersistence, fmt.Sprintf("%s failed", op), err)
}

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
