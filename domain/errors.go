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

// Invalid builds a validation failure carrying the specific reason.
func Invalid(format string, args ...interface{}) *Error {
	return NewError(ErrCodeInvalid, fmt.Sprintf(format, args...))
}

// Common domain errors.
var (
	ErrUserNotFound     = NewError(ErrCodeNotFound, "User not found")
	ErrTaskNotFound     = NewError(ErrCodeNotFound, "Task not found")
	ErrPrincipalMissing = NewError(ErrCodeNotFound, "principal not cached")
	ErrUnauthenticated  = NewError(ErrCodeUnauthorized, "Not authorized, token missing")
	ErrInvalidToken     = NewError(ErrCodeUnauthorized, "Not authorized, token invalid")
	ErrUnknownPrincipal = NewError(ErrCodeUnauthorized, "User not found")
	ErrForbidden        = NewError(ErrCodeForbidden, "Not authorized")
	ErrInvalidPayload   = NewError(ErrCodeInvalid, "invalid payload")
	ErrUnknownAssignee  = NewError(ErrCodeInvalid, "assignee does not exist")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
