// Package apperror defines the application's error taxonomy.
//
// Services and repositories return these instead of raw database or HTTP
// errors. The HTTP layer maps each sentinel to a status code with
// errors.Is, so no layer in between ever needs to know about status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")

	// ErrSelfRequest wraps ErrConflict: requesting your own post is a
	// specialized conflict, so errors.Is(err, ErrConflict) also reports true
	// for self-request errors.
	ErrSelfRequest = fmt.Errorf("self request: %w", ErrConflict)

	// ErrTransient marks store or communication failures that are safe for
	// the caller to retry. Domain errors above are terminal for the call;
	// this one is not.
	ErrTransient = errors.New("transient failure")
)

// AppError carries a sentinel plus a human-readable message.
type AppError struct {
	Err     error  // one of the sentinels above
	Message string // human-readable error message
	Field   string // optional: input field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// SelfRequest is returned when a post owner tries to send a contribution
// request to their own post.
func SelfRequest() *AppError {
	return &AppError{
		Err:     ErrSelfRequest,
		Message: "cannot request to contribute to your own post",
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated is returned when no valid identity accompanies the call.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// Transient wraps an unexpected store or communication failure. The cause
// is kept in the message for logs; the HTTP layer maps it to 503 so the
// client knows a retry is reasonable.
func Transient(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrTransient,
		Message: fmt.Sprintf("%s: %v", op, cause),
	}
}
