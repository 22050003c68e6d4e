package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound     = errors.New("requested resource not found")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrConflict     = errors.New("resource conflict") // e.g., username already exists
	ErrValidation   = errors.New("validation failed")
	ErrUpstream     = errors.New("upstream service failure")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrInternal     = errors.New("internal server error")
)

// Messages returned to clients for errors whose detail must not leak.
const (
	MsgInvalidCredentials = "invalid credentials"
	MsgAuthRequired       = "authentication required"
	MsgUpstream           = "avatar service unavailable"
	MsgInternal           = "internal server error"
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message safe to show a client for err.
// Validation, conflict and not-found errors carry their own wrapped
// detail; everything else collapses to a fixed message.
func PublicMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return authErr.Message
		}
		return MsgInvalidCredentials
	case errors.Is(err, ErrUpstream):
		return MsgUpstream
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict), errors.Is(err, ErrNotFound), errors.Is(err, ErrRateLimited):
		return detail(err)
	}
	return MsgInternal
}

// AuthError is an ErrUnauthorized carrying the exact client-facing message.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return ErrUnauthorized }

// InvalidCredentials is the single error returned for any failed login.
func InvalidCredentials() error {
	return &AuthError{Message: MsgInvalidCredentials}
}

// AuthRequired is returned when an operation needs a session and none exists.
func AuthRequired() error {
	return &AuthError{Message: MsgAuthRequired}
}

// Validationf wraps ErrValidation with a message naming the violated constraint.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// detail strips the sentinel prefix so "validation failed: password too short"
// becomes "password too short".
func detail(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{ErrValidation, ErrConflict, ErrNotFound, ErrRateLimited} {
		prefix := sentinel.Error() + ": "
		if idx := strings.LastIndex(msg, prefix); idx >= 0 {
			return msg[idx+len(prefix):]
		}
	}
	return msg
}
