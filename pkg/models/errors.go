package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried in the response envelope
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
)

// Common errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrInvalidInput       = errors.New("invalid input")
	ErrTransient          = errors.New("transient network failure")

	// ErrSessionExpired means the token could not be refreshed and the
	// user has to authenticate again.
	ErrSessionExpired = errors.New("session expired: please log in again")
)

// HTTPError is a non-2xx answer from the backend
type HTTPError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error (status %d, %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// Is maps status codes onto the package sentinels
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.IsAuthFailure()
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound || e.Code == ErrCodeNotFound
	case ErrInvalidInput:
		return e.StatusCode == http.StatusBadRequest || e.Code == ErrCodeValidation
	case ErrTransient:
		return e.IsTransient()
	}
	return false
}

// IsAuthFailure reports a 401 or the service's auth-failure codes
func (e *HTTPError) IsAuthFailure() bool {
	return e.StatusCode == http.StatusUnauthorized ||
		e.Code == ErrCodeUnauthorized ||
		e.Code == ErrCodeTokenExpired
}

// IsTransient reports statuses worth retrying
func (e *HTTPError) IsTransient() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// NewHTTPError builds an HTTPError, deriving a message from the status when empty
func NewHTTPError(statusCode int, code, message string) *HTTPError {
	if message == "" {
		message = http.StatusText(statusCode)
		if message == "" {
			message = fmt.Sprintf("request failed with status %d", statusCode)
		}
	}
	return &HTTPError{StatusCode: statusCode, Code: code, Message: message}
}
