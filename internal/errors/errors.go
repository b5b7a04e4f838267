// Package errors provides structured error types shared by the suggestion
// service and its upstream clients.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common failure modes.
var (
	ErrTimeout     = errors.New("operation timed out")
	ErrAuthFailure = errors.New("authentication failed")
	ErrRateLimit   = errors.New("rate limit exceeded")
	ErrUnavailable = errors.New("service unavailable")
)

// APIError represents a non-success response from an upstream HTTP API.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s API error (status %d): %s: %v", e.Service, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// Is maps well-known status codes onto the package sentinels so callers can
// write errors.Is(err, ErrRateLimit) without inspecting status codes.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRateLimit:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrAuthFailure:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrUnavailable:
		return e.StatusCode == http.StatusServiceUnavailable
	}
	return false
}

// NewAPIError creates a new API error.
func NewAPIError(service string, statusCode int, message string) *APIError {
	return &APIError{Service: service, StatusCode: statusCode, Message: message}
}

// IsRetryable returns true if the error is likely transient and worth retrying.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 504, 529:
			return true
		}
		return false
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimit) || errors.Is(err, ErrUnavailable)
}
