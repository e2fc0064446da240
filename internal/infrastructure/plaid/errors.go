package plaid

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a classified aggregator failure. StatusCode 0 means the request
// never reached the provider (network error or timeout).
type Error struct {
	StatusCode int
	Code       string
	Message    string

	transient bool
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("aggregator request failed: %s", e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("aggregator error (status %d): %s - %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("aggregator error (status %d): %s", e.StatusCode, e.Message)
}

// Retryable reports whether this failure is transient (network error, 5xx,
// 429). Everything else, auth errors included, is terminal for the account.
func (e *Error) Retryable() bool {
	if e.transient {
		return true
	}
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// AuthError reports whether the provider rejected the account's credentials.
// The account stays failed until the user re-links it.
func (e *Error) AuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsRetryable reports whether err is a transient aggregator failure.
func IsRetryable(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Retryable()
}

// IsAuthError reports whether err is a terminal credential failure.
func IsAuthError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.AuthError()
}
