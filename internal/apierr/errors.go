// Package apierr provides shared error sentinels for completion API clients.
// Provider-specific errors are classified into these sentinels at the
// adapter boundary.
//
// Providers map HTTP status codes with FromStatus, which wraps the sentinel
// using fmt.Errorf("%s: %w", msg, sentinel).
// Callers check with errors.Is(err, apierr.ErrRateLimit) etc.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for API interaction failures.
var (
	// ErrRateLimit indicates the API rate limit was exceeded (temporary).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates the API quota was exceeded (billing issue).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates a request timed out.
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed indicates API authentication failed (invalid key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest indicates a client error (4xx) that is not otherwise classified.
	ErrBadRequest = errors.New("bad request")

	// ErrServer indicates the provider failed on its side (5xx).
	ErrServer = errors.New("server error")
)

// FromStatus maps an HTTP status code and provider message to a wrapped
// sentinel. Returns nil for 2xx and 3xx codes.
func FromStatus(status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}

	switch {
	case status == http.StatusTooManyRequests:
		// OpenAI reports exhausted credit as 429 with a billing message.
		lower := strings.ToLower(message)
		if strings.Contains(lower, "quota") || strings.Contains(lower, "billing") {
			return fmt.Errorf("%s: %w", message, ErrQuotaExceeded)
		}
		return fmt.Errorf("%s: %w", message, ErrRateLimit)
	case status == http.StatusPaymentRequired:
		return fmt.Errorf("%s: %w", message, ErrQuotaExceeded)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return fmt.Errorf("%s: %w", message, ErrAuthFailed)
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return fmt.Errorf("%s: %w", message, ErrTimeout)
	case status >= 500:
		return fmt.Errorf("%s: %w", message, ErrServer)
	case status >= 400:
		return fmt.Errorf("%s: %w", message, ErrBadRequest)
	}
	return nil
}
