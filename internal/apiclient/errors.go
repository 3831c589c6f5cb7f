package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/matsen/citeflow/internal/filter"
)

// Common errors returned by service clients.
var (
	// ErrNotFound indicates the service has no record for the query.
	ErrNotFound = errors.New("not found")

	// ErrAuthError indicates an authentication error (missing/invalid API key).
	ErrAuthError = errors.New("authentication error")

	// ErrRateLimited indicates the rate limit has been exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response")
)

// APIError represents an HTTP error status from a service.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Message)
}

// CheckHTTPErrors returns an error if the HTTP response indicates a problem.
func CheckHTTPErrors(service string, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %w: status %d", service, ErrAuthError, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w: status %d", service, ErrRateLimited, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", service, ErrNotFound)
	case resp.StatusCode >= 400:
		return &APIError{
			Service:    service,
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}
	}
	return nil
}

// IsNotFound returns true if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsAuthError returns true if the error indicates an authentication problem.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthError)
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// ToFilterError attributes a client error to a lookup filter. Connectivity
// problems, rate limiting and server errors become a filter.NetworkError;
// context errors pass through so the caller can classify them as timeouts.
func ToFilterError(filterID string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *APIError
	if errors.Is(err, ErrNetworkError) || IsRateLimited(err) ||
		(errors.As(err, &apiErr) && apiErr.StatusCode >= 500) {
		return &filter.NetworkError{FilterID: filterID, Err: err}
	}
	return &filter.ExecutionError{FilterID: filterID, Err: err}
}
