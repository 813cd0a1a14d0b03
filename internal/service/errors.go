package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery is returned when a query is empty or whitespace-only.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidParameter is returned when a caller supplies out-of-range parameters.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrProviderUnavailable is returned when an external provider has no credentials configured.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrProviderError is returned when an external provider call fails or returns a malformed response.
	ErrProviderError = errors.New("provider error")
	// ErrNoRelevantContent is returned when retrieval genuinely found nothing.
	ErrNoRelevantContent = errors.New("no relevant content")
	// ErrAllBackendsFailed is returned when every attempted generation backend failed.
	ErrAllBackendsFailed = errors.New("all generation backends failed")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
)

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
