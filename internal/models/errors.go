package models

import "errors"

// Common errors
var (
	// ErrNotFound is returned when a requested slug does not resolve to a
	// visible page. Draft pages are indistinguishable from missing ones.
	ErrNotFound = errors.New("resource not found")

	// ErrNotConfigured is returned when no visible home page exists.
	ErrNotConfigured = errors.New("home page not configured")

	// ErrStoreUnavailable is returned when the content or media store
	// cannot be reached. Maps to a 5xx response, never retried here.
	ErrStoreUnavailable = errors.New("content store unavailable")
)
