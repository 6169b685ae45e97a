// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation indicates a field-level validation failure; no store call
	// is issued when it is returned.
	ErrValidation = errors.New("validation failed")

	// ErrImageTooLarge indicates the processed photo exceeds the configured
	// cap. The whole submission is rejected, nothing partial is written.
	ErrImageTooLarge = errors.New("image too large")
)
