package domain

import "errors"

var (
	// ErrNotFound is returned when a ticket or conversation does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrLLMNotConfigured is returned when no provider credential is set.
	ErrLLMNotConfigured = errors.New("OPENAI_API_KEY is not configured")
	// ErrInvalidTransition is returned when a ticket status would move backward.
	ErrInvalidTransition = errors.New("invalid ticket status transition")
	// ErrUnauthorized is returned when a caller lacks the admin role.
	ErrUnauthorized = errors.New("unauthorized")
)
