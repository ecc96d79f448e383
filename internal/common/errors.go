// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Model lifecycle errors.
	ErrModelNotLoaded = errors.New("model is not loaded")
	ErrModelNotFitted = errors.New("model is not fitted")

	// Input errors.
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnknownCategory = errors.New("unknown category")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Storage errors.
	ErrNotFound = errors.New("not found")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// InvalidInputf wraps ErrInvalidInput with a formatted reason.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// InvalidConfigf wraps ErrInvalidConfig with a formatted reason.
func InvalidConfigf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// IsUnavailable reports whether err means the model cannot serve requests
// until it is reloaded or retrained.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrModelNotLoaded) || errors.Is(err, ErrModelNotFitted)
}
