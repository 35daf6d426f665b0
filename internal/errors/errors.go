package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for different categories
var (
	// ErrTransport - network or parse failure talking to a downstream service
	// (logged, surfaced as a short user-visible notice, never crashes the process)
	ErrTransport = errors.New("transport failure")

	// ErrDecode - malformed callback token (rejected, user sees a generic retry notice)
	ErrDecode = errors.New("decode failure")

	// ErrUnauthorized - non-operator attempting an operator action
	// (visible only to the actor, no side effect performed)
	ErrUnauthorized = errors.New("not authorized")

	// ErrNotFound - selection references a batch no longer in the cache
	ErrNotFound = errors.New("not found")

	// ErrRegister - the register stage of the onboarding protocol returned non-2xx
	ErrRegister = errors.New("register stage failed")

	// ErrPublish - register succeeded but the publish stage returned non-2xx;
	// upstream is left inconsistent and a human must reconcile
	ErrPublish = errors.New("publish stage failed")

	// ErrInternal - anything that is a bug rather than an expected failure
	ErrInternal = errors.New("internal error")
)

// Wrap wraps an error with context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsCategory checks if error belongs to a specific category.
func IsCategory(err error, category error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, category)
}

// Transport wraps a message as a transport failure.
func Transport(message string) error {
	return fmt.Errorf("%s: %w", message, ErrTransport)
}

// Decode wraps a message as a decode failure.
func Decode(message string) error {
	return fmt.Errorf("%s: %w", message, ErrDecode)
}

// Unauthorized wraps a message as an authorization failure.
func Unauthorized(message string) error {
	return fmt.Errorf("%s: %w", message, ErrUnauthorized)
}

// NotFound wraps a message as not found.
func NotFound(message string) error {
	return fmt.Errorf("%s: %w", message, ErrNotFound)
}

// Internal wraps a message as an internal error.
func Internal(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInternal)
}
