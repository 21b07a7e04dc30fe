package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors reported by the comparison engine's operations.
// Per-provider failures are never surfaced as errors; they are captured as
// failed SummaryResult rows instead.
var (
	// ErrNoEnabledProviders indicates that a comparison was requested while
	// no provider model is enabled. No session is created in that case.
	ErrNoEnabledProviders = errors.New("no provider models are enabled")

	// ErrSessionNotFound indicates an operation against an unknown session id.
	ErrSessionNotFound = errors.New("comparison session not found")
)

// ValidationError reports a ranking submission that does not match the
// session it targets. The session is left unmodified and may be resubmitted.
type ValidationError struct {
	Reason string
}

// Error satisfies the error interface.
func (e *ValidationError) Error() string {
	return "invalid ranking submission: " + e.Reason
}

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a ranking validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
