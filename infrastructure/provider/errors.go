package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// errorMessenger standardizes the human-readable failure messages adapters
// put on their Outcomes. Message shapes are part of the user-visible
// contract: a failed comparison slot displays its message alongside the
// successful slots.
type errorMessenger struct {
	// Provider names the adapter, used only in logs; messages themselves
	// stay vendor-neutral so the blind comparison does not leak identity
	// through wording alone.
	Provider string
}

// httpStatusMessage renders the generic non-success vendor response message.
func (errorMessenger) httpStatusMessage(statusCode int) string {
	text := http.StatusText(statusCode)
	if text == "" {
		return fmt.Sprintf("API error: %d", statusCode)
	}
	return fmt.Sprintf("API error: %d %s", statusCode, text)
}

// contextMessage renders cancellation and deadline failures.
func (errorMessenger) contextMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request canceled"
	default:
		return err.Error()
	}
}

// isContextError reports whether err stems from context cancellation or
// deadline expiry.
func isContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

// truncateMessage bounds vendor error messages so a single verbose response
// cannot flood the comparison view.
func truncateMessage(message string, limit int) string {
	if len(message) <= limit {
		return message
	}
	return message[:limit] + "..."
}
