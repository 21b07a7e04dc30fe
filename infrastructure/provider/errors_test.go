package provider

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessenger_HTTPStatusMessage(t *testing.T) {
	msg := errorMessenger{Provider: "test"}

	assert.Equal(t, "API error: 429 Too Many Requests", msg.httpStatusMessage(429))
	assert.Equal(t, "API error: 500 Internal Server Error", msg.httpStatusMessage(500))
	// Unknown status codes still produce a message.
	assert.Equal(t, "API error: 799", msg.httpStatusMessage(799))
}

func TestErrorMessenger_ContextMessage(t *testing.T) {
	msg := errorMessenger{Provider: "test"}

	assert.Equal(t, "request timed out", msg.contextMessage(context.DeadlineExceeded))
	assert.Equal(t, "request canceled", msg.contextMessage(context.Canceled))
	assert.Equal(t, "boom", msg.contextMessage(errors.New("boom")))
}

func TestTruncateMessage(t *testing.T) {
	assert.Equal(t, "short", truncateMessage("short", 100))

	long := strings.Repeat("x", 150)
	got := truncateMessage(long, 100)
	assert.Len(t, got, 103)
	assert.True(t, strings.HasSuffix(got, "..."))
}
