package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"summarycmp/internal/domain"
)

const geminiSuccessBody = `{
	"candidates": [{"content": {"role": "model", "parts": [{"text": "One sentence."}]}, "finishReason": "STOP"}],
	"usageMetadata": {"promptTokenCount": 7, "candidatesTokenCount": 4, "thoughtsTokenCount": 2}
}`

func newGeminiTestProvider(t *testing.T, handler http.HandlerFunc) *geminiProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := newGeminiProvider(ClientConfig{
		APIKey:   "test-key",
		Endpoint: server.URL,
	})
	require.NoError(t, err)

	gemini := adapter.(*geminiProvider)
	// Keep retry waits negligible in tests.
	gemini.retryDelay = time.Millisecond
	return gemini
}

func TestGeminiProvider_Summarize_Success(t *testing.T) {
	adapter := newGeminiTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, geminiSuccessBody)
	})

	outcome := adapter.Summarize(context.Background(), "voicemail text", "gemini-3-flash-preview")

	require.True(t, outcome.Success, "expected success, got error %q", outcome.ErrorMessage)
	assert.Equal(t, "One sentence.", outcome.SummaryText)
	require.NotNil(t, outcome.InputTokens)
	assert.Equal(t, 7, *outcome.InputTokens)
	require.NotNil(t, outcome.OutputTokens)
	assert.Equal(t, 4, *outcome.OutputTokens)
	require.NotNil(t, outcome.InternalTokens)
	assert.Equal(t, 2, *outcome.InternalTokens)
}

func TestGeminiProvider_Summarize_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	adapter := newGeminiTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error": {"code": 500, "message": "transient", "status": "INTERNAL"}}`)
			return
		}
		fmt.Fprint(w, geminiSuccessBody)
	})

	outcome := adapter.Summarize(context.Background(), "text", "gemini-3-flash-preview")

	require.True(t, outcome.Success, "third attempt should succeed, got error %q", outcome.ErrorMessage)
	assert.Equal(t, "One sentence.", outcome.SummaryText)
	assert.Equal(t, int32(3), calls.Load(), "two failures plus the successful attempt")
}

func TestGeminiProvider_Summarize_ExhaustsRetryBudget(t *testing.T) {
	var calls atomic.Int32
	adapter := newGeminiTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error": {"code": 503, "message": "overloaded", "status": "UNAVAILABLE"}}`)
	})

	outcome := adapter.Summarize(context.Background(), "text", "gemini-3-flash-preview")

	require.False(t, outcome.Success)
	assert.Equal(t, "API error: 503 Service Unavailable", outcome.ErrorMessage, "last attempt's error should surface")
	assert.Equal(t, int32(1+geminiMaxRetries), calls.Load(), "initial attempt plus full retry budget")
}

func TestGeminiProvider_Summarize_CancellationDuringWait(t *testing.T) {
	adapter := newGeminiTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error": {"code": 503, "message": "overloaded", "status": "UNAVAILABLE"}}`)
	})
	adapter.retryDelay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Outcome, 1)
	go func() { done <- adapter.Summarize(ctx, "text", "gemini-3-flash-preview") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case outcome := <-done:
		require.False(t, outcome.Success)
		assert.Equal(t, "API error: 503 Service Unavailable", outcome.ErrorMessage,
			"cancellation during the wait should keep the last attempt's error")
	case <-time.After(5 * time.Second):
		t.Fatal("cancellation should interrupt the retry wait")
	}
}

func TestGeminiProvider_Summarize_NotConfigured(t *testing.T) {
	adapter, err := newGeminiProvider(ClientConfig{})
	require.NoError(t, err, "factory must succeed without credentials")
	assert.False(t, adapter.IsConfigured())

	outcome := adapter.Summarize(context.Background(), "text", "gemini-3-flash-preview")
	require.False(t, outcome.Success)
	assert.Equal(t, "Gemini API key not configured", outcome.ErrorMessage)
}

func TestGeminiProvider_CalculatePrice(t *testing.T) {
	adapter, err := newGeminiProvider(ClientConfig{APIKey: "test-key"})
	require.NoError(t, err)

	result := &domain.SummaryResult{
		ProviderModel:  &domain.ProviderModel{ModelID: "gemini-3-flash-preview"},
		InputTokens:    intPtr(1_000_000),
		OutputTokens:   intPtr(500_000),
		InternalTokens: intPtr(500_000),
	}
	got := adapter.CalculatePrice(result)
	require.NotNil(t, got)
	// $0.50 input + $3.00 for a combined million output-rate tokens.
	assert.True(t, got.Equal(mustPrice("3.50")), "got %s", got)
}
