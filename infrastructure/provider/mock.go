package provider

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"summarycmp/internal/domain"
)

// MockProvider is a configurable SummaryProvider for testing orchestration
// and aggregation logic without real vendor calls.
type MockProvider struct {
	// ProviderKey is returned by Key.
	ProviderKey string
	// Configured is returned by IsConfigured.
	Configured bool
	// SummarizeFunc injects custom behavior. When nil, Summarize returns a
	// default successful outcome.
	SummarizeFunc func(ctx context.Context, text, modelID string) Outcome
	// PriceFunc injects custom pricing. When nil, CalculatePrice returns no
	// price.
	PriceFunc func(result *domain.SummaryResult) *decimal.Decimal

	mu        sync.Mutex
	callCount int
}

// Key implements SummaryProvider.
func (m *MockProvider) Key() string { return m.ProviderKey }

// IsConfigured implements SummaryProvider.
func (m *MockProvider) IsConfigured() bool { return m.Configured }

// Summarize implements SummaryProvider. It tracks the number of calls and
// delegates to SummarizeFunc when set.
func (m *MockProvider) Summarize(ctx context.Context, text, modelID string) Outcome {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, text, modelID)
	}
	return Outcome{
		Success:     true,
		SummaryText: "mock summary",
		DurationMs:  1,
	}
}

// CalculatePrice implements SummaryProvider.
func (m *MockProvider) CalculatePrice(result *domain.SummaryResult) *decimal.Decimal {
	if m.PriceFunc != nil {
		return m.PriceFunc(result)
	}
	return nil
}

// CallCount returns how many times Summarize has been invoked.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
