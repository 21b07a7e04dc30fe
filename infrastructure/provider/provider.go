// Package provider implements the uniform adapter layer over heterogeneous
// summarization vendors. Every vendor protocol — plain request/response,
// retrying request/response, and asynchronous submit-then-poll — is hidden
// behind the same SummaryProvider contract: Summarize never returns an
// error, it always returns an Outcome describing what happened, so one
// provider's failure can never unwind into a sibling call.
//
// Adapters register themselves through RegisterProviderFactory at init time
// and are assembled into an immutable Registry during process start.
// Cross-cutting concerns (metrics, tracing, outbound rate limiting) are
// layered on through the Middleware pattern without touching adapter code.
package provider

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"summarycmp/internal/domain"
)

// Outcome is the uniform result of one summarization attempt, regardless of
// the vendor protocol that produced it. Duration covers the whole call,
// including internal retries and polls.
type Outcome struct {
	Success      bool
	SummaryText  string
	ErrorMessage string
	DurationMs   int64

	// Token usage as reported by the vendor. Nil when the vendor did not
	// report the count; pricing treats missing counts as "no price".
	InputTokens    *int
	InternalTokens *int
	OutputTokens   *int
}

// SummaryProvider is the capability set every vendor adapter exposes.
type SummaryProvider interface {
	// Key identifies the adapter; provider models select their adapter by it.
	Key() string

	// IsConfigured reports whether the required credentials and endpoint are
	// present. Callers use it to decide whether to surface the provider;
	// Summarize still self-checks and fails gracefully when called anyway.
	IsConfigured() bool

	// Summarize runs one summarization of text with the given vendor model.
	// It never returns an error: every failure, including cancellation, is
	// converted into a failed Outcome at the adapter boundary.
	Summarize(ctx context.Context, text, modelID string) Outcome

	// CalculatePrice computes the cost of a persisted result from its token
	// fields and model id. It returns nil — never zero — when the token
	// counts it needs are absent.
	CalculatePrice(result *domain.SummaryResult) *decimal.Decimal
}

// ClientConfig holds the already-resolved credentials and operational
// settings an adapter is constructed with. Adapters never fetch secrets
// themselves.
type ClientConfig struct {
	// APIKey authenticates requests to the vendor.
	APIKey string
	// Endpoint overrides or supplies the vendor endpoint. Required for
	// deployment-scoped vendors (Azure OpenAI, Foundry); optional elsewhere.
	Endpoint string
	// Timeout bounds each individual HTTP attempt. Zero means no timeout.
	Timeout time.Duration
	// Logger receives structured adapter logs. Nil falls back to the
	// standard logrus logger.
	Logger *logrus.Logger
	// Middleware wraps the adapter in the order given, first entry outermost.
	Middleware []Middleware
}

func (c ClientConfig) logger(key string) *logrus.Entry {
	log := c.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return log.WithField("provider", key)
}

// Middleware wraps a SummaryProvider to add cross-cutting behavior such as
// metrics, tracing, or rate limiting without modifying adapter logic.
type Middleware func(SummaryProvider) SummaryProvider

// ProviderFactory builds an adapter from configuration. Factories must
// succeed even when credentials are absent; the resulting adapter reports
// IsConfigured() == false and fails gracefully from Summarize.
type ProviderFactory func(ClientConfig) (SummaryProvider, error)

var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers an adapter factory under its provider
// key. Adapters call this from init; the set is fixed before any registry
// is built.
func RegisterProviderFactory(key string, factory ProviderFactory) {
	providerFactories[key] = factory
}

// FactoryKeys returns the registered provider keys in sorted order.
func FactoryKeys() []string {
	keys := make([]string, 0, len(providerFactories))
	for key := range providerFactories {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// New builds the adapter registered under key and applies the configured
// middleware chain, first middleware outermost.
func New(key string, config ClientConfig) (SummaryProvider, error) {
	factory, ok := providerFactories[key]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", key)
	}

	adapter, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider %s: %w", key, err)
	}

	for i := len(config.Middleware) - 1; i >= 0; i-- {
		adapter = config.Middleware[i](adapter)
	}
	return adapter, nil
}

// summaryPrompt wraps the input in the shared single-sentence summarization
// instruction. The output must stay in the input's language.
func summaryPrompt(text string) string {
	return "Summarize the following transcribed voice mail in a single sentence, in the same language:\n\n" + text
}

// failure builds a failed Outcome measured from start.
func failure(start time.Time, message string) Outcome {
	return Outcome{
		Success:      false,
		ErrorMessage: message,
		DurationMs:   time.Since(start).Milliseconds(),
	}
}

func intPtr(v int) *int { return &v }
