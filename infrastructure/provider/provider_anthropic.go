package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"summarycmp/internal/domain"
)

// AnthropicProviderKey selects the Anthropic adapter.
const AnthropicProviderKey = "anthropic"

const anthropicMaxTokens = 1024

func init() {
	RegisterProviderFactory(AnthropicProviderKey, newAnthropicProvider)
}

// anthropicProvider is the plain request/response adapter for the Anthropic
// Messages API: one authenticated call per Summarize, no retries.
type anthropicProvider struct {
	client     anthropic.Client
	configured bool
	log        *logrus.Entry
	msg        errorMessenger
	prices     PriceTable
}

func newAnthropicProvider(config ClientConfig) (SummaryProvider, error) {
	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(config.Endpoint))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: config.Timeout}))
	}

	return &anthropicProvider{
		client:     anthropic.NewClient(opts...),
		configured: config.APIKey != "",
		log:        config.logger(AnthropicProviderKey),
		msg:        errorMessenger{Provider: AnthropicProviderKey},
		prices: PriceTable{
			Models: map[string]ModelPricing{
				"claude-opus-4-5":   {InputPerMillion: mustPrice("5.00"), OutputPerMillion: mustPrice("25.00")},
				"claude-sonnet-4-5": {InputPerMillion: mustPrice("3.00"), OutputPerMillion: mustPrice("15.00")},
				"claude-haiku-4-5":  {InputPerMillion: mustPrice("1.00"), OutputPerMillion: mustPrice("5.00")},
			},
			// Unknown Claude models are billed at Sonnet rates.
			Default: ModelPricing{InputPerMillion: mustPrice("3.00"), OutputPerMillion: mustPrice("15.00")},
		},
	}, nil
}

func (p *anthropicProvider) Key() string { return AnthropicProviderKey }

func (p *anthropicProvider) IsConfigured() bool { return p.configured }

// Summarize issues a single Messages call and converts any failure into a
// failed Outcome.
func (p *anthropicProvider) Summarize(ctx context.Context, text, modelID string) Outcome {
	start := time.Now()

	if !p.configured {
		return failure(start, "Claude API key not configured")
	}

	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(summaryPrompt(text))),
		},
	})
	if err != nil {
		p.log.WithField("model", modelID).WithError(err).Error("anthropic request failed")
		return failure(start, p.errorMessage(err))
	}

	var summary strings.Builder
	for _, block := range message.Content {
		switch content := block.AsAny().(type) {
		case anthropic.TextBlock:
			summary.WriteString(content.Text)
		}
	}

	outcome := Outcome{
		Success:     true,
		SummaryText: summary.String(),
		DurationMs:  time.Since(start).Milliseconds(),
	}
	if message.Usage.InputTokens > 0 {
		outcome.InputTokens = intPtr(int(message.Usage.InputTokens))
	}
	if message.Usage.OutputTokens > 0 {
		outcome.OutputTokens = intPtr(int(message.Usage.OutputTokens))
	}
	return outcome
}

// errorMessage maps SDK errors onto the user-visible message shapes.
func (p *anthropicProvider) errorMessage(err error) string {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return p.msg.httpStatusMessage(apiErr.StatusCode)
	}
	if isContextError(err) {
		return p.msg.contextMessage(err)
	}
	return err.Error()
}

// CalculatePrice prices a result from its token counts. Anthropic billing
// needs both the input and output counts; without either there is no price.
func (p *anthropicProvider) CalculatePrice(result *domain.SummaryResult) *decimal.Decimal {
	return tokenPrice(p.prices, result, true)
}
