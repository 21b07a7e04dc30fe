package provider

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"summarycmp/internal/domain"
)

// GeminiProviderKey selects the Gemini adapter.
const GeminiProviderKey = "gemini"

const (
	// geminiMaxRetries is the retry budget on top of the initial attempt.
	geminiMaxRetries = 3
	geminiRetryDelay = 500 * time.Millisecond
)

func init() {
	RegisterProviderFactory(GeminiProviderKey, newGeminiProvider)
}

// geminiProvider is the retrying request/response adapter for the Gemini
// API. Any failed attempt — non-success status or transport error — is
// retried after a fixed delay until the retry budget is spent; the final
// Outcome carries only the last attempt's data.
type geminiProvider struct {
	client     *genai.Client
	configured bool
	retryDelay time.Duration
	log        *logrus.Entry
	msg        errorMessenger
	prices     PriceTable
}

func newGeminiProvider(config ClientConfig) (SummaryProvider, error) {
	configured := config.APIKey != ""

	var client *genai.Client
	if configured {
		clientConfig := &genai.ClientConfig{
			APIKey:  config.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
		if config.Endpoint != "" {
			clientConfig.HTTPOptions.BaseURL = config.Endpoint
		}
		if config.Timeout > 0 {
			clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
		}

		var err error
		client, err = genai.NewClient(context.Background(), clientConfig)
		if err != nil {
			return nil, err
		}
	}

	return &geminiProvider{
		client:     client,
		configured: configured,
		retryDelay: geminiRetryDelay,
		log:        config.logger(GeminiProviderKey),
		msg:        errorMessenger{Provider: GeminiProviderKey},
		prices: PriceTable{
			Models: map[string]ModelPricing{
				"gemini-3-flash-preview": {InputPerMillion: mustPrice("0.50"), OutputPerMillion: mustPrice("3.00")},
			},
			Default: ModelPricing{InputPerMillion: mustPrice("0.50"), OutputPerMillion: mustPrice("3.00")},
		},
	}, nil
}

func (p *geminiProvider) Key() string { return GeminiProviderKey }

func (p *geminiProvider) IsConfigured() bool { return p.configured }

// Summarize runs up to 1 + geminiMaxRetries generation attempts. The waits
// between attempts are interruptible by ctx; duration covers all attempts.
func (p *geminiProvider) Summarize(ctx context.Context, text, modelID string) Outcome {
	start := time.Now()

	if !p.configured {
		return failure(start, "Gemini API key not configured")
	}

	contents := []*genai.Content{
		genai.NewContentFromText(summaryPrompt(text), genai.RoleUser),
	}

	var lastError string
	for attempt := 0; attempt <= geminiMaxRetries; attempt++ {
		if attempt > 0 {
			p.log.WithFields(logrus.Fields{"model": modelID, "attempt": attempt}).
				Warn("retrying gemini request")
			select {
			case <-ctx.Done():
				if lastError == "" {
					lastError = p.msg.contextMessage(ctx.Err())
				}
				return failure(start, lastError)
			case <-time.After(p.retryDelay):
			}
		}

		resp, err := p.client.Models.GenerateContent(ctx, modelID, contents, nil)
		if err != nil {
			lastError = p.errorMessage(err)
			p.log.WithFields(logrus.Fields{"model": modelID, "attempt": attempt}).
				WithError(err).Error("gemini request failed")
			continue
		}

		outcome := Outcome{
			Success:     true,
			SummaryText: resp.Text(),
			DurationMs:  time.Since(start).Milliseconds(),
		}
		if usage := resp.UsageMetadata; usage != nil {
			if usage.PromptTokenCount > 0 {
				outcome.InputTokens = intPtr(int(usage.PromptTokenCount))
			}
			if usage.CandidatesTokenCount > 0 {
				outcome.OutputTokens = intPtr(int(usage.CandidatesTokenCount))
			}
			if usage.ThoughtsTokenCount > 0 {
				outcome.InternalTokens = intPtr(int(usage.ThoughtsTokenCount))
			}
		}
		return outcome
	}

	if lastError == "" {
		lastError = "no successful attempt"
	}
	return failure(start, lastError)
}

// errorMessage maps SDK errors onto the user-visible message shapes.
func (p *geminiProvider) errorMessage(err error) string {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return p.msg.httpStatusMessage(gErr.Code)
	}
	var aErr genai.APIError
	if errors.As(err, &aErr) {
		return p.msg.httpStatusMessage(aErr.Code)
	}
	if isContextError(err) {
		return p.msg.contextMessage(err)
	}
	return err.Error()
}

// CalculatePrice prices a result from its token counts. Gemini billing
// needs the input count; thinking tokens are billed at the output rate.
func (p *geminiProvider) CalculatePrice(result *domain.SummaryResult) *decimal.Decimal {
	return tokenPrice(p.prices, result, false)
}
