package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"summarycmp/internal/domain"
)

// AzureOpenAIProviderKey selects the Azure OpenAI adapter.
const AzureOpenAIProviderKey = "azureopenai"

const (
	azureAPIVersion          = "2025-01-01-preview"
	azureMaxCompletionTokens = 1024
	// azureErrorMessageLimit bounds generic vendor error messages shown to
	// the ranking user.
	azureErrorMessageLimit = 100

	azureSystemPrompt = "You are a helpful assistant that summarizes transcribed voice mails."
)

func init() {
	RegisterProviderFactory(AzureOpenAIProviderKey, newAzureOpenAIProvider)
}

// azureOpenAIProvider is the plain request/response adapter for Azure OpenAI
// chat completions. Model ids are Azure deployment names. On non-success
// responses it extracts a structured error message, distinguishing content
// filter rejections and listing the filters that triggered.
type azureOpenAIProvider struct {
	client     *openai.Client
	configured bool
	log        *logrus.Entry
	msg        errorMessenger
	prices     PriceTable
}

func newAzureOpenAIProvider(config ClientConfig) (SummaryProvider, error) {
	configured := config.APIKey != "" && config.Endpoint != ""

	var client *openai.Client
	if configured {
		clientConfig := openai.DefaultAzureConfig(config.APIKey, strings.TrimRight(config.Endpoint, "/"))
		clientConfig.APIVersion = azureAPIVersion
		if config.Timeout > 0 {
			clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
		}
		client = openai.NewClientWithConfig(clientConfig)
	}

	return &azureOpenAIProvider{
		client:     client,
		configured: configured,
		log:        config.logger(AzureOpenAIProviderKey),
		msg:        errorMessenger{Provider: AzureOpenAIProviderKey},
		prices: PriceTable{
			Models: map[string]ModelPricing{
				"gpt-5-nano":       {InputPerMillion: mustPrice("0.05"), OutputPerMillion: mustPrice("0.40")},
				"cohere-command-a": {InputPerMillion: mustPrice("2.50"), OutputPerMillion: mustPrice("10.00")},
			},
			// Unknown deployments are billed at GPT-5 Nano rates.
			Default: ModelPricing{InputPerMillion: mustPrice("0.05"), OutputPerMillion: mustPrice("0.40")},
		},
	}, nil
}

func (p *azureOpenAIProvider) Key() string { return AzureOpenAIProviderKey }

func (p *azureOpenAIProvider) IsConfigured() bool { return p.configured }

// Summarize issues a single chat completion against the deployment named by
// modelID and converts any failure into a failed Outcome.
func (p *azureOpenAIProvider) Summarize(ctx context.Context, text, modelID string) Outcome {
	start := time.Now()

	if !p.configured {
		return failure(start, "Azure OpenAI API key or endpoint not configured")
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: modelID,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: azureSystemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(
					"Please summarize the following voicemail contents in a single sentence, in the same language:\n```\n%s\n```",
					text,
				),
			},
		},
		MaxCompletionTokens: azureMaxCompletionTokens,
	})
	if err != nil {
		p.log.WithField("model", modelID).WithError(err).Error("azure openai request failed")
		return failure(start, p.errorMessage(err))
	}

	if len(resp.Choices) == 0 {
		return failure(start, "empty response from API")
	}

	outcome := Outcome{
		Success:     true,
		SummaryText: resp.Choices[0].Message.Content,
		DurationMs:  time.Since(start).Milliseconds(),
	}
	if resp.Usage.PromptTokens > 0 {
		outcome.InputTokens = intPtr(resp.Usage.PromptTokens)
	}
	if resp.Usage.CompletionTokens > 0 {
		completion := resp.Usage.CompletionTokens
		// Reasoning tokens are reported inside the completion total; split
		// them out so internal tokens stay visible separately.
		if details := resp.Usage.CompletionTokensDetails; details != nil && details.ReasoningTokens > 0 {
			outcome.InternalTokens = intPtr(details.ReasoningTokens)
			outcome.OutputTokens = intPtr(completion - details.ReasoningTokens)
		} else {
			outcome.OutputTokens = intPtr(completion)
		}
	}
	return outcome
}

// errorMessage extracts a structured message from an Azure error response.
// Content filter rejections name the filters that triggered; other vendor
// messages are passed through truncated, falling back to the generic
// "API error" shape.
func (p *azureOpenAIProvider) errorMessage(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok && code == "content_filter" {
			if filters := triggeredContentFilters(apiErr.InnerError); len(filters) > 0 {
				return "Content filtered: " + strings.Join(filters, ", ")
			}
			return "Content filtered by policy"
		}
		if apiErr.Message != "" {
			return truncateMessage(apiErr.Message, azureErrorMessageLimit)
		}
		return p.msg.httpStatusMessage(apiErr.HTTPStatusCode)
	}
	if isContextError(err) {
		return p.msg.contextMessage(err)
	}
	return err.Error()
}

// triggeredContentFilters lists the content filter categories that fired in
// an Azure content_filter rejection.
func triggeredContentFilters(inner *openai.InnerError) []string {
	if inner == nil {
		return nil
	}

	var filters []string
	results := inner.ContentFilterResults
	if results.Hate.Filtered {
		filters = append(filters, "hate")
	}
	if results.SelfHarm.Filtered {
		filters = append(filters, "self_harm")
	}
	if results.Sexual.Filtered {
		filters = append(filters, "sexual")
	}
	if results.Violence.Filtered {
		filters = append(filters, "violence")
	}
	return filters
}

// CalculatePrice prices a result from its token counts. Azure billing needs
// the input count; missing output or internal counts are billed as zero.
func (p *azureOpenAIProvider) CalculatePrice(result *domain.SummaryResult) *decimal.Decimal {
	return tokenPrice(p.prices, result, false)
}
