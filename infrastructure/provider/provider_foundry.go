package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"summarycmp/internal/domain"
)

// FoundryProviderKey selects the Microsoft Foundry text analytics adapter.
const FoundryProviderKey = "foundry"

const (
	foundryAPIVersion      = "2025-05-15-preview"
	foundryMaxPollAttempts = 60
	foundryPollInterval    = time.Second
)

// foundryRecordPrice is the flat $2 per 1000 records; one record covers up
// to 1000 input characters.
var (
	foundryRecordPrice = decimal.NewFromInt(2)
	foundryRecordBatch = decimal.NewFromInt(1000)
)

func init() {
	RegisterProviderFactory(FoundryProviderKey, newFoundryProvider)
}

// foundryProvider is the asynchronous submit-then-poll adapter for the
// Foundry abstractive summarization jobs API. Summarize submits a job,
// obtains the opaque operation location from the response header, and polls
// it at a fixed interval until a terminal status or the poll ceiling.
// Every internal error is caught at this boundary and converted into a
// failed Outcome.
type foundryProvider struct {
	httpClient      *http.Client
	apiKey          string
	endpoint        string
	pollInterval    time.Duration
	maxPollAttempts int
	log             *logrus.Entry
}

type foundryDocument struct {
	ID       string `json:"id"`
	Language string `json:"language"`
	Text     string `json:"text"`
}

type foundryTaskParameters struct {
	SummaryLength string `json:"summaryLength"`
}

type foundryTask struct {
	Kind       string                `json:"kind"`
	Parameters foundryTaskParameters `json:"parameters"`
}

type foundrySubmitRequest struct {
	AnalysisInput struct {
		Documents []foundryDocument `json:"documents"`
	} `json:"analysisInput"`
	Tasks []foundryTask `json:"tasks"`
}

func newFoundryProvider(config ClientConfig) (SummaryProvider, error) {
	httpClient := &http.Client{}
	if config.Timeout > 0 {
		httpClient.Timeout = config.Timeout
	}

	return &foundryProvider{
		httpClient:      httpClient,
		apiKey:          config.APIKey,
		endpoint:        strings.TrimRight(config.Endpoint, "/"),
		pollInterval:    foundryPollInterval,
		maxPollAttempts: foundryMaxPollAttempts,
		log:             config.logger(FoundryProviderKey),
	}, nil
}

func (p *foundryProvider) Key() string { return FoundryProviderKey }

func (p *foundryProvider) IsConfigured() bool {
	return p.apiKey != "" && p.endpoint != ""
}

// Summarize submits an abstractive summarization job and polls it to
// completion. Duration covers the submit plus every poll.
func (p *foundryProvider) Summarize(ctx context.Context, text, modelID string) Outcome {
	start := time.Now()

	if !p.IsConfigured() {
		return failure(start, "Foundry endpoint or API key not configured")
	}

	operationLocation, err := p.submitJob(ctx, text)
	if err != nil {
		p.log.WithError(err).Error("foundry job submission failed")
		return failure(start, err.Error())
	}
	// A missing operation location is a reported failure, not an exception.
	if operationLocation == "" {
		return failure(start, "failed to submit summarization job: no operation location returned")
	}

	summary, err := p.pollForResult(ctx, operationLocation)
	if err != nil {
		p.log.WithError(err).Error("foundry job polling failed")
		return failure(start, err.Error())
	}

	return Outcome{
		Success:     true,
		SummaryText: summary,
		DurationMs:  time.Since(start).Milliseconds(),
	}
}

// submitJob posts the analysis job and returns the opaque operation
// location to poll, taken from the response header.
func (p *foundryProvider) submitJob(ctx context.Context, text string) (string, error) {
	var request foundrySubmitRequest
	request.AnalysisInput.Documents = []foundryDocument{
		{ID: "1", Language: "en", Text: text},
	}
	request.Tasks = []foundryTask{
		{
			Kind:       "AbstractiveSummarization",
			Parameters: foundryTaskParameters{SummaryLength: "oneSentence"},
		},
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshal job request: %w", err)
	}

	url := fmt.Sprintf("%s/language/analyze-text/jobs?api-version=%s", p.endpoint, foundryAPIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create job request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to submit job: %d - %s", resp.StatusCode, string(errorBody))
	}

	return resp.Header.Get("Operation-Location"), nil
}

// pollForResult polls the operation location until the job reaches a
// terminal status or the attempt ceiling is hit. Any status other than the
// terminal values means the job is still running.
func (p *foundryProvider) pollForResult(ctx context.Context, operationLocation string) (string, error) {
	for attempt := 0; attempt < p.maxPollAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationLocation, nil)
		if err != nil {
			return "", fmt.Errorf("create poll request: %w", err)
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", p.apiKey)

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("poll job: %w", err)
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return "", fmt.Errorf("read poll response: %w", readErr)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", fmt.Errorf("failed to poll for results: %d", resp.StatusCode)
		}

		switch status := gjson.GetBytes(body, "status").String(); status {
		case "succeeded":
			return extractFoundrySummary(body), nil
		case "failed", "cancelled":
			errorPayload := "Unknown error"
			if errs := gjson.GetBytes(body, "errors"); errs.Exists() {
				errorPayload = errs.Raw
			}
			return "", fmt.Errorf("job %s: %s", status, errorPayload)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.pollInterval):
		}
	}

	return "", fmt.Errorf("job did not complete within %d polling attempts", p.maxPollAttempts)
}

// extractFoundrySummary joins every summary fragment of every document in
// every task item with single spaces.
func extractFoundrySummary(body []byte) string {
	var fragments []string
	gjson.GetBytes(body, "tasks.items").ForEach(func(_, item gjson.Result) bool {
		item.Get("results.documents").ForEach(func(_, doc gjson.Result) bool {
			doc.Get("summaries").ForEach(func(_, summary gjson.Result) bool {
				fragments = append(fragments, summary.Get("text").String())
				return true
			})
			return true
		})
		return true
	})
	return strings.Join(fragments, " ")
}

// CalculatePrice prices a result by the owning session's input length:
// one record per started 1000 characters, $2 per 1000 records. Without the
// session text there is no price.
func (p *foundryProvider) CalculatePrice(result *domain.SummaryResult) *decimal.Decimal {
	if result == nil || result.Session == nil || result.Session.InputText == "" {
		return nil
	}

	length := len(result.Session.InputText)
	records := int64((length + 999) / 1000)
	cost := decimal.NewFromInt(records).Mul(foundryRecordPrice).Div(foundryRecordBatch)
	return &cost
}
