// Package comparison implements the fan-out orchestrator and the ranking
// recorder. One comparison run calls every enabled provider model
// concurrently, isolates each call's failure as data, randomizes the blind
// presentation order, and persists the whole result set as a batch.
package comparison

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"summarycmp/infrastructure/provider"
	"summarycmp/internal/domain"
)

// Store is the persistence surface the comparison engine requires.
// *storage.Store satisfies it.
type Store interface {
	EnabledProviderModels(ctx context.Context) ([]domain.ProviderModel, error)
	CreateSession(ctx context.Context, session *domain.ComparisonSession) error
	CreateResults(ctx context.Context, results []domain.SummaryResult) error
	GetSession(ctx context.Context, id uuid.UUID) (*domain.ComparisonSession, error)
	SaveRanking(ctx context.Context, session *domain.ComparisonSession) error
	RecentSessions(ctx context.Context, count int) ([]domain.ComparisonSession, error)
	AllSessions(ctx context.Context) ([]domain.ComparisonSession, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	ToggleResultFlag(ctx context.Context, resultID uint) error
}

// Registry resolves provider adapters by key. The registry is built once at
// startup and read-only afterwards.
type Registry interface {
	Get(key string) (provider.SummaryProvider, bool)
}

// Service orchestrates comparison sessions end to end.
type Service struct {
	store    Store
	registry Registry
	log      *logrus.Logger
}

// NewService wires the orchestrator to its collaborators.
func NewService(store Store, registry Registry, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: store, registry: registry, log: log}
}

// CreateAndRun creates a session for inputText and fans the text out to
// every enabled provider model concurrently. It waits for every call to
// finish — no failure aborts or delays a sibling — then assigns a uniformly
// random blind display order and persists all results as one batch.
//
// Returns domain.ErrNoEnabledProviders, with no session persisted, when no
// provider model is enabled.
func (s *Service) CreateAndRun(
	ctx context.Context,
	inputText string,
	sampleFileName, sampleDescription *string,
) (*domain.ComparisonSession, error) {
	models, err := s.store.EnabledProviderModels(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, domain.ErrNoEnabledProviders
	}

	session := &domain.ComparisonSession{
		ID:                uuid.New(),
		InputText:         inputText,
		SampleFileName:    sampleFileName,
		SampleDescription: sampleDescription,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	results := make([]domain.SummaryResult, len(models))
	var wg sync.WaitGroup

	for i, model := range models {
		adapter, ok := s.registry.Get(model.ProviderKey)
		if !ok {
			// No adapter for this key: synthesize the failure without
			// making a call or spawning a unit.
			message := fmt.Sprintf("Provider %s not found", model.ProviderKey)
			results[i] = domain.SummaryResult{
				SessionID:       session.ID,
				ProviderModelID: model.ID,
				IsSuccess:       false,
				ErrorMessage:    &message,
				DurationMs:      0,
			}
			continue
		}

		wg.Add(1)
		go func(i int, model domain.ProviderModel, adapter provider.SummaryProvider) {
			defer wg.Done()

			s.log.WithFields(logrus.Fields{
				"session_id": session.ID,
				"provider":   model.ProviderKey,
				"model":      model.ModelID,
			}).Info("starting summarization")

			outcome := adapter.Summarize(ctx, inputText, model.ModelID)
			results[i] = resultFromOutcome(session.ID, model.ID, outcome)

			s.log.WithFields(logrus.Fields{
				"session_id":  session.ID,
				"provider":    model.ProviderKey,
				"model":       model.ModelID,
				"success":     outcome.Success,
				"duration_ms": outcome.DurationMs,
			}).Debug("summarization finished")
		}(i, model, adapter)
	}

	wg.Wait()

	// Blind display order: a uniform permutation of 1..N, independent of
	// provider identity and of which call finished first.
	for i, position := range rand.Perm(len(results)) {
		results[i].DisplayOrder = position + 1
	}

	if err := s.store.CreateResults(ctx, results); err != nil {
		return nil, err
	}

	session.Results = results
	return session, nil
}

// resultFromOutcome copies an adapter outcome verbatim into a result row.
func resultFromOutcome(sessionID uuid.UUID, providerModelID uint, outcome provider.Outcome) domain.SummaryResult {
	result := domain.SummaryResult{
		SessionID:       sessionID,
		ProviderModelID: providerModelID,
		IsSuccess:       outcome.Success,
		DurationMs:      outcome.DurationMs,
		InputTokens:     outcome.InputTokens,
		InternalTokens:  outcome.InternalTokens,
		OutputTokens:    outcome.OutputTokens,
	}
	if outcome.SummaryText != "" {
		text := outcome.SummaryText
		result.SummaryText = &text
	}
	if outcome.ErrorMessage != "" {
		message := outcome.ErrorMessage
		result.ErrorMessage = &message
	}
	return result
}

// GetSession loads a session with its results and provider models.
func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (*domain.ComparisonSession, error) {
	return s.store.GetSession(ctx, id)
}

// RecentSessions lists the newest count sessions.
func (s *Service) RecentSessions(ctx context.Context, count int) ([]domain.ComparisonSession, error) {
	return s.store.RecentSessions(ctx, count)
}

// AllSessions lists every session. Administrative use.
func (s *Service) AllSessions(ctx context.Context) ([]domain.ComparisonSession, error) {
	return s.store.AllSessions(ctx)
}

// DeleteSession removes a session together with its results.
func (s *Service) DeleteSession(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteSession(ctx, id)
}

// ToggleResultFlag flips the unacceptable flag on a single result.
func (s *Service) ToggleResultFlag(ctx context.Context, resultID uint) error {
	return s.store.ToggleResultFlag(ctx, resultID)
}
