// Package leaderboard aggregates ranked comparison results into per-model
// standings. Aggregation is a pure fold over stored results: given the same
// rows it always produces the same ordering.
package leaderboard

import (
	"context"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"summarycmp/infrastructure/provider"
	"summarycmp/internal/domain"
)

// Store supplies the raw result rows. *storage.Store satisfies it.
type Store interface {
	AllResults(ctx context.Context) ([]domain.SummaryResult, error)
}

// Registry resolves provider adapters for price calculation.
type Registry interface {
	Get(key string) (provider.SummaryProvider, bool)
}

// Entry is one provider model's standing.
type Entry struct {
	ProviderModelID   uint
	DisplayName       string
	ProviderKey       string
	TotalComparisons  int
	AverageRank       float64
	FirstPlaceWins    int
	AverageDurationMs float64
	FailedCount       int
	// AveragePrice is nil when no result of the model yielded a price.
	AveragePrice *decimal.Decimal
}

// Aggregator computes leaderboard standings.
type Aggregator struct {
	store    Store
	registry Registry
}

// NewAggregator wires the aggregator to its collaborators.
func NewAggregator(store Store, registry Registry) *Aggregator {
	return &Aggregator{store: store, registry: registry}
}

type accumulator struct {
	entry Entry

	rankSum       int
	durationSumMs int64
	priceSum      decimal.Decimal
	priced        int
}

// Compute folds every stored result into per-model standings. Only
// successful results that carry a user rank count as comparisons; failures
// count regardless of whether their session was ever ranked. Models with
// neither ranked comparisons nor failures are omitted; models with only
// failures appear with a zero comparison count and sort last.
func (a *Aggregator) Compute(ctx context.Context) ([]Entry, error) {
	results, err := a.store.AllResults(ctx)
	if err != nil {
		return nil, err
	}

	groups := make(map[uint]*accumulator)
	order := make([]uint, 0)

	for i := range results {
		result := &results[i]
		model := result.ProviderModel
		if model == nil {
			continue
		}

		acc, ok := groups[model.ID]
		if !ok {
			acc = &accumulator{entry: Entry{
				ProviderModelID: model.ID,
				DisplayName:     model.DisplayName,
				ProviderKey:     model.ProviderKey,
			}}
			groups[model.ID] = acc
			order = append(order, model.ID)
		}

		if !result.IsSuccess {
			acc.entry.FailedCount++
			continue
		}
		if result.UserRank == nil {
			// Successful but never ranked: contributes to no statistic.
			continue
		}

		acc.entry.TotalComparisons++
		acc.rankSum += *result.UserRank
		if *result.UserRank == 1 {
			acc.entry.FirstPlaceWins++
		}
		acc.durationSumMs += result.DurationMs

		// Unpriceable results still count toward the rank and duration
		// averages; only the price average's own denominator skips them.
		if adapter, ok := a.registry.Get(model.ProviderKey); ok {
			if price := adapter.CalculatePrice(result); price != nil {
				acc.priceSum = acc.priceSum.Add(*price)
				acc.priced++
			}
		}
	}

	entries := make([]Entry, 0, len(order))
	for _, id := range order {
		acc := groups[id]
		if acc.entry.TotalComparisons == 0 && acc.entry.FailedCount == 0 {
			continue
		}
		if acc.entry.TotalComparisons > 0 {
			acc.entry.AverageRank = float64(acc.rankSum) / float64(acc.entry.TotalComparisons)
			acc.entry.AverageDurationMs = float64(acc.durationSumMs) / float64(acc.entry.TotalComparisons)
		}
		if acc.priced > 0 {
			avg := acc.priceSum.Div(decimal.NewFromInt(int64(acc.priced)))
			acc.entry.AveragePrice = &avg
		}
		entries = append(entries, acc.entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ri, rj := sortRank(entries[i]), sortRank(entries[j])
		if ri != rj {
			return ri < rj
		}
		return entries[i].TotalComparisons > entries[j].TotalComparisons
	})

	return entries, nil
}

// sortRank orders models by average rank; a model with no ranked
// comparisons sorts after every ranked one.
func sortRank(e Entry) float64 {
	if e.TotalComparisons == 0 {
		return math.MaxFloat64
	}
	return e.AverageRank
}
