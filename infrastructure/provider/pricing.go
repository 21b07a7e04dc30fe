package provider

import (
	"github.com/shopspring/decimal"

	"summarycmp/internal/domain"
)

// ModelPricing holds the per-million-token prices for one vendor model.
// Internal ("thinking") tokens are billed at the output rate.
type ModelPricing struct {
	InputPerMillion  decimal.Decimal
	OutputPerMillion decimal.Decimal
}

// PriceTable maps vendor model ids to their pricing. Lookups of unknown
// models fall back to Default; a missing table entry is never an error.
type PriceTable struct {
	Models  map[string]ModelPricing
	Default ModelPricing
}

// Lookup returns the pricing for modelID, falling back to the default entry.
func (t PriceTable) Lookup(modelID string) ModelPricing {
	if p, ok := t.Models[modelID]; ok {
		return p
	}
	return t.Default
}

var oneMillion = decimal.NewFromInt(1_000_000)

// price computes input + output cost for a priced result. Output cost is
// charged over output plus internal tokens. All arithmetic stays in decimal
// so monetary sums never accumulate binary floating point drift.
func price(pricing ModelPricing, inputTokens, outputTokens, internalTokens int) decimal.Decimal {
	inputCost := decimal.NewFromInt(int64(inputTokens)).
		Mul(pricing.InputPerMillion).
		Div(oneMillion)
	outputCost := decimal.NewFromInt(int64(outputTokens + internalTokens)).
		Mul(pricing.OutputPerMillion).
		Div(oneMillion)
	return inputCost.Add(outputCost)
}

// tokenPrice prices a persisted result against a table. requireOutput marks
// vendors whose billing needs an explicit output count; the others treat a
// missing output count as zero. A nil return means "no price".
func tokenPrice(table PriceTable, result *domain.SummaryResult, requireOutput bool) *decimal.Decimal {
	if result == nil || result.InputTokens == nil {
		return nil
	}
	if requireOutput && result.OutputTokens == nil {
		return nil
	}

	modelID := ""
	if result.ProviderModel != nil {
		modelID = result.ProviderModel.ModelID
	}
	pricing := table.Lookup(modelID)

	output := 0
	if result.OutputTokens != nil {
		output = *result.OutputTokens
	}
	internal := 0
	if result.InternalTokens != nil {
		internal = *result.InternalTokens
	}

	cost := price(pricing, *result.InputTokens, output, internal)
	return &cost
}

func mustPrice(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}
