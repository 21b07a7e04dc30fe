// Package domain defines the persistent entities of the comparison engine
// and the errors its operations report. The entities double as the storage
// schema; the storage layer migrates them verbatim.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ComparisonSession is one blind comparison run: a single input text fanned
// out to every enabled provider model. A session owns its results and is
// deleted as a unit together with them.
type ComparisonSession struct {
	// ID is the opaque session identity handed to the presentation layer.
	ID uuid.UUID `gorm:"type:text;primaryKey"`
	// InputText is the text every provider was asked to summarize.
	InputText string `gorm:"not null"`
	// SampleFileName and SampleDescription carry optional metadata about
	// the sample the input text came from.
	SampleFileName    *string
	SampleDescription *string
	CreatedAt         time.Time
	// CompletedAt is set when the ranking for this session is recorded.
	CompletedAt *time.Time
	// IsRanked is true once every result of the session carries a user rank.
	IsRanked bool

	Results []SummaryResult `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

// ProviderModel is reference data identifying one vendor model reachable
// through a provider adapter. The (ProviderKey, ModelID) pair is unique.
// The engine reads this table; it never mutates it at runtime.
type ProviderModel struct {
	ID uint `gorm:"primaryKey"`
	// ProviderKey selects the adapter that serves this model.
	ProviderKey string `gorm:"not null;uniqueIndex:idx_provider_model"`
	// ModelID is the vendor-specific model or deployment name.
	ModelID     string `gorm:"not null;uniqueIndex:idx_provider_model"`
	DisplayName string `gorm:"not null"`
	IsEnabled   bool

	Results []SummaryResult `gorm:"foreignKey:ProviderModelID"`
}

// SummaryResult is the outcome of one provider model inside one session.
// Results are created as a batch alongside the fan-out and later mutated in
// place by ranking and by the admin flag toggle.
type SummaryResult struct {
	ID              uint      `gorm:"primaryKey"`
	SessionID       uuid.UUID `gorm:"type:text;not null;index"`
	ProviderModelID uint      `gorm:"not null;index"`
	SummaryText     *string
	DurationMs      int64
	IsSuccess       bool
	ErrorMessage    *string
	// UserRank is the human-assigned ordinal, 1 = best. Nil until the
	// session is ranked.
	UserRank *int
	// DisplayOrder is the blind presentation position. Within a session the
	// display orders form a permutation of 1..N independent of provider
	// identity and completion order.
	DisplayOrder   int
	IsUnacceptable bool

	// Token usage as reported by the vendor; nil when the vendor did not
	// report the count. InternalTokens are reasoning/"thinking" tokens,
	// billed at the output rate.
	InputTokens    *int
	InternalTokens *int
	OutputTokens   *int

	Session       *ComparisonSession `gorm:"foreignKey:SessionID"`
	ProviderModel *ProviderModel     `gorm:"foreignKey:ProviderModelID"`
}
