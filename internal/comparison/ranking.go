package comparison

import (
	"context"
	"time"

	"github.com/google/uuid"

	"summarycmp/internal/domain"
)

// SaveRankings records the user's blind ranking for a session.
//
// orderedSuccessfulIDs lists the IDs of the session's successful results in
// the order the user preferred them; position i receives rank i+1. Failed
// results are ranked after every successful one, in persisted order.
// unacceptableIDs are flagged as unacceptable; every result not listed has
// the flag cleared, so re-submitting a ranking fully replaces the previous
// one.
//
// Validation happens before any mutation: the ordered IDs must be exactly
// the session's successful result set, with no duplicates, omissions, or
// foreign IDs. Violations return a *domain.ValidationError.
func (s *Service) SaveRankings(
	ctx context.Context,
	sessionID uuid.UUID,
	orderedSuccessfulIDs []uint,
	unacceptableIDs []uint,
) error {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	successful := make(map[uint]bool, len(session.Results))
	for _, result := range session.Results {
		if result.IsSuccess {
			successful[result.ID] = true
		}
	}

	if len(orderedSuccessfulIDs) != len(successful) {
		return domain.NewValidationError(
			"ranking must cover all %d successful results, got %d",
			len(successful), len(orderedSuccessfulIDs))
	}
	seen := make(map[uint]bool, len(orderedSuccessfulIDs))
	for _, id := range orderedSuccessfulIDs {
		if !successful[id] {
			return domain.NewValidationError("result %d is not a successful result of session %s", id, sessionID)
		}
		if seen[id] {
			return domain.NewValidationError("result %d ranked more than once", id)
		}
		seen[id] = true
	}

	rankByID := make(map[uint]int, len(orderedSuccessfulIDs))
	for i, id := range orderedSuccessfulIDs {
		rankByID[id] = i + 1
	}

	unacceptable := make(map[uint]bool, len(unacceptableIDs))
	for _, id := range unacceptableIDs {
		unacceptable[id] = true
	}

	nextRank := len(orderedSuccessfulIDs) + 1
	for i := range session.Results {
		result := &session.Results[i]
		rank, ok := rankByID[result.ID]
		if !ok {
			// Failed result: ranked below every successful one.
			rank = nextRank
			nextRank++
		}
		result.UserRank = &rank
		result.IsUnacceptable = unacceptable[result.ID]
	}

	now := time.Now().UTC()
	session.IsRanked = true
	session.CompletedAt = &now

	return s.store.SaveRanking(ctx, session)
}
