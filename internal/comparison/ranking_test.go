package comparison

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"summarycmp/internal/domain"
)

// rankedTestSession builds a session with two successful results and one
// failed result, returning the service and the loaded session.
func rankedTestSession(t *testing.T) (*Service, *domain.ComparisonSession) {
	t.Helper()
	models := []domain.ProviderModel{
		{ProviderKey: "alpha", ModelID: "m1", DisplayName: "A", IsEnabled: true},
		{ProviderKey: "beta", ModelID: "m2", DisplayName: "B", IsEnabled: true},
		{ProviderKey: "ghost", ModelID: "m3", DisplayName: "C", IsEnabled: true},
	}
	service, _ := newTestService(t, models,
		successMock("alpha", "summary a", 100),
		successMock("beta", "summary b", 200),
	)

	session, err := service.CreateAndRun(context.Background(), "text", nil, nil)
	require.NoError(t, err)

	loaded, err := service.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	return service, loaded
}

func successfulResultIDs(session *domain.ComparisonSession) []uint {
	var ids []uint
	for _, result := range session.Results {
		if result.IsSuccess {
			ids = append(ids, result.ID)
		}
	}
	return ids
}

func TestSaveRankings_AssignsRanksInCallerOrder(t *testing.T) {
	service, session := rankedTestSession(t)
	ctx := context.Background()

	ids := successfulResultIDs(session)
	require.Len(t, ids, 2)
	// Rank the second successful result first.
	ordered := []uint{ids[1], ids[0]}

	require.NoError(t, service.SaveRankings(ctx, session.ID, ordered, nil))

	reloaded, err := service.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsRanked)
	require.NotNil(t, reloaded.CompletedAt)

	ranks := make(map[uint]int)
	for _, result := range reloaded.Results {
		require.NotNil(t, result.UserRank, "every result gets a rank, failures included")
		ranks[result.ID] = *result.UserRank
	}
	assert.Equal(t, 1, ranks[ids[1]], "first listed id gets rank 1")
	assert.Equal(t, 2, ranks[ids[0]])

	for _, result := range reloaded.Results {
		if !result.IsSuccess {
			assert.Equal(t, 3, *result.UserRank, "failed results rank below every successful one")
		}
	}
}

func TestSaveRankings_UnacceptableFlags(t *testing.T) {
	service, session := rankedTestSession(t)
	ctx := context.Background()

	ids := successfulResultIDs(session)
	require.NoError(t, service.SaveRankings(ctx, session.ID, ids, []uint{ids[0]}))

	reloaded, err := service.GetSession(ctx, session.ID)
	require.NoError(t, err)
	for _, result := range reloaded.Results {
		assert.Equal(t, result.ID == ids[0], result.IsUnacceptable)
	}
}

func TestSaveRankings_ValidationRejectsBadSubmissions(t *testing.T) {
	service, session := rankedTestSession(t)
	ctx := context.Background()

	ids := successfulResultIDs(session)
	var failedID uint
	for _, result := range session.Results {
		if !result.IsSuccess {
			failedID = result.ID
		}
	}

	tests := []struct {
		name    string
		ordered []uint
	}{
		{name: "missing a successful result", ordered: ids[:1]},
		{name: "duplicate id", ordered: []uint{ids[0], ids[0]}},
		{name: "failed result in the ordering", ordered: []uint{ids[0], failedID}},
		{name: "foreign id", ordered: []uint{ids[0], 99999}},
		{name: "empty ordering", ordered: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.SaveRankings(ctx, session.ID, tt.ordered, nil)
			require.Error(t, err)
			assert.True(t, domain.IsValidationError(err), "want validation error, got %v", err)

			// Rejected submissions must leave the session untouched.
			reloaded, loadErr := service.GetSession(ctx, session.ID)
			require.NoError(t, loadErr)
			assert.False(t, reloaded.IsRanked)
			for _, result := range reloaded.Results {
				assert.Nil(t, result.UserRank)
			}
		})
	}
}

func TestSaveRankings_ResubmissionReplacesPrevious(t *testing.T) {
	service, session := rankedTestSession(t)
	ctx := context.Background()

	ids := successfulResultIDs(session)
	require.NoError(t, service.SaveRankings(ctx, session.ID, []uint{ids[0], ids[1]}, []uint{ids[1]}))
	require.NoError(t, service.SaveRankings(ctx, session.ID, []uint{ids[1], ids[0]}, nil))

	reloaded, err := service.GetSession(ctx, session.ID)
	require.NoError(t, err)
	for _, result := range reloaded.Results {
		assert.False(t, result.IsUnacceptable, "flags not in the new submission are cleared")
		if result.ID == ids[1] {
			assert.Equal(t, 1, *result.UserRank)
		}
	}
	assert.True(t, reloaded.IsRanked)
}

func TestSaveRankings_UnknownSession(t *testing.T) {
	service, _ := newTestService(t, []domain.ProviderModel{
		{ProviderKey: "alpha", ModelID: "m1", DisplayName: "A", IsEnabled: true},
	}, successMock("alpha", "s", 1))

	err := service.SaveRankings(context.Background(), uuid.New(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
