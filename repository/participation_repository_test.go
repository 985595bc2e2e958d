package repository

import (
	"context"
	"testing"
	"time"

	"fanpool/models"
	"fanpool/repository/testutil"
	"fanpool/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccessTokenRepository(testDB.DB)
	ctx := context.Background()
	event := seedEvent(t, testDB.DB)

	token := testutil.CreateTestAccessToken(event.ID, time.Now())
	require.NoError(t, repo.Create(ctx, token))

	t.Run("unknown token", func(t *testing.T) {
		got, err := repo.GetByToken(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("counters and deactivation", func(t *testing.T) {
		require.NoError(t, repo.IncrementScanCount(ctx, token.ID))
		require.NoError(t, repo.IncrementScanCount(ctx, token.ID))
		require.NoError(t, repo.IncrementSuccessCount(ctx, token.ID))
		require.NoError(t, repo.SetActive(ctx, token.ID, false))

		got, err := repo.GetByToken(ctx, token.Token)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 2, got.ScanCount)
		assert.Equal(t, 1, got.SuccessCount)
		assert.False(t, got.IsActive)
	})

	t.Run("missing id", func(t *testing.T) {
		assert.Error(t, repo.IncrementScanCount(ctx, 987654))
	})
}

func TestParticipationRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewParticipationRepository(testDB.DB)
	events := NewEventRepository(testDB.DB)
	ctx := context.Background()
	event := seedEvent(t, testDB.DB)
	token := testutil.CreateTestAccessToken(event.ID, time.Now())
	require.NoError(t, NewAccessTokenRepository(testDB.DB).Create(ctx, token))

	record := testutil.CreateTestParticipation(5, event.ID, token.ID)
	require.NoError(t, repo.Create(ctx, record))

	t.Run("second record for the same user is rejected", func(t *testing.T) {
		err := repo.Create(ctx, testutil.CreateTestParticipation(5, event.ID, token.ID))
		assert.ErrorIs(t, err, service.ErrAlreadyParticipated)
	})

	t.Run("lookup", func(t *testing.T) {
		got, err := repo.GetByUserAndEvent(ctx, 5, event.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.ParticipationWatchOnly, got.ParticipationType)
		assert.Equal(t, "ios", got.ClientMetadata.Platform)
		assert.Nil(t, got.WaitlistPosition)

		missing, err := repo.GetByUserAndEvent(ctx, 6, event.ID)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("party claims and perk stats", func(t *testing.T) {
		for i := 1; i <= event.PartyCapacity+1; i++ {
			claim, capacity, err := events.ClaimPartySlot(ctx, event.ID)
			require.NoError(t, err)
			assert.Equal(t, i, claim)
			assert.Equal(t, event.PartyCapacity, capacity)

			rec := testutil.CreateTestParticipation(int64(100+i), event.ID, token.ID)
			rec.ParticipationType = models.ParticipationWatchAndParty
			rec.Tier = 3
			rec.PerkStatus = models.PerkStatusAllocated
			if claim > capacity {
				position := claim - capacity
				rec.PerkStatus = models.PerkStatusWaitlist
				rec.WaitlistPosition = &position
			}
			require.NoError(t, repo.Create(ctx, rec))
		}

		stats, err := repo.GetPerkStats(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, event.PartyCapacity, stats.Capacity)
		assert.Equal(t, event.PartyCapacity, stats.Allocated)
		assert.Equal(t, 1, stats.Waitlisted)

		waitlisted, err := repo.GetByUserAndEvent(ctx, int64(101+event.PartyCapacity), event.ID)
		require.NoError(t, err)
		require.NotNil(t, waitlisted.WaitlistPosition)
		assert.Equal(t, 1, *waitlisted.WaitlistPosition)
	})

	t.Run("perk stats of unknown event", func(t *testing.T) {
		_, err := repo.GetPerkStats(ctx, 999999)
		assert.ErrorIs(t, err, service.ErrEventNotFound)
	})
}

func TestScanLogRepository_CountAdmittedSince(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewScanLogRepository(testDB.DB)
	ctx := context.Background()
	event := seedEvent(t, testDB.DB)
	token := testutil.CreateTestAccessToken(event.ID, time.Now())
	require.NoError(t, NewAccessTokenRepository(testDB.DB).Create(ctx, token))

	since := time.Now().Add(-time.Hour)
	count, oldest, err := repo.CountAdmittedSince(ctx, 5, token.ID, since)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Nil(t, oldest)

	for _, outcome := range []models.ScanOutcome{
		models.ScanOutcomeSuccess,
		models.ScanOutcomeDuplicate,
		models.ScanOutcomeRateLimited,
		models.ScanOutcomeExpired,
	} {
		require.NoError(t, repo.Record(ctx, &models.ScanLog{
			AccessTokenID: &token.ID,
			Token:         token.Token,
			UserID:        5,
			Outcome:       outcome,
		}))
	}
	// rejected scans of unknown tokens carry no token id
	require.NoError(t, repo.Record(ctx, &models.ScanLog{Token: "bogus", UserID: 5, Outcome: models.ScanOutcomeInvalid}))

	count, oldest, err = repo.CountAdmittedSince(ctx, 5, token.ID, since)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.NotNil(t, oldest)
	assert.WithinDuration(t, time.Now(), *oldest, time.Minute)

	count, _, err = repo.CountAdmittedSince(ctx, 6, token.ID, since)
	require.NoError(t, err)
	assert.Zero(t, count)
}
