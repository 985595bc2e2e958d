package repository

import (
	"context"
	"testing"
	"time"

	"fanpool/models"
	"fanpool/repository/testutil"
	"fanpool/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStakeRepository_Lifecycle(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewStakeRepository(testDB.DB)
	ctx := context.Background()
	seedUser(t, testDB.DB, 10, "1000")
	event := seedEvent(t, testDB.DB)

	stake := testutil.CreateTestStake(10, event.ID, "100.00", 1, models.TeamHome)
	require.NoError(t, repo.Create(ctx, stake))
	assert.NotZero(t, stake.ID)

	t.Run("second active stake is rejected", func(t *testing.T) {
		dup := testutil.CreateTestStake(10, event.ID, "50.00", 2, models.TeamAway)
		err := repo.Create(ctx, dup)
		assert.ErrorIs(t, err, service.ErrDuplicateStake)
	})

	t.Run("active lookup", func(t *testing.T) {
		active, err := repo.GetActiveByUserAndEvent(ctx, 10, event.ID)
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, stake.ID, active.ID)
		assert.Equal(t, models.TeamHome, active.TeamChoice)
		assert.True(t, active.Amount.Equal(decimal.NewFromInt(100)))
	})

	t.Run("cancel frees the slot", func(t *testing.T) {
		require.NoError(t, repo.MarkCancelled(ctx, stake.ID, time.Now()))

		active, err := repo.GetActiveByUserAndEvent(ctx, 10, event.ID)
		require.NoError(t, err)
		assert.Nil(t, active)

		latest, err := repo.GetLatestByUserAndEvent(ctx, 10, event.ID)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, models.StakeStatusCancelled, latest.Status)
		assert.NotNil(t, latest.CancelledAt)

		// cancelled stakes cannot transition again
		assert.Error(t, repo.MarkSettled(ctx, stake.ID, time.Now()))

		again := testutil.CreateTestStake(10, event.ID, "40.00", 3, models.TeamAway)
		require.NoError(t, repo.Create(ctx, again))
	})
}

func TestStakeRepository_EventStats(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewStakeRepository(testDB.DB)
	ctx := context.Background()
	event := seedEvent(t, testDB.DB)
	for _, id := range []int64{1, 2, 3} {
		seedUser(t, testDB.DB, id, "1000")
	}

	a := testutil.CreateTestStake(1, event.ID, "100.00", 1, models.TeamHome)
	b := testutil.CreateTestStake(2, event.ID, "300.00", 3, models.TeamAway)
	c := testutil.CreateTestStake(3, event.ID, "50.00", 3, models.TeamAway)
	for _, s := range []*models.Stake{a, b, c} {
		require.NoError(t, repo.Create(ctx, s))
	}
	require.NoError(t, repo.MarkSettled(ctx, a.ID, time.Now()))
	require.NoError(t, repo.MarkCancelled(ctx, c.ID, time.Now()))

	stats, err := repo.GetEventStats(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ActiveStakes)
	assert.Equal(t, 1, stats.SettledStakes)
	assert.Equal(t, 2, stats.Participants())
	assert.Equal(t, "400.00", stats.TotalStaked.StringFixed(2))
	assert.Equal(t, "100.00", stats.TeamTotals[models.TeamHome].StringFixed(2))
	assert.Equal(t, "300.00", stats.TeamTotals[models.TeamAway].StringFixed(2))
	assert.Equal(t, 1, stats.TierCounts[1])
	assert.Equal(t, 1, stats.TierCounts[3])

	active, err := repo.GetActiveByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, b.ID, active[0].ID)

	t.Run("empty event", func(t *testing.T) {
		other := seedEvent(t, testDB.DB)
		stats, err := repo.GetEventStats(ctx, other.ID)
		require.NoError(t, err)
		assert.Zero(t, stats.Participants())
		assert.True(t, stats.TotalStaked.IsZero())
	})
}
