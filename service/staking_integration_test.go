package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fanpool/events"
	"fanpool/infrastructure"
	"fanpool/models"
	"fanpool/repository"
	"fanpool/repository/testutil"
	"fanpool/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func integrationTiers() models.TierMultipliers {
	return models.TierMultipliers{
		Tier1: decimal.NewFromInt(1),
		Tier2: decimal.RequireFromString("0.7"),
		Tier3: decimal.RequireFromString("0.3"),
	}
}

func TestParticipationScan_ConcurrentPartyClaims_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	uowFactory := repository.NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	participationService := service.NewParticipationService(uowFactory, nil, service.ParticipationConfig{
		Tiers: map[models.ParticipationType]service.ParticipationTierRule{
			models.ParticipationWatchOnly:     {Tier: 2, Multiplier: decimal.RequireFromString("0.7")},
			models.ParticipationWatchAndParty: {Tier: 3, Multiplier: decimal.NewFromInt(1)},
		},
		DefaultMaxScansPerHour: 5,
	})

	const (
		capacity = 4
		scanners = 12
	)

	event := testutil.CreateTestEvent("Rivalry Night", time.Now().Add(time.Hour))
	event.PartyCapacity = capacity
	require.NoError(t, repository.NewEventRepository(testDB.DB).Create(ctx, event))

	token := testutil.CreateTestAccessToken(event.ID, time.Now())
	require.NoError(t, repository.NewAccessTokenRepository(testDB.DB).Create(ctx, token))

	results := make([]*service.ScanResult, scanners)
	errs := make([]error, scanners)
	var wg sync.WaitGroup
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = participationService.Scan(ctx, service.ScanRequest{
				UserID:            int64(5000 + i),
				Token:             token.Token,
				ParticipationType: models.ParticipationWatchAndParty,
				ClientMetadata:    models.ClientMetadata{Platform: "android"},
			})
		}(i)
	}
	wg.Wait()

	allocated := 0
	positions := make(map[int]int)
	for i := 0; i < scanners; i++ {
		require.NoError(t, errs[i], "scan %d", i)
		require.NotNil(t, results[i])
		switch results[i].PerkStatus {
		case models.PerkStatusAllocated:
			allocated++
			assert.Nil(t, results[i].WaitlistPosition)
		case models.PerkStatusWaitlist:
			require.NotNil(t, results[i].WaitlistPosition)
			positions[*results[i].WaitlistPosition]++
		default:
			t.Fatalf("unexpected perk status %q", results[i].PerkStatus)
		}
	}

	assert.Equal(t, capacity, allocated)
	require.Len(t, positions, scanners-capacity)
	for position := 1; position <= scanners-capacity; position++ {
		assert.Equal(t, 1, positions[position], "waitlist position %d", position)
	}

	stats, err := repository.NewParticipationRepository(testDB.DB).GetPerkStats(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, capacity, stats.Allocated)
	assert.Equal(t, scanners-capacity, stats.Waitlisted)

	stored, err := repository.NewEventRepository(testDB.DB).GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, scanners, stored.PartyClaims)
}

func TestStakeCreation_ConcurrentDuplicates_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	uowFactory := repository.NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	stakeService := service.NewStakeService(uowFactory, service.StakeConfig{
		MinStakeAmount:         decimal.NewFromInt(1),
		DefaultTierMultipliers: integrationTiers(),
	})

	userRepo := repository.NewUserRepository(testDB.DB)
	_, err := userRepo.Create(ctx, 7001, "striker", decimal.NewFromInt(1000))
	require.NoError(t, err)

	event := testutil.CreateTestEvent("Cup Semi-final", time.Now().Add(24*time.Hour))
	require.NoError(t, repository.NewEventRepository(testDB.DB).Create(ctx, event))

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = stakeService.CreateStake(ctx, service.CreateStakeRequest{
				UserID:     7001,
				EventID:    event.ID,
				Amount:     decimal.NewFromInt(150),
				Tier:       1,
				TeamChoice: models.TeamHome,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, service.ErrDuplicateStake), "attempt %d: %v", i, err)
	}
	assert.Equal(t, 1, succeeded)

	stats, err := repository.NewStakeRepository(testDB.DB).GetEventStats(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ActiveStakes)
	assert.True(t, decimal.NewFromInt(150).Equal(stats.TotalStaked))

	user, err := userRepo.GetByID(ctx, 7001)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(850).Equal(user.Balance), "balance %s", user.Balance)

	history, err := repository.NewBalanceHistoryRepository(testDB.DB).GetByUser(ctx, 7001, 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSettlement_RerunIsIdempotent_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	uowFactory := repository.NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	settlementService := service.NewSettlementService(uowFactory, infrastructure.NewLocalLocker(), service.SettlementConfig{
		DefaultTierMultipliers: integrationTiers(),
	})

	userRepo := repository.NewUserRepository(testDB.DB)
	stakeRepo := repository.NewStakeRepository(testDB.DB)
	rewardRepo := repository.NewRewardCalculationRepository(testDB.DB)

	// The match is already over, so stakes go straight into the ledger
	event := testutil.CreateTestEvent("Season Finale", time.Now().Add(-3*time.Hour))
	event.Status = models.EventStatusLive
	require.NoError(t, repository.NewEventRepository(testDB.DB).Create(ctx, event))

	pool := testutil.CreateTestPoolInjection(event.ID, "1000")
	require.NoError(t, repository.NewPoolInjectionRepository(testDB.DB).Create(ctx, pool))

	stakers := []struct {
		userID int64
		amount string
		tier   int
		team   models.TeamSide
	}{
		{userID: 8001, amount: "100", tier: 1, team: models.TeamHome},
		{userID: 8002, amount: "50", tier: 2, team: models.TeamAway},
		{userID: 8003, amount: "33.33", tier: 3, team: models.TeamHome},
	}
	userIDs := make([]int64, 0, len(stakers))
	for _, s := range stakers {
		_, err := userRepo.Create(ctx, s.userID, "fan", decimal.Zero)
		require.NoError(t, err)
		require.NoError(t, stakeRepo.Create(ctx, testutil.CreateTestStake(s.userID, event.ID, s.amount, s.tier, s.team)))
		userIDs = append(userIDs, s.userID)
	}

	balances := func() map[int64]decimal.Decimal {
		out := make(map[int64]decimal.Decimal, len(userIDs))
		for _, id := range userIDs {
			user, err := userRepo.GetByID(ctx, id)
			require.NoError(t, err)
			out[id] = user.Balance
		}
		return out
	}

	first, err := settlementService.Settle(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, len(stakers), first.ParticipantsSettled)
	assert.Empty(t, first.Failures)
	assert.True(t, first.EventCompleted)

	calcsAfterFirst, err := rewardRepo.GetByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, calcsAfterFirst, len(stakers))
	balancesAfterFirst := balances()

	second, err := settlementService.Settle(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.ParticipantsSettled)
	assert.Equal(t, len(stakers), second.AlreadySettled)
	assert.True(t, first.TotalRewardsPaid.Equal(second.TotalRewardsPaid))
	assert.True(t, first.TotalFeesCollected.Equal(second.TotalFeesCollected))

	calcsAfterSecond, err := rewardRepo.GetByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, calcsAfterSecond, len(calcsAfterFirst))
	for i := range calcsAfterFirst {
		before, after := calcsAfterFirst[i], calcsAfterSecond[i]
		assert.Equal(t, before.ID, after.ID)
		assert.Equal(t, before.StakeID, after.StakeID)
		assert.True(t, before.FinalReward.Equal(after.FinalReward), "stake %d", before.StakeID)
		assert.True(t, before.FeeAmount.Equal(after.FeeAmount), "stake %d", before.StakeID)
	}

	balancesAfterSecond := balances()
	for _, id := range userIDs {
		assert.True(t, balancesAfterFirst[id].Equal(balancesAfterSecond[id]), "user %d", id)
	}

	paid := decimal.Zero
	for _, calc := range calcsAfterSecond {
		paid = paid.Add(calc.FinalReward).Add(calc.FeeAmount)
		assert.True(t, balancesAfterSecond[calc.UserID].Equal(calc.FinalReward), "user %d", calc.UserID)
	}
	assert.True(t, paid.LessThanOrEqual(pool.Amount), "paid %s exceeds pool %s", paid, pool.Amount)

	stored, err := repository.NewEventRepository(testDB.DB).GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusCompleted, stored.Status)
}
