package testutil

import (
	"time"

	"fanpool/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTestEvent creates an approved event starting at start and lasting two hours
func CreateTestEvent(title string, start time.Time) *models.Event {
	return &models.Event{
		Title:         title,
		HomeTeam:      models.Team{Code: "HOM", Name: "Home University"},
		AwayTeam:      models.Team{Code: "AWY", Name: "Away College"},
		StartTime:     start,
		EndTime:       start.Add(2 * time.Hour),
		Status:        models.EventStatusApproved,
		PartyCapacity: 10,
	}
}

// CreateTestStake creates an active stake
func CreateTestStake(userID, eventID int64, amount string, tier int, team models.TeamSide) *models.Stake {
	return &models.Stake{
		UserID:     userID,
		EventID:    eventID,
		Amount:     decimal.RequireFromString(amount),
		Tier:       tier,
		TeamChoice: team,
		Status:     models.StakeStatusActive,
	}
}

// CreateTestPoolInjection creates a completed injection with default multipliers
func CreateTestPoolInjection(eventID int64, amount string) *models.PoolInjection {
	return &models.PoolInjection{
		EventID:  eventID,
		AdminID:  1,
		Amount:   decimal.RequireFromString(amount),
		Currency: "PTS",
		FeePercentages: models.FeePercentages{
			Staking:      decimal.Zero,
			Withdrawal:   decimal.Zero,
			Distribution: decimal.NewFromInt(5),
		},
		TierMultipliers: models.TierMultipliers{
			Tier1: decimal.NewFromInt(1),
			Tier2: decimal.RequireFromString("0.7"),
			Tier3: decimal.RequireFromString("0.3"),
		},
		Status: models.PoolInjectionStatusCompleted,
	}
}

// CreateTestAccessToken creates an active token valid for the hour around now
func CreateTestAccessToken(eventID int64, now time.Time) *models.AccessToken {
	return &models.AccessToken{
		Token:           uuid.NewString(),
		EventID:         eventID,
		ValidFrom:       now.Add(-30 * time.Minute),
		ValidUntil:      now.Add(30 * time.Minute),
		IsActive:        true,
		MaxScansPerHour: 5,
	}
}

// CreateTestParticipation creates a watch-only participation record
func CreateTestParticipation(userID, eventID, tokenID int64) *models.ParticipationRecord {
	return &models.ParticipationRecord{
		UserID:            userID,
		EventID:           eventID,
		AccessTokenID:     tokenID,
		ParticipationType: models.ParticipationWatchOnly,
		Tier:              2,
		TierMultiplier:    decimal.RequireFromString("0.7"),
		PerkStatus:        models.PerkStatusNotApplicable,
		ClientMetadata:    models.ClientMetadata{Platform: "ios"},
	}
}
