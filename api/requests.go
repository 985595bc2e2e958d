package api

import (
	"time"

	"fanpool/models"

	"github.com/shopspring/decimal"
)

type createStakeRequest struct {
	UserID     int64           `json:"user_id" binding:"required"`
	EventID    int64           `json:"event_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Tier       int             `json:"tier"`
	TeamChoice models.TeamSide `json:"team_choice"`
}

type stakeResponse struct {
	StakeID    int64           `json:"stake_id"`
	EventID    int64           `json:"event_id"`
	Amount     string          `json:"amount"`
	Tier       int             `json:"tier"`
	TeamChoice models.TeamSide `json:"team_choice"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

func newStakeResponse(stake *models.Stake) stakeResponse {
	return stakeResponse{
		StakeID:    stake.ID,
		EventID:    stake.EventID,
		Amount:     stake.Amount.StringFixed(2),
		Tier:       stake.Tier,
		TeamChoice: stake.TeamChoice,
		Status:     string(stake.Status),
		CreatedAt:  stake.CreatedAt,
	}
}

type scanRequest struct {
	UserID            int64                    `json:"user_id" binding:"required"`
	Token             string                   `json:"token"`
	ParticipationType models.ParticipationType `json:"participation_type"`
	ClientMetadata    models.ClientMetadata    `json:"client_metadata"`
}

type openAccountRequest struct {
	UserID   int64  `json:"user_id" binding:"required"`
	Username string `json:"username"`
}

type registerEventRequest struct {
	Title         string      `json:"title"`
	HomeTeam      models.Team `json:"home_team"`
	AwayTeam      models.Team `json:"away_team"`
	StartTime     time.Time   `json:"start_time"`
	EndTime       time.Time   `json:"end_time"`
	PartyCapacity int         `json:"party_capacity"`
	Approved      bool        `json:"approved"`
}

type reportResultRequest struct {
	WinningTeam models.TeamSide `json:"winning_team"`
	Score       *models.Score   `json:"score"`
}

type issueTokenRequest struct {
	ValidFrom       time.Time `json:"valid_from"`
	ValidUntil      time.Time `json:"valid_until"`
	MaxScansPerHour int       `json:"max_scans_per_hour"`
}

type injectPoolRequest struct {
	ApplicationID   int64                   `json:"application_id" binding:"required"`
	AdminID         int64                   `json:"admin_id" binding:"required"`
	Amount          decimal.Decimal         `json:"amount"`
	Currency        string                  `json:"currency"`
	FeePercentages  models.FeePercentages   `json:"fee_percentages"`
	TierMultipliers *models.TierMultipliers `json:"tier_multipliers"`
}

type injectPoolResponse struct {
	InjectionID          int64                 `json:"injection_id"`
	NewApplicationStatus models.EventStatus    `json:"new_application_status"`
	Injection            *models.PoolInjection `json:"injection,omitempty"`
}
