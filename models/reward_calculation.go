package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RewardCalculationStatus is the state of a settlement outcome
type RewardCalculationStatus string

const RewardCalculationStatusCalculated RewardCalculationStatus = "calculated"

// RewardCalculation is the settlement outcome of one stake
type RewardCalculation struct {
	ID                int64                   `db:"id" json:"id"`
	EventID           int64                   `db:"event_id" json:"event_id"`
	StakeID           int64                   `db:"stake_id" json:"stake_id"`
	UserID            int64                   `db:"user_id" json:"user_id"`
	PoolAmount        decimal.Decimal         `db:"pool_amount" json:"pool_amount"`
	TotalParticipants int                     `db:"total_participants" json:"total_participants"`
	TotalStake        decimal.Decimal         `db:"total_stake" json:"total_stake"`
	TierCoefficient   decimal.Decimal         `db:"tier_coefficient" json:"tier_coefficient"`
	FeePercentage     decimal.Decimal         `db:"fee_percentage" json:"fee_percentage"`
	BaseReward        decimal.Decimal         `db:"base_reward" json:"base_reward"`
	FeeAmount         decimal.Decimal         `db:"fee_amount" json:"fee_amount"`
	FinalReward       decimal.Decimal         `db:"final_reward" json:"final_reward"`
	Status            RewardCalculationStatus `db:"status" json:"status"`
	CreatedAt         time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time               `db:"updated_at" json:"updated_at"`
}

// RewardTotals aggregates the reward calculations of one event
type RewardTotals struct {
	Count        int             `json:"count"`
	TotalRewards decimal.Decimal `json:"total_rewards"`
	TotalFees    decimal.Decimal `json:"total_fees"`
}

// StakeFailure records why one stake could not be settled
type StakeFailure struct {
	StakeID int64  `json:"stake_id"`
	UserID  int64  `json:"user_id"`
	Reason  string `json:"reason"`
}

// SettlementResult is the aggregate outcome of one settlement pass
type SettlementResult struct {
	EventID             int64           `json:"event_id"`
	ParticipantsSettled int             `json:"participants_settled"`
	AlreadySettled      int             `json:"already_settled"`
	TotalRewardsPaid    decimal.Decimal `json:"total_rewards_paid"`
	TotalFeesCollected  decimal.Decimal `json:"total_fees_collected"`
	Failures            []StakeFailure  `json:"failures,omitempty"`
	EventCompleted      bool            `json:"event_completed"`
}
