package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// storedRewardScale is the precision kept for base reward and fee amounts
const storedRewardScale = 10

// RewardInput holds the values the liquidity-mining formula needs for one stake
type RewardInput struct {
	PoolAmount      decimal.Decimal
	StakeAmount     decimal.Decimal
	TotalStake      decimal.Decimal
	TierCoefficient decimal.Decimal
	FeePercentage   decimal.Decimal
}

// RewardBreakdown is the result of the formula for one stake
type RewardBreakdown struct {
	BaseReward  decimal.Decimal
	FeeAmount   decimal.Decimal
	FinalReward decimal.Decimal
}

// CalculateReward computes
//
//	base  = pool * (stake / total) * coefficient
//	fee   = base * feePct / 100
//	final = base - fee, rounded half-up to the currency unit
//
// Only the final reward is rounded to the currency unit; base and fee keep
// storedRewardScale places.
func CalculateReward(in RewardInput) (RewardBreakdown, error) {
	if !in.TotalStake.IsPositive() {
		return RewardBreakdown{}, fmt.Errorf("total stake must be positive, got %s", in.TotalStake)
	}
	if in.StakeAmount.IsNegative() || in.StakeAmount.GreaterThan(in.TotalStake) {
		return RewardBreakdown{}, fmt.Errorf("stake %s is outside total %s", in.StakeAmount, in.TotalStake)
	}
	if in.TierCoefficient.IsNegative() || in.FeePercentage.IsNegative() {
		return RewardBreakdown{}, fmt.Errorf("coefficient and fee must not be negative")
	}

	// Multiply before dividing so a terminating ratio stays exact
	base := in.PoolAmount.Mul(in.StakeAmount).Mul(in.TierCoefficient).DivRound(in.TotalStake, 2*storedRewardScale)
	fee := base.Mul(in.FeePercentage).Shift(-2)
	final := base.Sub(fee).Round(CurrencyScale)

	return RewardBreakdown{
		BaseReward:  base.Round(storedRewardScale),
		FeeAmount:   fee.Round(storedRewardScale),
		FinalReward: final,
	}, nil
}
