package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PoolInjectionStatus is the state of an admin pool injection
type PoolInjectionStatus string

const (
	PoolInjectionStatusPending   PoolInjectionStatus = "pending"
	PoolInjectionStatusCompleted PoolInjectionStatus = "completed"
	PoolInjectionStatusFailed    PoolInjectionStatus = "failed"
	PoolInjectionStatusCancelled PoolInjectionStatus = "cancelled"
)

// Decimal places the schema keeps for fee percentages and tier multipliers
const (
	FeePercentScale     = 2
	TierMultiplierScale = 4
)

// WithinScale reports whether d has at most scale decimal places
func WithinScale(d decimal.Decimal, scale int32) bool {
	return d.Equal(d.Truncate(scale))
}

// FeePercentages are the platform fees configured for a pool, in percent
type FeePercentages struct {
	Staking      decimal.Decimal `json:"staking"`
	Withdrawal   decimal.Decimal `json:"withdrawal"`
	Distribution decimal.Decimal `json:"distribution"`
}

// Sum returns the combined fee percentage
func (f FeePercentages) Sum() decimal.Decimal {
	return f.Staking.Add(f.Withdrawal).Add(f.Distribution)
}

// TierMultipliers are the settlement coefficients for stake tiers 1..3
type TierMultipliers struct {
	Tier1 decimal.Decimal `json:"tier_1"`
	Tier2 decimal.Decimal `json:"tier_2"`
	Tier3 decimal.Decimal `json:"tier_3"`
}

// ForTier returns the coefficient for a stake tier
func (m TierMultipliers) ForTier(tier int) (decimal.Decimal, bool) {
	switch tier {
	case 1:
		return m.Tier1, true
	case 2:
		return m.Tier2, true
	case 3:
		return m.Tier3, true
	}
	return decimal.Zero, false
}

// IsZero reports whether no multiplier has been set
func (m TierMultipliers) IsZero() bool {
	return m.Tier1.IsZero() && m.Tier2.IsZero() && m.Tier3.IsZero()
}

// TierMultipliersFromMap builds multipliers from a tier-indexed map
func TierMultipliersFromMap(values map[int]decimal.Decimal) TierMultipliers {
	return TierMultipliers{Tier1: values[1], Tier2: values[2], Tier3: values[3]}
}

// PoolInjection is one admin action funding an event's reward pool
type PoolInjection struct {
	ID              int64               `db:"id" json:"id"`
	EventID         int64               `db:"event_id" json:"event_id"`
	AdminID         int64               `db:"admin_id" json:"admin_id"`
	Amount          decimal.Decimal     `db:"amount" json:"amount"`
	Currency        string              `db:"currency" json:"currency"`
	FeePercentages  FeePercentages      `db:"-" json:"fee_percentages"`
	TierMultipliers TierMultipliers     `db:"tier_multipliers" json:"tier_multipliers"`
	Status          PoolInjectionStatus `db:"status" json:"status"`
	CreatedAt       time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time           `db:"updated_at" json:"updated_at"`
}
