package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StakeStatus is the state of a stake
type StakeStatus string

const (
	StakeStatusActive    StakeStatus = "active"
	StakeStatusSettled   StakeStatus = "settled"
	StakeStatusCancelled StakeStatus = "cancelled"
)

// Stake is a user's commitment on one team of an event
type Stake struct {
	ID          int64           `db:"id" json:"id"`
	UserID      int64           `db:"user_id" json:"user_id"`
	EventID     int64           `db:"event_id" json:"event_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Tier        int             `db:"tier" json:"tier"`
	TeamChoice  TeamSide        `db:"team_choice" json:"team_choice"`
	Status      StakeStatus     `db:"status" json:"status"`
	SettledAt   *time.Time      `db:"settled_at" json:"settled_at,omitempty"`
	CancelledAt *time.Time      `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// EventStakeStats aggregates the non-cancelled stakes of one event
type EventStakeStats struct {
	ActiveStakes  int                          `json:"active_stakes"`
	SettledStakes int                          `json:"settled_stakes"`
	TotalStaked   decimal.Decimal              `json:"total_staked"`
	TeamTotals    map[TeamSide]decimal.Decimal `json:"team_totals"`
	TierCounts    map[int]int                  `json:"tier_counts"`
}

// Participants returns the number of stakes counted in TotalStaked
func (s *EventStakeStats) Participants() int {
	return s.ActiveStakes + s.SettledStakes
}
