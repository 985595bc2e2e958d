package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventStatus is the lifecycle state of a match
type EventStatus string

const (
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusApproved  EventStatus = "approved"
	EventStatusPreMatch  EventStatus = "pre_match"
	EventStatusLive      EventStatus = "live"
	EventStatusCompleted EventStatus = "completed"
)

// AcceptsStakes reports whether new stakes may be placed in this status
func (s EventStatus) AcceptsStakes() bool {
	return s == EventStatusApproved || s == EventStatusPreMatch
}

// AcceptsScans reports whether access tokens for the event may be redeemed
func (s EventStatus) AcceptsScans() bool {
	return s == EventStatusApproved || s == EventStatusPreMatch || s == EventStatusLive
}

// TeamSide identifies one of the two teams of a match
type TeamSide string

const (
	TeamHome TeamSide = "home"
	TeamAway TeamSide = "away"
	// TeamDraw is only valid as a match result, never as a stake choice
	TeamDraw TeamSide = "draw"
)

// Valid reports whether the side can be chosen for a stake
func (t TeamSide) Valid() bool {
	return t == TeamHome || t == TeamAway
}

// Team describes one side of a match
type Team struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	ShortName string `json:"short_name,omitempty"`
}

// Score is the final score reported for a match
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Event is a single match
type Event struct {
	ID                 int64               `db:"id" json:"id"`
	Title              string              `db:"title" json:"title"`
	HomeTeam           Team                `db:"home_team" json:"home_team"`
	AwayTeam           Team                `db:"away_team" json:"away_team"`
	StartTime          time.Time           `db:"start_time" json:"start_time"`
	EndTime            time.Time           `db:"end_time" json:"end_time"`
	Status             EventStatus         `db:"status" json:"status"`
	PoolInjectedAmount decimal.NullDecimal `db:"pool_injected_amount" json:"pool_injected_amount"`
	PartyCapacity      int                 `db:"party_capacity" json:"party_capacity"`
	PartyClaims        int                 `db:"party_claims" json:"party_claims"`
	WinningTeam        *TeamSide           `db:"winning_team" json:"winning_team,omitempty"`
	FinalScore         *Score              `db:"final_score" json:"final_score,omitempty"`
	SettledAt          *time.Time          `db:"settled_at" json:"settled_at,omitempty"`
	CreatedAt          time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time           `db:"updated_at" json:"updated_at"`
}

// HasStarted reports whether the match start time has passed
func (e *Event) HasStarted(now time.Time) bool {
	return !now.Before(e.StartTime)
}

// HasEnded reports whether the match end time has passed
func (e *Event) HasEnded(now time.Time) bool {
	return !now.Before(e.EndTime)
}
