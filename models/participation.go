package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ParticipationType is what a scanning user declares they will attend
type ParticipationType string

const (
	ParticipationWatchOnly     ParticipationType = "watch_only"
	ParticipationWatchAndParty ParticipationType = "watch_and_party"
)

// Valid reports whether the participation type is known
func (p ParticipationType) Valid() bool {
	return p == ParticipationWatchOnly || p == ParticipationWatchAndParty
}

// WantsPerk reports whether the participation type competes for party admission
func (p ParticipationType) WantsPerk() bool {
	return p == ParticipationWatchAndParty
}

// PerkStatus is the outcome of party admission allocation
type PerkStatus string

const (
	PerkStatusNotApplicable PerkStatus = "not_applicable"
	PerkStatusAllocated     PerkStatus = "allocated"
	PerkStatusWaitlist      PerkStatus = "waitlist"
)

// ClientMetadata is what the scanning client reports about itself
type ClientMetadata struct {
	DeviceID   string `json:"device_id,omitempty"`
	Platform   string `json:"platform,omitempty"`
	AppVersion string `json:"app_version,omitempty"`
	IPAddress  string `json:"ip_address,omitempty"`
}

// ParticipationRecord is the result of a successful access-token scan
type ParticipationRecord struct {
	ID                int64             `db:"id" json:"id"`
	UserID            int64             `db:"user_id" json:"user_id"`
	EventID           int64             `db:"event_id" json:"event_id"`
	AccessTokenID     int64             `db:"access_token_id" json:"access_token_id"`
	ParticipationType ParticipationType `db:"participation_type" json:"participation_type"`
	Tier              int               `db:"tier" json:"tier"`
	TierMultiplier    decimal.Decimal   `db:"tier_multiplier" json:"tier_multiplier"`
	PerkStatus        PerkStatus        `db:"perk_status" json:"perk_status"`
	WaitlistPosition  *int              `db:"waitlist_position" json:"waitlist_position,omitempty"`
	ClientMetadata    ClientMetadata    `db:"client_metadata" json:"client_metadata"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}

// PerkStats summarizes party admission for an event
type PerkStats struct {
	Capacity   int `json:"capacity"`
	Allocated  int `json:"allocated"`
	Waitlisted int `json:"waitlisted"`
}
