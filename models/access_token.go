package models

import "time"

// MaxTokenLength is the longest token payload the schema stores
const MaxTokenLength = 64

// TokenState is the time-derived state of an access token
type TokenState string

const (
	TokenStateNotYetValid TokenState = "not_yet_valid"
	TokenStateActive      TokenState = "active"
	TokenStateExpired     TokenState = "expired"
)

// AccessToken is the payload of a time-boxed QR code for one event
type AccessToken struct {
	ID              int64     `db:"id" json:"id"`
	Token           string    `db:"token" json:"token"`
	EventID         int64     `db:"event_id" json:"event_id"`
	ValidFrom       time.Time `db:"valid_from" json:"valid_from"`
	ValidUntil      time.Time `db:"valid_until" json:"valid_until"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	MaxScansPerHour int       `db:"max_scans_per_hour" json:"max_scans_per_hour"`
	ScanCount       int       `db:"scan_count" json:"scan_count"`
	SuccessCount    int       `db:"success_count" json:"success_count"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// StateAt returns the token state at the given instant. The is_active flag is
// independent of time and is checked separately.
func (t *AccessToken) StateAt(now time.Time) TokenState {
	if now.Before(t.ValidFrom) {
		return TokenStateNotYetValid
	}
	if now.After(t.ValidUntil) {
		return TokenStateExpired
	}
	return TokenStateActive
}
