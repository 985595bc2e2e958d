package models

import "time"

// ScanOutcome is the audit outcome of a scan attempt
type ScanOutcome string

const (
	ScanOutcomeSuccess     ScanOutcome = "success"
	ScanOutcomeDuplicate   ScanOutcome = "duplicate"
	ScanOutcomeExpired     ScanOutcome = "expired"
	ScanOutcomeNotYetValid ScanOutcome = "not_yet_valid"
	ScanOutcomeInvalid     ScanOutcome = "invalid"
	ScanOutcomeInactive    ScanOutcome = "inactive"
	ScanOutcomeRateLimited ScanOutcome = "rate_limited"
)

// ScanLog is one audited scan attempt
type ScanLog struct {
	ID            int64       `db:"id" json:"id"`
	AccessTokenID *int64      `db:"access_token_id" json:"access_token_id,omitempty"`
	Token         string      `db:"token" json:"token"`
	UserID        int64       `db:"user_id" json:"user_id"`
	Outcome       ScanOutcome `db:"outcome" json:"outcome"`
	Reason        string      `db:"reason" json:"reason,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
}
