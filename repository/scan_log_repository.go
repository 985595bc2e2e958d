package repository

import (
	"context"
	"fmt"
	"time"

	"fanpool/database"
	"fanpool/models"
)

// ScanLogRepository implements the ScanLogRepository interface
type ScanLogRepository struct {
	q queryable
}

// NewScanLogRepository creates a new scan log repository
func NewScanLogRepository(db *database.DB) *ScanLogRepository {
	return &ScanLogRepository{q: db.Pool}
}

// newScanLogRepositoryWithTx creates a new scan log repository with a transaction
func newScanLogRepositoryWithTx(tx queryable) *ScanLogRepository {
	return &ScanLogRepository{q: tx}
}

// Record appends a scan attempt to the audit log
func (r *ScanLogRepository) Record(ctx context.Context, entry *models.ScanLog) error {
	query := `
		INSERT INTO scan_logs (access_token_id, token, user_id, outcome, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.AccessTokenID,
		entry.Token,
		entry.UserID,
		entry.Outcome,
		entry.Reason,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record scan log: %w", err)
	}

	return nil
}

// CountAdmittedSince counts scans that passed the rate limit, i.e. those that
// either created a participation or hit an existing one
func (r *ScanLogRepository) CountAdmittedSince(ctx context.Context, userID, tokenID int64, since time.Time) (int, *time.Time, error) {
	query := `
		SELECT COUNT(*), MIN(created_at)
		FROM scan_logs
		WHERE user_id = $1 AND access_token_id = $2
		  AND outcome IN ('success', 'duplicate')
		  AND created_at >= $3
	`

	var (
		count  int
		oldest *time.Time
	)
	if err := r.q.QueryRow(ctx, query, userID, tokenID, since).Scan(&count, &oldest); err != nil {
		return 0, nil, fmt.Errorf("failed to count scans for user %d: %w", userID, err)
	}

	return count, oldest, nil
}
