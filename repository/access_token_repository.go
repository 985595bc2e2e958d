package repository

import (
	"context"
	"fmt"

	"fanpool/database"
	"fanpool/models"
	"github.com/jackc/pgx/v5"
)

// AccessTokenRepository implements the AccessTokenRepository interface
type AccessTokenRepository struct {
	q queryable
}

// NewAccessTokenRepository creates a new access token repository
func NewAccessTokenRepository(db *database.DB) *AccessTokenRepository {
	return &AccessTokenRepository{q: db.Pool}
}

// newAccessTokenRepositoryWithTx creates a new access token repository with a transaction
func newAccessTokenRepositoryWithTx(tx queryable) *AccessTokenRepository {
	return &AccessTokenRepository{q: tx}
}

// Create inserts a new access token
func (r *AccessTokenRepository) Create(ctx context.Context, token *models.AccessToken) error {
	query := `
		INSERT INTO access_tokens (token, event_id, valid_from, valid_until, is_active, max_scans_per_hour)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, scan_count, success_count, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		token.Token,
		token.EventID,
		token.ValidFrom,
		token.ValidUntil,
		token.IsActive,
		token.MaxScansPerHour,
	).Scan(&token.ID, &token.ScanCount, &token.SuccessCount, &token.CreatedAt, &token.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create access token for event %d: %w", token.EventID, err)
	}

	return nil
}

// GetByToken retrieves an access token by its QR payload
func (r *AccessTokenRepository) GetByToken(ctx context.Context, token string) (*models.AccessToken, error) {
	query := `
		SELECT id, token, event_id, valid_from, valid_until, is_active, max_scans_per_hour,
		       scan_count, success_count, created_at, updated_at
		FROM access_tokens
		WHERE token = $1
	`

	var t models.AccessToken
	err := r.q.QueryRow(ctx, query, token).Scan(
		&t.ID,
		&t.Token,
		&t.EventID,
		&t.ValidFrom,
		&t.ValidUntil,
		&t.IsActive,
		&t.MaxScansPerHour,
		&t.ScanCount,
		&t.SuccessCount,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	return &t, nil
}

// SetActive toggles the is_active flag
func (r *AccessTokenRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.exec(ctx, id, `UPDATE access_tokens SET is_active = $2, updated_at = NOW() WHERE id = $1`, active)
}

// IncrementScanCount counts one scan attempt
func (r *AccessTokenRepository) IncrementScanCount(ctx context.Context, id int64) error {
	return r.exec(ctx, id, `UPDATE access_tokens SET scan_count = scan_count + 1, updated_at = NOW() WHERE id = $1`)
}

// IncrementSuccessCount counts one scan that produced a participation record
func (r *AccessTokenRepository) IncrementSuccessCount(ctx context.Context, id int64) error {
	return r.exec(ctx, id, `UPDATE access_tokens SET success_count = success_count + 1, updated_at = NOW() WHERE id = $1`)
}

func (r *AccessTokenRepository) exec(ctx context.Context, id int64, query string, args ...any) error {
	result, err := r.q.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to update access token %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("access token %d not found", id)
	}
	return nil
}
