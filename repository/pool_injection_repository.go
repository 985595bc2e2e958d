package repository

import (
	"context"
	"fmt"

	"fanpool/database"
	"fanpool/models"
	"fanpool/service"
	"github.com/jackc/pgx/v5"
)

// PoolInjectionRepository implements the PoolInjectionRepository interface
type PoolInjectionRepository struct {
	q queryable
}

// NewPoolInjectionRepository creates a new pool injection repository
func NewPoolInjectionRepository(db *database.DB) *PoolInjectionRepository {
	return &PoolInjectionRepository{q: db.Pool}
}

// newPoolInjectionRepositoryWithTx creates a new pool injection repository with a transaction
func newPoolInjectionRepositoryWithTx(tx queryable) *PoolInjectionRepository {
	return &PoolInjectionRepository{q: tx}
}

const poolInjectionColumns = `
	id, event_id, admin_id, amount, currency, staking_fee_pct, withdrawal_fee_pct,
	distribution_fee_pct, tier_multipliers, status, created_at, updated_at`

// Create inserts an injection. The partial unique index allows one pending or
// completed injection per event.
func (r *PoolInjectionRepository) Create(ctx context.Context, injection *models.PoolInjection) error {
	query := `
		INSERT INTO pool_injections
		(event_id, admin_id, amount, currency, staking_fee_pct, withdrawal_fee_pct, distribution_fee_pct, tier_multipliers, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		injection.EventID,
		injection.AdminID,
		injection.Amount,
		injection.Currency,
		injection.FeePercentages.Staking,
		injection.FeePercentages.Withdrawal,
		injection.FeePercentages.Distribution,
		injection.TierMultipliers,
		injection.Status,
	).Scan(&injection.ID, &injection.CreatedAt, &injection.UpdatedAt)

	if isUniqueViolation(err, "idx_pool_injections_live_event") {
		return service.ErrAlreadyInjected.WithCause(err)
	}
	if err != nil {
		return fmt.Errorf("failed to create pool injection for event %d: %w", injection.EventID, err)
	}

	return nil
}

// GetLiveByEvent returns the pending or completed injection of an event
func (r *PoolInjectionRepository) GetLiveByEvent(ctx context.Context, eventID int64) (*models.PoolInjection, error) {
	query := `SELECT ` + poolInjectionColumns + `
		FROM pool_injections
		WHERE event_id = $1 AND status IN ('pending', 'completed')
		ORDER BY id DESC
		LIMIT 1`
	return r.get(ctx, query, eventID)
}

// GetCompletedByEvent returns the completed injection of an event
func (r *PoolInjectionRepository) GetCompletedByEvent(ctx context.Context, eventID int64) (*models.PoolInjection, error) {
	query := `SELECT ` + poolInjectionColumns + `
		FROM pool_injections
		WHERE event_id = $1 AND status = 'completed'
		ORDER BY id DESC
		LIMIT 1`
	return r.get(ctx, query, eventID)
}

func (r *PoolInjectionRepository) get(ctx context.Context, query string, eventID int64) (*models.PoolInjection, error) {
	var injection models.PoolInjection
	err := r.q.QueryRow(ctx, query, eventID).Scan(
		&injection.ID,
		&injection.EventID,
		&injection.AdminID,
		&injection.Amount,
		&injection.Currency,
		&injection.FeePercentages.Staking,
		&injection.FeePercentages.Withdrawal,
		&injection.FeePercentages.Distribution,
		&injection.TierMultipliers,
		&injection.Status,
		&injection.CreatedAt,
		&injection.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pool injection for event %d: %w", eventID, err)
	}

	return &injection, nil
}
