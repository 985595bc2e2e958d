package repository

import (
	"context"
	"fmt"
	"time"

	"fanpool/database"
	"fanpool/models"
	"fanpool/service"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// StakeRepository implements the StakeRepository interface
type StakeRepository struct {
	q queryable
}

// NewStakeRepository creates a new stake repository
func NewStakeRepository(db *database.DB) *StakeRepository {
	return &StakeRepository{q: db.Pool}
}

// newStakeRepositoryWithTx creates a new stake repository with a transaction
func newStakeRepositoryWithTx(tx queryable) *StakeRepository {
	return &StakeRepository{q: tx}
}

const stakeColumns = `
	id, user_id, event_id, amount, tier, team_choice, status, settled_at, cancelled_at, created_at, updated_at`

// Create inserts an active stake
func (r *StakeRepository) Create(ctx context.Context, stake *models.Stake) error {
	query := `
		INSERT INTO stakes (user_id, event_id, amount, tier, team_choice, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		stake.UserID,
		stake.EventID,
		stake.Amount,
		stake.Tier,
		stake.TeamChoice,
		stake.Status,
	).Scan(&stake.ID, &stake.CreatedAt, &stake.UpdatedAt)

	if isUniqueViolation(err, "idx_stakes_active_user_event") {
		return service.ErrDuplicateStake.WithCause(err)
	}
	if err != nil {
		return fmt.Errorf("failed to create stake for user %d: %w", stake.UserID, err)
	}

	return nil
}

// GetByID retrieves a stake by ID
func (r *StakeRepository) GetByID(ctx context.Context, id int64) (*models.Stake, error) {
	return r.getOne(ctx, `SELECT `+stakeColumns+` FROM stakes WHERE id = $1`, id)
}

// GetForUpdate retrieves a stake and locks it for the rest of the transaction
func (r *StakeRepository) GetForUpdate(ctx context.Context, id int64) (*models.Stake, error) {
	return r.getOne(ctx, `SELECT `+stakeColumns+` FROM stakes WHERE id = $1 FOR UPDATE`, id)
}

// GetActiveByUserAndEvent returns the user's active stake on an event
func (r *StakeRepository) GetActiveByUserAndEvent(ctx context.Context, userID, eventID int64) (*models.Stake, error) {
	query := `SELECT ` + stakeColumns + `
		FROM stakes
		WHERE user_id = $1 AND event_id = $2 AND status = 'active'`
	return r.getOne(ctx, query, userID, eventID)
}

// GetLatestByUserAndEvent returns the user's most recent stake on an event in any status
func (r *StakeRepository) GetLatestByUserAndEvent(ctx context.Context, userID, eventID int64) (*models.Stake, error) {
	query := `SELECT ` + stakeColumns + `
		FROM stakes
		WHERE user_id = $1 AND event_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	return r.getOne(ctx, query, userID, eventID)
}

// GetActiveByEvent returns every active stake of an event in creation order
func (r *StakeRepository) GetActiveByEvent(ctx context.Context, eventID int64) ([]*models.Stake, error) {
	query := `SELECT ` + stakeColumns + `
		FROM stakes
		WHERE event_id = $1 AND status = 'active'
		ORDER BY id`

	rows, err := r.q.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active stakes for event %d: %w", eventID, err)
	}
	defer rows.Close()

	stakes := make([]*models.Stake, 0)
	for rows.Next() {
		stake, err := scanStake(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stake: %w", err)
		}
		stakes = append(stakes, stake)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stakes: %w", err)
	}

	return stakes, nil
}

// GetEventStats aggregates the non-cancelled stakes of an event
func (r *StakeRepository) GetEventStats(ctx context.Context, eventID int64) (*models.EventStakeStats, error) {
	query := `
		SELECT status, team_choice, tier, COUNT(*), COALESCE(SUM(amount), 0)
		FROM stakes
		WHERE event_id = $1 AND status IN ('active', 'settled')
		GROUP BY status, team_choice, tier
	`

	rows, err := r.q.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stake stats for event %d: %w", eventID, err)
	}
	defer rows.Close()

	stats := &models.EventStakeStats{
		TotalStaked: decimal.Zero,
		TeamTotals:  make(map[models.TeamSide]decimal.Decimal),
		TierCounts:  make(map[int]int),
	}
	for rows.Next() {
		var (
			status models.StakeStatus
			team   models.TeamSide
			tier   int
			count  int
			sum    decimal.Decimal
		)
		if err := rows.Scan(&status, &team, &tier, &count, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan stake stats: %w", err)
		}

		switch status {
		case models.StakeStatusActive:
			stats.ActiveStakes += count
		case models.StakeStatusSettled:
			stats.SettledStakes += count
		}
		stats.TotalStaked = stats.TotalStaked.Add(sum)
		stats.TeamTotals[team] = stats.TeamTotals[team].Add(sum)
		stats.TierCounts[tier] += count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stake stats: %w", err)
	}

	return stats, nil
}

// MarkSettled moves an active stake to settled
func (r *StakeRepository) MarkSettled(ctx context.Context, id int64, settledAt time.Time) error {
	query := `
		UPDATE stakes
		SET status = 'settled', settled_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`
	return r.transition(ctx, id, query, settledAt)
}

// MarkCancelled moves an active stake to cancelled
func (r *StakeRepository) MarkCancelled(ctx context.Context, id int64, cancelledAt time.Time) error {
	query := `
		UPDATE stakes
		SET status = 'cancelled', cancelled_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`
	return r.transition(ctx, id, query, cancelledAt)
}

func (r *StakeRepository) transition(ctx context.Context, id int64, query string, at time.Time) error {
	result, err := r.q.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to update stake %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("stake %d is not active", id)
	}
	return nil
}

func (r *StakeRepository) getOne(ctx context.Context, query string, args ...any) (*models.Stake, error) {
	stake, err := scanStake(r.q.QueryRow(ctx, query, args...))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stake: %w", err)
	}
	return stake, nil
}

func scanStake(row pgx.Row) (*models.Stake, error) {
	var stake models.Stake
	err := row.Scan(
		&stake.ID,
		&stake.UserID,
		&stake.EventID,
		&stake.Amount,
		&stake.Tier,
		&stake.TeamChoice,
		&stake.Status,
		&stake.SettledAt,
		&stake.CancelledAt,
		&stake.CreatedAt,
		&stake.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &stake, nil
}
