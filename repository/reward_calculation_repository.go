package repository

import (
	"context"
	"fmt"

	"fanpool/database"
	"fanpool/models"
	"github.com/jackc/pgx/v5"
)

// RewardCalculationRepository implements the RewardCalculationRepository interface
type RewardCalculationRepository struct {
	q queryable
}

// NewRewardCalculationRepository creates a new reward calculation repository
func NewRewardCalculationRepository(db *database.DB) *RewardCalculationRepository {
	return &RewardCalculationRepository{q: db.Pool}
}

// newRewardCalculationRepositoryWithTx creates a new reward calculation repository with a transaction
func newRewardCalculationRepositoryWithTx(tx queryable) *RewardCalculationRepository {
	return &RewardCalculationRepository{q: tx}
}

const rewardCalculationColumns = `
	id, event_id, stake_id, user_id, pool_amount, total_participants, total_stake, tier_coefficient,
	fee_percentage, base_reward, fee_amount, final_reward, status, created_at, updated_at`

// Create inserts a reward calculation. stake_id is unique so a stake can only be paid once.
func (r *RewardCalculationRepository) Create(ctx context.Context, calc *models.RewardCalculation) error {
	query := `
		INSERT INTO reward_calculations
		(event_id, stake_id, user_id, pool_amount, total_participants, total_stake, tier_coefficient,
		 fee_percentage, base_reward, fee_amount, final_reward, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		calc.EventID,
		calc.StakeID,
		calc.UserID,
		calc.PoolAmount,
		calc.TotalParticipants,
		calc.TotalStake,
		calc.TierCoefficient,
		calc.FeePercentage,
		calc.BaseReward,
		calc.FeeAmount,
		calc.FinalReward,
		calc.Status,
	).Scan(&calc.ID, &calc.CreatedAt, &calc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create reward calculation for stake %d: %w", calc.StakeID, err)
	}

	return nil
}

// GetByStake returns the calculation of a stake, nil if it has not been settled
func (r *RewardCalculationRepository) GetByStake(ctx context.Context, stakeID int64) (*models.RewardCalculation, error) {
	query := `SELECT ` + rewardCalculationColumns + ` FROM reward_calculations WHERE stake_id = $1`

	calc, err := scanRewardCalculation(r.q.QueryRow(ctx, query, stakeID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reward calculation for stake %d: %w", stakeID, err)
	}

	return calc, nil
}

// GetByEvent returns every calculation of an event ordered by stake
func (r *RewardCalculationRepository) GetByEvent(ctx context.Context, eventID int64) ([]*models.RewardCalculation, error) {
	query := `SELECT ` + rewardCalculationColumns + `
		FROM reward_calculations
		WHERE event_id = $1
		ORDER BY stake_id`

	rows, err := r.q.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reward calculations for event %d: %w", eventID, err)
	}
	defer rows.Close()

	calcs := make([]*models.RewardCalculation, 0)
	for rows.Next() {
		calc, err := scanRewardCalculation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reward calculation: %w", err)
		}
		calcs = append(calcs, calc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reward calculations: %w", err)
	}

	return calcs, nil
}

// GetTotalsByEvent sums the persisted calculations of an event
func (r *RewardCalculationRepository) GetTotalsByEvent(ctx context.Context, eventID int64) (*models.RewardTotals, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(final_reward), 0), COALESCE(SUM(fee_amount), 0)
		FROM reward_calculations
		WHERE event_id = $1
	`

	var totals models.RewardTotals
	err := r.q.QueryRow(ctx, query, eventID).Scan(&totals.Count, &totals.TotalRewards, &totals.TotalFees)
	if err != nil {
		return nil, fmt.Errorf("failed to get reward totals for event %d: %w", eventID, err)
	}

	return &totals, nil
}

func scanRewardCalculation(row pgx.Row) (*models.RewardCalculation, error) {
	var calc models.RewardCalculation
	err := row.Scan(
		&calc.ID,
		&calc.EventID,
		&calc.StakeID,
		&calc.UserID,
		&calc.PoolAmount,
		&calc.TotalParticipants,
		&calc.TotalStake,
		&calc.TierCoefficient,
		&calc.FeePercentage,
		&calc.BaseReward,
		&calc.FeeAmount,
		&calc.FinalReward,
		&calc.Status,
		&calc.CreatedAt,
		&calc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &calc, nil
}
