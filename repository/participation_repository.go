package repository

import (
	"context"
	"fmt"

	"fanpool/database"
	"fanpool/models"
	"fanpool/service"
	"github.com/jackc/pgx/v5"
)

// ParticipationRepository implements the ParticipationRepository interface
type ParticipationRepository struct {
	q queryable
}

// NewParticipationRepository creates a new participation repository
func NewParticipationRepository(db *database.DB) *ParticipationRepository {
	return &ParticipationRepository{q: db.Pool}
}

// newParticipationRepositoryWithTx creates a new participation repository with a transaction
func newParticipationRepositoryWithTx(tx queryable) *ParticipationRepository {
	return &ParticipationRepository{q: tx}
}

// Create inserts a participation record. The (user_id, event_id) unique
// constraint turns a concurrent second scan into AlreadyParticipated.
func (r *ParticipationRepository) Create(ctx context.Context, record *models.ParticipationRecord) error {
	query := `
		INSERT INTO participation_records
		(user_id, event_id, access_token_id, participation_type, tier, tier_multiplier, perk_status, waitlist_position, client_metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		record.UserID,
		record.EventID,
		record.AccessTokenID,
		record.ParticipationType,
		record.Tier,
		record.TierMultiplier,
		record.PerkStatus,
		record.WaitlistPosition,
		record.ClientMetadata,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)

	if isUniqueViolation(err, "participation_records_user_id_event_id_key") {
		return service.ErrAlreadyParticipated.WithCause(err)
	}
	if err != nil {
		return fmt.Errorf("failed to create participation record for user %d: %w", record.UserID, err)
	}

	return nil
}

// GetByUserAndEvent returns the user's participation in an event
func (r *ParticipationRepository) GetByUserAndEvent(ctx context.Context, userID, eventID int64) (*models.ParticipationRecord, error) {
	query := `
		SELECT id, user_id, event_id, access_token_id, participation_type, tier, tier_multiplier,
		       perk_status, waitlist_position, client_metadata, created_at, updated_at
		FROM participation_records
		WHERE user_id = $1 AND event_id = $2
	`

	var record models.ParticipationRecord
	err := r.q.QueryRow(ctx, query, userID, eventID).Scan(
		&record.ID,
		&record.UserID,
		&record.EventID,
		&record.AccessTokenID,
		&record.ParticipationType,
		&record.Tier,
		&record.TierMultiplier,
		&record.PerkStatus,
		&record.WaitlistPosition,
		&record.ClientMetadata,
		&record.CreatedAt,
		&record.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participation for user %d: %w", userID, err)
	}

	return &record, nil
}

// GetPerkStats returns party capacity and allocation counts for an event
func (r *ParticipationRepository) GetPerkStats(ctx context.Context, eventID int64) (*models.PerkStats, error) {
	query := `
		SELECT e.party_capacity,
		       COUNT(p.id) FILTER (WHERE p.perk_status = 'allocated'),
		       COUNT(p.id) FILTER (WHERE p.perk_status = 'waitlist')
		FROM events e
		LEFT JOIN participation_records p ON p.event_id = e.id
		WHERE e.id = $1
		GROUP BY e.id, e.party_capacity
	`

	var stats models.PerkStats
	err := r.q.QueryRow(ctx, query, eventID).Scan(&stats.Capacity, &stats.Allocated, &stats.Waitlisted)
	if err == pgx.ErrNoRows {
		return nil, service.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get perk stats for event %d: %w", eventID, err)
	}

	return &stats, nil
}
