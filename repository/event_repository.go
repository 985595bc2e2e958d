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

// EventRepository implements the EventRepository interface
type EventRepository struct {
	q queryable
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{q: db.Pool}
}

// newEventRepositoryWithTx creates a new event repository with a transaction
func newEventRepositoryWithTx(tx queryable) *EventRepository {
	return &EventRepository{q: tx}
}

const eventColumns = `
	id, title, home_team, away_team, start_time, end_time, status, pool_injected_amount,
	party_capacity, party_claims, winning_team, final_score, settled_at, created_at, updated_at`

// Create inserts a new event
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (title, home_team, away_team, start_time, end_time, status, party_capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, party_claims, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		event.Title,
		event.HomeTeam,
		event.AwayTeam,
		event.StartTime,
		event.EndTime,
		event.Status,
		event.PartyCapacity,
	).Scan(&event.ID, &event.PartyClaims, &event.CreatedAt, &event.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	return r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

// GetForShare retrieves an event and blocks concurrent writers until the transaction ends
func (r *EventRepository) GetForShare(ctx context.Context, id int64) (*models.Event, error) {
	return r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR SHARE`, id)
}

// GetForUpdate retrieves an event and locks it exclusively
func (r *EventRepository) GetForUpdate(ctx context.Context, id int64) (*models.Event, error) {
	return r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
}

func (r *EventRepository) get(ctx context.Context, query string, id int64) (*models.Event, error) {
	event, err := scanEvent(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event %d: %w", id, err)
	}
	return event, nil
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var event models.Event
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.HomeTeam,
		&event.AwayTeam,
		&event.StartTime,
		&event.EndTime,
		&event.Status,
		&event.PoolInjectedAmount,
		&event.PartyCapacity,
		&event.PartyClaims,
		&event.WinningTeam,
		&event.FinalScore,
		&event.SettledAt,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateStatus sets the lifecycle status of an event
func (r *EventRepository) UpdateStatus(ctx context.Context, id int64, status models.EventStatus) error {
	return r.exec(ctx, id, `UPDATE events SET status = $2, updated_at = NOW() WHERE id = $1`, status)
}

// SetPoolInjected records the amount injected into the event's pool
func (r *EventRepository) SetPoolInjected(ctx context.Context, id int64, amount decimal.Decimal) error {
	return r.exec(ctx, id, `UPDATE events SET pool_injected_amount = $2, updated_at = NOW() WHERE id = $1`, amount)
}

// SetResult stores the winner and final score
func (r *EventRepository) SetResult(ctx context.Context, id int64, winner models.TeamSide, score *models.Score) error {
	query := `
		UPDATE events
		SET winning_team = $2, final_score = $3, updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, id, query, winner, score)
}

// MarkSettled completes the event
func (r *EventRepository) MarkSettled(ctx context.Context, id int64, settledAt time.Time) error {
	query := `
		UPDATE events
		SET status = 'completed', settled_at = $2, updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, id, query, settledAt)
}

// ClaimPartySlot increments the party claim counter in one statement. The row
// lock taken by the update serializes concurrent claims for the same event.
func (r *EventRepository) ClaimPartySlot(ctx context.Context, id int64) (int, int, error) {
	query := `
		UPDATE events
		SET party_claims = party_claims + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING party_claims, party_capacity
	`

	var claim, capacity int
	err := r.q.QueryRow(ctx, query, id).Scan(&claim, &capacity)
	if err == pgx.ErrNoRows {
		return 0, 0, service.ErrEventNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to claim party slot for event %d: %w", id, err)
	}
	return claim, capacity, nil
}

func (r *EventRepository) exec(ctx context.Context, id int64, query string, args ...any) error {
	result, err := r.q.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to update event %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return service.ErrEventNotFound
	}
	return nil
}
