package service

import (
	"context"
	"time"

	"fanpool/events"
	"fanpool/models"

	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for ledger account access
type UserRepository interface {
	// GetByID retrieves an account by user ID, nil if it does not exist
	GetByID(ctx context.Context, userID int64) (*models.User, error)

	// GetForUpdate retrieves an account and locks its row until the transaction ends
	GetForUpdate(ctx context.Context, userID int64) (*models.User, error)

	// Create opens an account with the given starting balance
	Create(ctx context.Context, userID int64, username string, initialBalance decimal.Decimal) (*models.User, error)

	// AddBalance credits an account atomically
	AddBalance(ctx context.Context, userID int64, amount decimal.Decimal) error

	// DeductBalance debits an account atomically, failing with InsufficientBalance
	DeductBalance(ctx context.Context, userID int64, amount decimal.Decimal) error
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns the most recent balance history for a user
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error)
}

// EventRepository defines the interface for match data access
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)

	// GetForShare locks the event row against concurrent status changes
	GetForShare(ctx context.Context, id int64) (*models.Event, error)

	// GetForUpdate locks the event row exclusively
	GetForUpdate(ctx context.Context, id int64) (*models.Event, error)

	UpdateStatus(ctx context.Context, id int64, status models.EventStatus) error
	SetPoolInjected(ctx context.Context, id int64, amount decimal.Decimal) error
	SetResult(ctx context.Context, id int64, winner models.TeamSide, score *models.Score) error
	MarkSettled(ctx context.Context, id int64, settledAt time.Time) error

	// ClaimPartySlot increments the party claim counter and returns the claim
	// number together with the capacity. The row stays locked until commit.
	ClaimPartySlot(ctx context.Context, id int64) (claim int, capacity int, err error)
}

// PoolInjectionRepository defines the interface for pool injection access
type PoolInjectionRepository interface {
	// Create inserts an injection; a second live injection for the event fails with AlreadyInjected
	Create(ctx context.Context, injection *models.PoolInjection) error

	// GetLiveByEvent returns the pending or completed injection of an event, nil if none
	GetLiveByEvent(ctx context.Context, eventID int64) (*models.PoolInjection, error)

	// GetCompletedByEvent returns the completed injection of an event, nil if none
	GetCompletedByEvent(ctx context.Context, eventID int64) (*models.PoolInjection, error)
}

// StakeRepository defines the interface for stake access
type StakeRepository interface {
	// Create inserts an active stake; a second active stake fails with DuplicateStake
	Create(ctx context.Context, stake *models.Stake) error

	GetByID(ctx context.Context, id int64) (*models.Stake, error)

	// GetForUpdate locks a stake row until the transaction ends
	GetForUpdate(ctx context.Context, id int64) (*models.Stake, error)

	// GetActiveByUserAndEvent returns the user's active stake, nil if none
	GetActiveByUserAndEvent(ctx context.Context, userID, eventID int64) (*models.Stake, error)

	// GetLatestByUserAndEvent returns the user's most recent stake in any status, nil if none
	GetLatestByUserAndEvent(ctx context.Context, userID, eventID int64) (*models.Stake, error)

	GetActiveByEvent(ctx context.Context, eventID int64) ([]*models.Stake, error)
	GetEventStats(ctx context.Context, eventID int64) (*models.EventStakeStats, error)
	MarkSettled(ctx context.Context, id int64, settledAt time.Time) error
	MarkCancelled(ctx context.Context, id int64, cancelledAt time.Time) error
}

// AccessTokenRepository defines the interface for QR access token access
type AccessTokenRepository interface {
	Create(ctx context.Context, token *models.AccessToken) error

	// GetByToken returns the token with the given payload, nil if unknown
	GetByToken(ctx context.Context, token string) (*models.AccessToken, error)

	SetActive(ctx context.Context, id int64, active bool) error
	IncrementScanCount(ctx context.Context, id int64) error
	IncrementSuccessCount(ctx context.Context, id int64) error
}

// ParticipationRepository defines the interface for participation record access
type ParticipationRepository interface {
	// Create inserts a record; a second record for (user, event) fails with a conflict
	Create(ctx context.Context, record *models.ParticipationRecord) error

	GetByUserAndEvent(ctx context.Context, userID, eventID int64) (*models.ParticipationRecord, error)
	GetPerkStats(ctx context.Context, eventID int64) (*models.PerkStats, error)
}

// ScanLogRepository defines the interface for the scan audit log
type ScanLogRepository interface {
	Record(ctx context.Context, entry *models.ScanLog) error

	// CountAdmittedSince counts scans of a token by a user that passed the rate
	// limit since the given instant, and returns the oldest such scan time
	CountAdmittedSince(ctx context.Context, userID, tokenID int64, since time.Time) (int, *time.Time, error)
}

// RewardCalculationRepository defines the interface for settlement outcomes
type RewardCalculationRepository interface {
	// Create inserts a calculation; a second calculation for a stake fails
	Create(ctx context.Context, calc *models.RewardCalculation) error

	GetByStake(ctx context.Context, stakeID int64) (*models.RewardCalculation, error)
	GetByEvent(ctx context.Context, eventID int64) ([]*models.RewardCalculation, error)
	GetTotalsByEvent(ctx context.Context, eventID int64) (*models.RewardTotals, error)
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction; a no-op after Commit
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	EventRepository() EventRepository
	PoolInjectionRepository() PoolInjectionRepository
	StakeRepository() StakeRepository
	AccessTokenRepository() AccessTokenRepository
	ParticipationRepository() ParticipationRepository
	ScanLogRepository() ScanLogRepository
	RewardCalculationRepository() RewardCalculationRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// ScanLimiter enforces the per-user, per-token scan rate limit
type ScanLimiter interface {
	// Allow admits a scan when fewer than limit scans were admitted for key
	// within window. When rejected it returns how long until a slot frees up.
	// release hands an admitted slot back and is nil when the scan was rejected.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (release func(), allowed bool, retryAfter time.Duration, err error)
}

// Locker provides mutual exclusion keyed by name
type Locker interface {
	// TryLock acquires the named lock without waiting. ok is false when the
	// lock is held elsewhere. unlock must be called once when ok is true.
	TryLock(ctx context.Context, key string) (unlock func(), ok bool, err error)
}

// AccountService defines the interface for currency ledger accounts
type AccountService interface {
	// GetOrCreateAccount returns an existing account or opens one with the starting balance
	GetOrCreateAccount(ctx context.Context, userID int64, username string) (*models.User, error)

	GetAccount(ctx context.Context, userID int64) (*models.User, error)
	GetHistory(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error)
}

// EventService defines the interface for match intake and results
type EventService interface {
	RegisterEvent(ctx context.Context, req RegisterEventRequest) (*models.Event, error)
	ApproveEvent(ctx context.Context, eventID int64) (*models.Event, error)
	ReportResult(ctx context.Context, eventID int64, winner models.TeamSide, score *models.Score) (*models.Event, error)
	GetEvent(ctx context.Context, eventID int64) (*models.Event, error)
}

// PoolService defines the interface for the pool & fee registry
type PoolService interface {
	InjectPool(ctx context.Context, req InjectPoolRequest) (*InjectPoolResult, error)
	GetActivePool(ctx context.Context, eventID int64) (*models.PoolInjection, error)
}

// StakeService defines the interface for the stake ledger
type StakeService interface {
	CreateStake(ctx context.Context, req CreateStakeRequest) (*models.Stake, error)
	CancelStake(ctx context.Context, userID, eventID int64) (*models.Stake, error)
	GetStakeStatus(ctx context.Context, userID, eventID int64) (*StakeStatus, error)
}

// ParticipationService defines the interface for the participation allocator
type ParticipationService interface {
	Scan(ctx context.Context, req ScanRequest) (*ScanResult, error)
	GetTokenInfo(ctx context.Context, token string, userID *int64) (*TokenInfo, error)
	IssueToken(ctx context.Context, req IssueTokenRequest) (*models.AccessToken, error)
	DeactivateToken(ctx context.Context, token string) (*models.AccessToken, error)
}

// SettlementService defines the interface for the settlement engine
type SettlementService interface {
	Settle(ctx context.Context, eventID int64) (*models.SettlementResult, error)
}
