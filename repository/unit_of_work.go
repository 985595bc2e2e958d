package repository

import (
	"context"
	"fmt"

	"fanpool/database"
	"fanpool/events"
	"fanpool/service"
	"github.com/jackc/pgx/v5"
)

const errNotStarted = "unit of work not started - call Begin() first"

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                    *database.DB
	tx                    pgx.Tx
	ctx                   context.Context
	transactionalBus      *events.TransactionalBus
	userRepo              service.UserRepository
	balanceHistoryRepo    service.BalanceHistoryRepository
	eventRepo             service.EventRepository
	poolInjectionRepo     service.PoolInjectionRepository
	stakeRepo             service.StakeRepository
	accessTokenRepo       service.AccessTokenRepository
	participationRepo     service.ParticipationRepository
	scanLogRepo           service.ScanLogRepository
	rewardCalculationRepo service.RewardCalculationRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.userRepo = newUserRepositoryWithTx(tx)
	u.balanceHistoryRepo = newBalanceHistoryRepositoryWithTx(tx)
	u.eventRepo = newEventRepositoryWithTx(tx)
	u.poolInjectionRepo = newPoolInjectionRepositoryWithTx(tx)
	u.stakeRepo = newStakeRepositoryWithTx(tx)
	u.accessTokenRepo = newAccessTokenRepositoryWithTx(tx)
	u.participationRepo = newParticipationRepositoryWithTx(tx)
	u.scanLogRepo = newScanLogRepositoryWithTx(tx)
	u.rewardCalculationRepo = newRewardCalculationRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() service.UserRepository {
	if u.userRepo == nil {
		panic(errNotStarted)
	}
	return u.userRepo
}

// BalanceHistoryRepository returns the balance history repository for this unit of work
func (u *unitOfWork) BalanceHistoryRepository() service.BalanceHistoryRepository {
	if u.balanceHistoryRepo == nil {
		panic(errNotStarted)
	}
	return u.balanceHistoryRepo
}

func (u *unitOfWork) EventRepository() service.EventRepository {
	if u.eventRepo == nil {
		panic(errNotStarted)
	}
	return u.eventRepo
}

func (u *unitOfWork) PoolInjectionRepository() service.PoolInjectionRepository {
	if u.poolInjectionRepo == nil {
		panic(errNotStarted)
	}
	return u.poolInjectionRepo
}

func (u *unitOfWork) StakeRepository() service.StakeRepository {
	if u.stakeRepo == nil {
		panic(errNotStarted)
	}
	return u.stakeRepo
}

func (u *unitOfWork) AccessTokenRepository() service.AccessTokenRepository {
	if u.accessTokenRepo == nil {
		panic(errNotStarted)
	}
	return u.accessTokenRepo
}

func (u *unitOfWork) ParticipationRepository() service.ParticipationRepository {
	if u.participationRepo == nil {
		panic(errNotStarted)
	}
	return u.participationRepo
}

func (u *unitOfWork) ScanLogRepository() service.ScanLogRepository {
	if u.scanLogRepo == nil {
		panic(errNotStarted)
	}
	return u.scanLogRepo
}

func (u *unitOfWork) RewardCalculationRepository() service.RewardCalculationRepository {
	if u.rewardCalculationRepo == nil {
		panic(errNotStarted)
	}
	return u.rewardCalculationRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic(errNotStarted)
	}
	return u.transactionalBus
}
