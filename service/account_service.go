package service

import (
	"context"
	"fmt"

	"fanpool/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const defaultHistoryLimit = 50

type accountService struct {
	uowFactory      UnitOfWorkFactory
	startingBalance decimal.Decimal
}

// NewAccountService creates a new account service
func NewAccountService(uowFactory UnitOfWorkFactory, startingBalance decimal.Decimal) AccountService {
	return &accountService{
		uowFactory:      uowFactory,
		startingBalance: startingBalance,
	}
}

// GetOrCreateAccount retrieves an existing account or opens a new one with the starting balance
func (s *accountService) GetOrCreateAccount(ctx context.Context, userID int64, username string) (*models.User, error) {
	if userID <= 0 {
		return nil, ErrInvalidRequest.WithMessagef("user id must be positive")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if user != nil {
		return user, nil
	}

	// The primary key on users.id rejects a concurrent duplicate open
	user, err = uow.UserRepository().Create(ctx, userID, username, s.startingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	history := &models.BalanceHistory{
		UserID:          userID,
		BalanceBefore:   decimal.Zero,
		BalanceAfter:    s.startingBalance,
		ChangeAmount:    s.startingBalance,
		TransactionType: models.TransactionTypeInitial,
		TransactionMetadata: map[string]any{
			"username": username,
		},
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record initial balance: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":  userID,
		"balance": s.startingBalance.StringFixed(2),
	}).Info("Opened ledger account")

	return user, nil
}

// GetAccount returns an existing account
func (s *accountService) GetAccount(ctx context.Context, userID int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if user == nil {
		return nil, ErrAccountNotFound
	}
	return user, nil
}

// GetHistory returns the most recent balance changes of an account
func (s *accountService) GetHistory(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultHistoryLimit
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if user == nil {
		return nil, ErrAccountNotFound
	}

	history, err := uow.BalanceHistoryRepository().GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance history: %w", err)
	}
	return history, nil
}
