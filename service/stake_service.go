package service

import (
	"context"
	"fmt"
	"time"

	"fanpool/events"
	"fanpool/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// CreateStakeRequest is a user's request to stake on an event
type CreateStakeRequest struct {
	UserID     int64
	EventID    int64
	Amount     decimal.Decimal
	Tier       int
	TeamChoice models.TeamSide
}

// EventStatistics summarises the staking activity of an event
type EventStatistics struct {
	EventID    int64              `json:"event_id"`
	Status     models.EventStatus `json:"status"`
	PoolAmount *decimal.Decimal   `json:"pool_amount,omitempty"`
	Currency   string             `json:"currency,omitempty"`
	models.EventStakeStats
}

// StakeStatus is a user's view of their stake on one event
type StakeStatus struct {
	HasStaked       bool                      `json:"has_staked"`
	Stake           *models.Stake             `json:"stake,omitempty"`
	EventStatistics EventStatistics           `json:"event_statistics"`
	PotentialReward *decimal.Decimal          `json:"potential_reward,omitempty"`
	Reward          *models.RewardCalculation `json:"reward,omitempty"`
}

// StakeConfig holds the stake ledger settings
type StakeConfig struct {
	MinStakeAmount         decimal.Decimal
	DefaultTierMultipliers models.TierMultipliers
}

type stakeService struct {
	uowFactory UnitOfWorkFactory
	config     StakeConfig
	now        func() time.Time
}

// NewStakeService creates a new stake ledger service
func NewStakeService(uowFactory UnitOfWorkFactory, config StakeConfig) StakeService {
	return &stakeService{
		uowFactory: uowFactory,
		config:     config,
		now:        time.Now,
	}
}

// CreateStake debits the user's balance and records an active stake in one transaction
func (s *stakeService) CreateStake(ctx context.Context, req CreateStakeRequest) (*models.Stake, error) {
	if err := validateMoney(req.Amount); err != nil {
		return nil, err
	}
	if req.Amount.LessThan(s.config.MinStakeAmount) {
		return nil, ErrInvalidAmount.
			WithMessagef("minimum stake is %s", s.config.MinStakeAmount.StringFixed(2)).
			WithDetail("minimum_amount", s.config.MinStakeAmount.String())
	}
	if req.Tier < 1 || req.Tier > 3 {
		return nil, ErrInvalidTier.WithDetail("tier", fmt.Sprintf("%d", req.Tier))
	}
	if !req.TeamChoice.Valid() {
		return nil, ErrInvalidTeam.WithDetail("team_choice", string(req.TeamChoice))
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	event, err := uow.EventRepository().GetForShare(ctx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	if !event.Status.AcceptsStakes() {
		return nil, ErrEventNotAcceptingStakes.WithDetail("status", string(event.Status))
	}
	if event.HasStarted(s.now()) {
		return nil, ErrEventAlreadyStarted
	}

	// Locking the account serializes concurrent stakes by the same user
	user, err := uow.UserRepository().GetForUpdate(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if user == nil {
		return nil, ErrAccountNotFound
	}

	existing, err := uow.StakeRepository().GetActiveByUserAndEvent(ctx, req.UserID, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing stake: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateStake.WithDetail("stake_id", fmt.Sprintf("%d", existing.ID))
	}

	if user.Balance.LessThan(req.Amount) {
		return nil, insufficientBalance(user.Balance, req.Amount)
	}

	stake := &models.Stake{
		UserID:     req.UserID,
		EventID:    req.EventID,
		Amount:     req.Amount,
		Tier:       req.Tier,
		TeamChoice: req.TeamChoice,
		Status:     models.StakeStatusActive,
	}
	if err := uow.StakeRepository().Create(ctx, stake); err != nil {
		return nil, fmt.Errorf("failed to create stake: %w", err)
	}

	if err := uow.UserRepository().DeductBalance(ctx, req.UserID, req.Amount); err != nil {
		return nil, fmt.Errorf("failed to debit stake: %w", err)
	}

	relatedID, relatedType := relatedRef(stake.ID, models.RelatedTypeStake)
	history := &models.BalanceHistory{
		UserID:          req.UserID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance.Sub(req.Amount),
		ChangeAmount:    req.Amount.Neg(),
		TransactionType: models.TransactionTypeStakeDebit,
		TransactionMetadata: map[string]any{
			"event_id":    req.EventID,
			"tier":        req.Tier,
			"team_choice": string(req.TeamChoice),
		},
		RelatedID:   relatedID,
		RelatedType: relatedType,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.StakeCreatedEvent{
		StakeID:    stake.ID,
		UserID:     stake.UserID,
		EventID:    stake.EventID,
		Amount:     stake.Amount,
		Tier:       stake.Tier,
		TeamChoice: stake.TeamChoice,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"stakeID": stake.ID,
		"userID":  stake.UserID,
		"eventID": stake.EventID,
		"amount":  stake.Amount.StringFixed(2),
		"tier":    stake.Tier,
		"team":    stake.TeamChoice,
	}).Info("Stake created")

	return stake, nil
}

// CancelStake refunds an active stake before the event starts
func (s *stakeService) CancelStake(ctx context.Context, userID, eventID int64) (*models.Stake, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	event, err := uow.EventRepository().GetForShare(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	if event.HasStarted(s.now()) {
		return nil, ErrStakeNotCancellable.WithMessagef("event has already started")
	}

	active, err := uow.StakeRepository().GetActiveByUserAndEvent(ctx, userID, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stake: %w", err)
	}
	if active == nil {
		return nil, ErrStakeNotFound
	}

	stake, err := uow.StakeRepository().GetForUpdate(ctx, active.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock stake: %w", err)
	}
	if stake == nil || stake.Status != models.StakeStatusActive {
		return nil, ErrStakeNotCancellable
	}

	user, err := uow.UserRepository().GetForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if user == nil {
		return nil, ErrAccountNotFound
	}

	cancelledAt := s.now()
	if err := uow.StakeRepository().MarkCancelled(ctx, stake.ID, cancelledAt); err != nil {
		return nil, fmt.Errorf("failed to cancel stake: %w", err)
	}
	if err := uow.UserRepository().AddBalance(ctx, userID, stake.Amount); err != nil {
		return nil, fmt.Errorf("failed to refund stake: %w", err)
	}

	relatedID, relatedType := relatedRef(stake.ID, models.RelatedTypeStake)
	history := &models.BalanceHistory{
		UserID:          userID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance.Add(stake.Amount),
		ChangeAmount:    stake.Amount,
		TransactionType: models.TransactionTypeStakeRefund,
		TransactionMetadata: map[string]any{
			"event_id": eventID,
		},
		RelatedID:   relatedID,
		RelatedType: relatedType,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.StakeCancelledEvent{
		StakeID: stake.ID,
		UserID:  userID,
		EventID: eventID,
		Refund:  stake.Amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	stake.Status = models.StakeStatusCancelled
	stake.CancelledAt = &cancelledAt

	log.WithFields(log.Fields{
		"stakeID": stake.ID,
		"userID":  userID,
		"eventID": eventID,
		"refund":  stake.Amount.StringFixed(2),
	}).Info("Stake cancelled")

	return stake, nil
}

// GetStakeStatus returns the user's stake, the event's statistics and the
// reward the stake would earn if the event settled against current totals
func (s *stakeService) GetStakeStatus(ctx context.Context, userID, eventID int64) (*StakeStatus, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	event, err := uow.EventRepository().GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	stats, err := uow.StakeRepository().GetEventStats(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event stats: %w", err)
	}

	pool, err := uow.PoolInjectionRepository().GetCompletedByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool injection: %w", err)
	}

	status := &StakeStatus{
		EventStatistics: EventStatistics{
			EventID:         eventID,
			Status:          event.Status,
			EventStakeStats: *stats,
		},
	}
	if pool != nil {
		amount := pool.Amount
		status.EventStatistics.PoolAmount = &amount
		status.EventStatistics.Currency = pool.Currency
	}

	stake, err := uow.StakeRepository().GetLatestByUserAndEvent(ctx, userID, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stake: %w", err)
	}
	if stake == nil || stake.Status == models.StakeStatusCancelled {
		return status, nil
	}
	status.HasStaked = true
	status.Stake = stake

	switch stake.Status {
	case models.StakeStatusSettled:
		calc, err := uow.RewardCalculationRepository().GetByStake(ctx, stake.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get reward calculation: %w", err)
		}
		if calc != nil {
			status.Reward = calc
			final := calc.FinalReward
			status.PotentialReward = &final
		}
	case models.StakeStatusActive:
		if pool == nil || !stats.TotalStaked.IsPositive() {
			break
		}
		multipliers := pool.TierMultipliers
		if multipliers.IsZero() {
			multipliers = s.config.DefaultTierMultipliers
		}
		coefficient, _ := multipliers.ForTier(stake.Tier)
		breakdown, err := CalculateReward(RewardInput{
			PoolAmount:      pool.Amount,
			StakeAmount:     stake.Amount,
			TotalStake:      stats.TotalStaked,
			TierCoefficient: coefficient,
			FeePercentage:   pool.FeePercentages.Distribution,
		})
		if err != nil {
			log.WithError(err).WithField("stakeID", stake.ID).Warn("Could not estimate potential reward")
			break
		}
		status.PotentialReward = &breakdown.FinalReward
	}

	return status, nil
}

func insufficientBalance(current, required decimal.Decimal) *Error {
	return ErrInsufficientBalance.
		WithMessagef("insufficient balance: have %s, need %s", current.StringFixed(2), required.StringFixed(2)).
		WithDetail("current_balance", current.StringFixed(2)).
		WithDetail("required_amount", required.StringFixed(2))
}
