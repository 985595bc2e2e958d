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

// SettlementConfig holds the settlement engine settings
type SettlementConfig struct {
	// DefaultTierMultipliers apply when an injection carries none
	DefaultTierMultipliers models.TierMultipliers
}

type settlementService struct {
	uowFactory UnitOfWorkFactory
	locker     Locker
	config     SettlementConfig
	now        func() time.Time
}

// NewSettlementService creates a new settlement engine
func NewSettlementService(uowFactory UnitOfWorkFactory, locker Locker, config SettlementConfig) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
		locker:     locker,
		config:     config,
		now:        time.Now,
	}
}

// settlementPlan is the snapshot every stake of one pass is settled against
type settlementPlan struct {
	event        *models.Event
	pool         *models.PoolInjection
	multipliers  models.TierMultipliers
	totalStake   decimal.Decimal
	participants int
	stakes       []*models.Stake
}

// Settle distributes the event's pool across its active stakes. Each stake is
// settled in its own transaction; a failing stake is reported and skipped.
// Running it again only settles what is still active.
func (s *settlementService) Settle(ctx context.Context, eventID int64) (*models.SettlementResult, error) {
	unlock, ok, err := s.locker.TryLock(ctx, fmt.Sprintf("settlement:%d", eventID))
	if err != nil {
		return nil, ErrDependency.WithMessagef("settlement lock unavailable").WithCause(err)
	}
	if !ok {
		return nil, ErrSettlementInProgress.WithDetail("event_id", fmt.Sprintf("%d", eventID))
	}
	defer unlock()

	plan, err := s.prepare(ctx, eventID)
	if err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{
		"eventID":    eventID,
		"pool":       plan.pool.Amount.StringFixed(2),
		"totalStake": plan.totalStake.StringFixed(2),
		"stakes":     len(plan.stakes),
	})
	logger.Info("Starting settlement")

	result := &models.SettlementResult{EventID: eventID}
	for _, stake := range plan.stakes {
		settled, err := s.settleStake(ctx, plan, stake.ID)
		if err != nil {
			logger.WithError(err).WithField("stakeID", stake.ID).Error("Failed to settle stake")
			result.Failures = append(result.Failures, models.StakeFailure{
				StakeID: stake.ID,
				UserID:  stake.UserID,
				Reason:  err.Error(),
			})
			continue
		}
		if settled {
			result.ParticipantsSettled++
		} else {
			result.AlreadySettled++
		}
	}

	if err := s.finalize(ctx, plan, result); err != nil {
		return nil, err
	}

	logger.WithFields(log.Fields{
		"settled":        result.ParticipantsSettled,
		"alreadySettled": result.AlreadySettled,
		"failures":       len(result.Failures),
		"rewardsPaid":    result.TotalRewardsPaid.StringFixed(2),
		"feesCollected":  result.TotalFeesCollected.String(),
	}).Info("Settlement finished")

	return result, nil
}

// prepare checks the settlement preconditions and snapshots pool and totals
func (s *settlementService) prepare(ctx context.Context, eventID int64) (*settlementPlan, error) {
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
	if !event.HasEnded(s.now()) {
		return nil, ErrEventNotEnded.WithDetail("end_time", event.EndTime.UTC().Format(time.RFC3339))
	}

	pool, err := uow.PoolInjectionRepository().GetCompletedByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool injection: %w", err)
	}
	if pool == nil || !pool.Amount.IsPositive() {
		return nil, ErrNoPoolFound
	}

	stats, err := uow.StakeRepository().GetEventStats(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event stats: %w", err)
	}
	if stats.Participants() == 0 {
		return nil, ErrNoActiveStakes
	}
	// Settled stakes stay in the total so a re-run keeps every ratio of the first pass
	if !stats.TotalStaked.IsPositive() {
		return nil, ErrZeroTotalStake
	}

	stakes, err := uow.StakeRepository().GetActiveByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active stakes: %w", err)
	}

	multipliers := pool.TierMultipliers
	if multipliers.IsZero() {
		multipliers = s.config.DefaultTierMultipliers
	}

	return &settlementPlan{
		event:        event,
		pool:         pool,
		multipliers:  multipliers,
		totalStake:   stats.TotalStaked,
		participants: stats.Participants(),
		stakes:       stakes,
	}, nil
}

// settleStake settles one stake in its own transaction. It returns false when
// the stake was already settled by an earlier pass.
func (s *settlementService) settleStake(ctx context.Context, plan *settlementPlan, stakeID int64) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	stake, err := uow.StakeRepository().GetForUpdate(ctx, stakeID)
	if err != nil {
		return false, fmt.Errorf("failed to lock stake: %w", err)
	}
	if stake == nil {
		return false, ErrStakeNotFound
	}
	if stake.Status != models.StakeStatusActive {
		return false, nil
	}
	existing, err := uow.RewardCalculationRepository().GetByStake(ctx, stake.ID)
	if err != nil {
		return false, fmt.Errorf("failed to check reward calculation: %w", err)
	}
	if existing != nil {
		return false, nil
	}

	coefficient, ok := plan.multipliers.ForTier(stake.Tier)
	if !ok {
		return false, ErrInvalidTier.WithDetail("tier", fmt.Sprintf("%d", stake.Tier))
	}
	feePct := plan.pool.FeePercentages.Distribution
	breakdown, err := CalculateReward(RewardInput{
		PoolAmount:      plan.pool.Amount,
		StakeAmount:     stake.Amount,
		TotalStake:      plan.totalStake,
		TierCoefficient: coefficient,
		FeePercentage:   feePct,
	})
	if err != nil {
		return false, fmt.Errorf("failed to calculate reward: %w", err)
	}

	user, err := uow.UserRepository().GetForUpdate(ctx, stake.UserID)
	if err != nil {
		return false, fmt.Errorf("failed to get account: %w", err)
	}
	if user == nil {
		return false, ErrAccountNotFound
	}

	calc := &models.RewardCalculation{
		EventID:           stake.EventID,
		StakeID:           stake.ID,
		UserID:            stake.UserID,
		PoolAmount:        plan.pool.Amount,
		TotalParticipants: plan.participants,
		TotalStake:        plan.totalStake,
		TierCoefficient:   coefficient,
		FeePercentage:     feePct,
		BaseReward:        breakdown.BaseReward,
		FeeAmount:         breakdown.FeeAmount,
		FinalReward:       breakdown.FinalReward,
		Status:            models.RewardCalculationStatusCalculated,
	}
	if err := uow.RewardCalculationRepository().Create(ctx, calc); err != nil {
		return false, fmt.Errorf("failed to record reward calculation: %w", err)
	}

	if calc.FinalReward.IsPositive() {
		if err := uow.UserRepository().AddBalance(ctx, stake.UserID, calc.FinalReward); err != nil {
			return false, fmt.Errorf("failed to credit reward: %w", err)
		}
		relatedID, relatedType := relatedRef(calc.ID, models.RelatedTypeRewardCalculation)
		history := &models.BalanceHistory{
			UserID:          stake.UserID,
			BalanceBefore:   user.Balance,
			BalanceAfter:    user.Balance.Add(calc.FinalReward),
			ChangeAmount:    calc.FinalReward,
			TransactionType: models.TransactionTypeRewardCredit,
			TransactionMetadata: map[string]any{
				"event_id":   stake.EventID,
				"stake_id":   stake.ID,
				"fee_amount": calc.FeeAmount.String(),
			},
			RelatedID:   relatedID,
			RelatedType: relatedType,
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return false, err
		}
	}

	if err := uow.StakeRepository().MarkSettled(ctx, stake.ID, s.now()); err != nil {
		return false, fmt.Errorf("failed to mark stake settled: %w", err)
	}

	uow.EventBus().Publish(events.StakeSettledEvent{
		StakeID:     stake.ID,
		UserID:      stake.UserID,
		EventID:     stake.EventID,
		FinalReward: calc.FinalReward,
		FeeAmount:   calc.FeeAmount,
	})

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// finalize completes the event once no active stake remains and fills in the
// persisted totals
func (s *settlementService) finalize(ctx context.Context, plan *settlementPlan, result *models.SettlementResult) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	event, err := uow.EventRepository().GetForUpdate(ctx, plan.event.ID)
	if err != nil {
		return fmt.Errorf("failed to lock event: %w", err)
	}
	if event == nil {
		return ErrEventNotFound
	}

	stats, err := uow.StakeRepository().GetEventStats(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to get event stats: %w", err)
	}
	completedNow := false
	if stats.ActiveStakes == 0 {
		if event.Status != models.EventStatusCompleted {
			completedNow = true
			if err := uow.EventRepository().MarkSettled(ctx, event.ID, s.now()); err != nil {
				return fmt.Errorf("failed to complete event: %w", err)
			}
		}
		result.EventCompleted = true
	}

	totals, err := uow.RewardCalculationRepository().GetTotalsByEvent(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to get reward totals: %w", err)
	}
	result.TotalRewardsPaid = totals.TotalRewards
	result.TotalFeesCollected = totals.TotalFees
	if len(plan.stakes) == 0 {
		result.AlreadySettled = totals.Count
	}

	// A re-run that changed nothing is not announced again
	if result.ParticipantsSettled > 0 || completedNow {
		uow.EventBus().Publish(events.EventSettledEvent{
			EventID:             event.ID,
			EventTitle:          event.Title,
			ParticipantsSettled: result.ParticipantsSettled,
			TotalRewardsPaid:    result.TotalRewardsPaid,
			TotalFeesCollected:  result.TotalFeesCollected,
			Failures:            len(result.Failures),
			EventCompleted:      result.EventCompleted,
		})
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
