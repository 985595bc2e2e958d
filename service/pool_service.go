package service

import (
	"context"
	"fmt"

	"fanpool/events"
	"fanpool/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// InjectPoolRequest funds the reward pool of an approved application.
// The application ID is the ID of the approved event.
type InjectPoolRequest struct {
	ApplicationID   int64
	AdminID         int64
	Amount          decimal.Decimal
	Currency        string
	FeePercentages  models.FeePercentages
	TierMultipliers *models.TierMultipliers
}

// InjectPoolResult is the outcome of a pool injection
type InjectPoolResult struct {
	InjectionID          int64
	NewApplicationStatus models.EventStatus
	Injection            *models.PoolInjection
}

// PoolConfig holds the registry settings
type PoolConfig struct {
	FeeCeilingPercent      decimal.Decimal
	DefaultCurrency        string
	DefaultTierMultipliers models.TierMultipliers
}

type poolService struct {
	uowFactory UnitOfWorkFactory
	config     PoolConfig
}

// NewPoolService creates a new pool & fee registry service
func NewPoolService(uowFactory UnitOfWorkFactory, config PoolConfig) PoolService {
	return &poolService{
		uowFactory: uowFactory,
		config:     config,
	}
}

// InjectPool records a completed injection and moves the event to pre_match
func (s *poolService) InjectPool(ctx context.Context, req InjectPoolRequest) (*InjectPoolResult, error) {
	if err := validateMoney(req.Amount); err != nil {
		return nil, err
	}
	fees := req.FeePercentages
	for name, pct := range map[string]decimal.Decimal{
		"staking":      fees.Staking,
		"withdrawal":   fees.Withdrawal,
		"distribution": fees.Distribution,
	} {
		if pct.IsNegative() {
			return nil, ErrInvalidFee.WithDetail("fee", name)
		}
		if !models.WithinScale(pct, models.FeePercentScale) {
			return nil, ErrInvalidFee.
				WithMessagef("fee percentages must have at most %d decimal places", models.FeePercentScale).
				WithDetail("fee", name)
		}
	}

	multipliers := s.config.DefaultTierMultipliers
	if req.TierMultipliers != nil && !req.TierMultipliers.IsZero() {
		multipliers = *req.TierMultipliers
	}
	if err := validateTierMultipliers(multipliers); err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = s.config.DefaultCurrency
	}

	if feeSum := fees.Sum(); feeSum.GreaterThan(s.config.FeeCeilingPercent) {
		return nil, ErrFeeCeilingExceeded.
			WithMessagef("combined fee %s%% exceeds the %s%% ceiling", feeSum.String(), s.config.FeeCeilingPercent.String()).
			WithDetail("fee_sum", feeSum.String()).
			WithDetail("fee_ceiling", s.config.FeeCeilingPercent.String())
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	event, err := uow.EventRepository().GetForUpdate(ctx, req.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	existing, err := uow.PoolInjectionRepository().GetLiveByEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing injection: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyInjected.WithDetail("injection_id", fmt.Sprintf("%d", existing.ID))
	}

	if event.Status != models.EventStatusApproved {
		return nil, ErrNotApproved.
			WithMessagef("application is %s, not approved", event.Status).
			WithDetail("status", string(event.Status))
	}

	injection := &models.PoolInjection{
		EventID:         event.ID,
		AdminID:         req.AdminID,
		Amount:          req.Amount,
		Currency:        currency,
		FeePercentages:  fees,
		TierMultipliers: multipliers,
		Status:          models.PoolInjectionStatusCompleted,
	}
	if err := uow.PoolInjectionRepository().Create(ctx, injection); err != nil {
		return nil, fmt.Errorf("failed to create pool injection: %w", err)
	}

	if err := uow.EventRepository().SetPoolInjected(ctx, event.ID, req.Amount); err != nil {
		return nil, fmt.Errorf("failed to record pool amount: %w", err)
	}
	if err := uow.EventRepository().UpdateStatus(ctx, event.ID, models.EventStatusPreMatch); err != nil {
		return nil, fmt.Errorf("failed to advance event status: %w", err)
	}

	uow.EventBus().Publish(events.PoolInjectedEvent{
		InjectionID: injection.ID,
		EventID:     event.ID,
		EventTitle:  event.Title,
		AdminID:     req.AdminID,
		Amount:      req.Amount,
		Currency:    currency,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"eventID":     event.ID,
		"injectionID": injection.ID,
		"amount":      req.Amount.StringFixed(2),
		"adminID":     req.AdminID,
	}).Info("Pool injected")

	return &InjectPoolResult{
		InjectionID:          injection.ID,
		NewApplicationStatus: models.EventStatusPreMatch,
		Injection:            injection,
	}, nil
}

// GetActivePool returns the completed injection of an event
func (s *poolService) GetActivePool(ctx context.Context, eventID int64) (*models.PoolInjection, error) {
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

	injection, err := uow.PoolInjectionRepository().GetCompletedByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool injection: %w", err)
	}
	if injection == nil {
		return nil, ErrNoPoolFound
	}
	return injection, nil
}

func validateTierMultipliers(m models.TierMultipliers) error {
	one := decimal.NewFromInt(1)
	for tier := 1; tier <= 3; tier++ {
		v, _ := m.ForTier(tier)
		if !v.IsPositive() || v.GreaterThan(one) {
			return ErrInvalidTierMultiplier.WithDetail("tier", fmt.Sprintf("%d", tier))
		}
		if !models.WithinScale(v, models.TierMultiplierScale) {
			return ErrInvalidTierMultiplier.
				WithMessagef("tier multipliers must have at most %d decimal places", models.TierMultiplierScale).
				WithDetail("tier", fmt.Sprintf("%d", tier))
		}
	}
	return nil
}
