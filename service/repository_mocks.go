package service

import (
	"context"
	"time"

	"fanpool/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetForUpdate(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, userID int64, username string, initialBalance decimal.Decimal) (*models.User, error) {
	args := m.Called(ctx, userID, username, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) AddBalance(ctx context.Context, userID int64, amount decimal.Decimal) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

func (m *MockUserRepository) DeductBalance(ctx context.Context, userID int64, amount decimal.Decimal) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

// MockEventRepository is a mock implementation of EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventRepository) GetForShare(ctx context.Context, id int64) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventRepository) GetForUpdate(ctx context.Context, id int64) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventRepository) UpdateStatus(ctx context.Context, id int64, status models.EventStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockEventRepository) SetPoolInjected(ctx context.Context, id int64, amount decimal.Decimal) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockEventRepository) SetResult(ctx context.Context, id int64, winner models.TeamSide, score *models.Score) error {
	args := m.Called(ctx, id, winner, score)
	return args.Error(0)
}

func (m *MockEventRepository) MarkSettled(ctx context.Context, id int64, settledAt time.Time) error {
	args := m.Called(ctx, id, settledAt)
	return args.Error(0)
}

func (m *MockEventRepository) ClaimPartySlot(ctx context.Context, id int64) (int, int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Int(1), args.Error(2)
}

// MockPoolInjectionRepository is a mock implementation of PoolInjectionRepository
type MockPoolInjectionRepository struct {
	mock.Mock
}

func (m *MockPoolInjectionRepository) Create(ctx context.Context, injection *models.PoolInjection) error {
	args := m.Called(ctx, injection)
	return args.Error(0)
}

func (m *MockPoolInjectionRepository) GetLiveByEvent(ctx context.Context, eventID int64) (*models.PoolInjection, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PoolInjection), args.Error(1)
}

func (m *MockPoolInjectionRepository) GetCompletedByEvent(ctx context.Context, eventID int64) (*models.PoolInjection, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PoolInjection), args.Error(1)
}

// MockStakeRepository is a mock implementation of StakeRepository
type MockStakeRepository struct {
	mock.Mock
}

func (m *MockStakeRepository) Create(ctx context.Context, stake *models.Stake) error {
	args := m.Called(ctx, stake)
	return args.Error(0)
}

func (m *MockStakeRepository) GetByID(ctx context.Context, id int64) (*models.Stake, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stake), args.Error(1)
}

func (m *MockStakeRepository) GetForUpdate(ctx context.Context, id int64) (*models.Stake, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stake), args.Error(1)
}

func (m *MockStakeRepository) GetActiveByUserAndEvent(ctx context.Context, userID, eventID int64) (*models.Stake, error) {
	args := m.Called(ctx, userID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stake), args.Error(1)
}

func (m *MockStakeRepository) GetLatestByUserAndEvent(ctx context.Context, userID, eventID int64) (*models.Stake, error) {
	args := m.Called(ctx, userID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stake), args.Error(1)
}

func (m *MockStakeRepository) GetActiveByEvent(ctx context.Context, eventID int64) ([]*models.Stake, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Stake), args.Error(1)
}

func (m *MockStakeRepository) GetEventStats(ctx context.Context, eventID int64) (*models.EventStakeStats, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventStakeStats), args.Error(1)
}

func (m *MockStakeRepository) MarkSettled(ctx context.Context, id int64, settledAt time.Time) error {
	args := m.Called(ctx, id, settledAt)
	return args.Error(0)
}

func (m *MockStakeRepository) MarkCancelled(ctx context.Context, id int64, cancelledAt time.Time) error {
	args := m.Called(ctx, id, cancelledAt)
	return args.Error(0)
}

// MockAccessTokenRepository is a mock implementation of AccessTokenRepository
type MockAccessTokenRepository struct {
	mock.Mock
}

func (m *MockAccessTokenRepository) Create(ctx context.Context, token *models.AccessToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAccessTokenRepository) GetByToken(ctx context.Context, token string) (*models.AccessToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccessToken), args.Error(1)
}

func (m *MockAccessTokenRepository) SetActive(ctx context.Context, id int64, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockAccessTokenRepository) IncrementScanCount(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAccessTokenRepository) IncrementSuccessCount(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockParticipationRepository is a mock implementation of ParticipationRepository
type MockParticipationRepository struct {
	mock.Mock
}

func (m *MockParticipationRepository) Create(ctx context.Context, record *models.ParticipationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockParticipationRepository) GetByUserAndEvent(ctx context.Context, userID, eventID int64) (*models.ParticipationRecord, error) {
	args := m.Called(ctx, userID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ParticipationRecord), args.Error(1)
}

func (m *MockParticipationRepository) GetPerkStats(ctx context.Context, eventID int64) (*models.PerkStats, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PerkStats), args.Error(1)
}

// MockScanLogRepository is a mock implementation of ScanLogRepository
type MockScanLogRepository struct {
	mock.Mock
}

func (m *MockScanLogRepository) Record(ctx context.Context, entry *models.ScanLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockScanLogRepository) CountAdmittedSince(ctx context.Context, userID, tokenID int64, since time.Time) (int, *time.Time, error) {
	args := m.Called(ctx, userID, tokenID, since)
	var oldest *time.Time
	if args.Get(1) != nil {
		oldest = args.Get(1).(*time.Time)
	}
	return args.Int(0), oldest, args.Error(2)
}

// MockRewardCalculationRepository is a mock implementation of RewardCalculationRepository
type MockRewardCalculationRepository struct {
	mock.Mock
}

func (m *MockRewardCalculationRepository) Create(ctx context.Context, calc *models.RewardCalculation) error {
	args := m.Called(ctx, calc)
	return args.Error(0)
}

func (m *MockRewardCalculationRepository) GetByStake(ctx context.Context, stakeID int64) (*models.RewardCalculation, error) {
	args := m.Called(ctx, stakeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RewardCalculation), args.Error(1)
}

func (m *MockRewardCalculationRepository) GetByEvent(ctx context.Context, eventID int64) ([]*models.RewardCalculation, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RewardCalculation), args.Error(1)
}

func (m *MockRewardCalculationRepository) GetTotalsByEvent(ctx context.Context, eventID int64) (*models.RewardTotals, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RewardTotals), args.Error(1)
}
