package service

import (
	"context"
	"time"

	"fanpool/events"

	"github.com/stretchr/testify/mock"
)

// MockUnitOfWork is a mock implementation of UnitOfWork. Begin, Commit and
// Rollback are recorded on the mock; repository getters return the fields set
// through the setters.
type MockUnitOfWork struct {
	mock.Mock

	userRepo              UserRepository
	balanceHistoryRepo    BalanceHistoryRepository
	eventRepo             EventRepository
	poolInjectionRepo     PoolInjectionRepository
	stakeRepo             StakeRepository
	accessTokenRepo       AccessTokenRepository
	participationRepo     ParticipationRepository
	scanLogRepo           ScanLogRepository
	rewardCalculationRepo RewardCalculationRepository
	eventBus              EventPublisher
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository { return m.userRepo }
func (m *MockUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository {
	return m.balanceHistoryRepo
}
func (m *MockUnitOfWork) EventRepository() EventRepository { return m.eventRepo }
func (m *MockUnitOfWork) PoolInjectionRepository() PoolInjectionRepository {
	return m.poolInjectionRepo
}
func (m *MockUnitOfWork) StakeRepository() StakeRepository { return m.stakeRepo }
func (m *MockUnitOfWork) AccessTokenRepository() AccessTokenRepository {
	return m.accessTokenRepo
}
func (m *MockUnitOfWork) ParticipationRepository() ParticipationRepository {
	return m.participationRepo
}
func (m *MockUnitOfWork) ScanLogRepository() ScanLogRepository { return m.scanLogRepo }
func (m *MockUnitOfWork) RewardCalculationRepository() RewardCalculationRepository {
	return m.rewardCalculationRepo
}
func (m *MockUnitOfWork) EventBus() EventPublisher { return m.eventBus }

// Setters used by tests to wire repositories into the unit of work

func (m *MockUnitOfWork) SetUserRepository(repo UserRepository) { m.userRepo = repo }
func (m *MockUnitOfWork) SetBalanceHistoryRepository(repo BalanceHistoryRepository) {
	m.balanceHistoryRepo = repo
}
func (m *MockUnitOfWork) SetEventRepository(repo EventRepository) { m.eventRepo = repo }
func (m *MockUnitOfWork) SetPoolInjectionRepository(repo PoolInjectionRepository) {
	m.poolInjectionRepo = repo
}
func (m *MockUnitOfWork) SetStakeRepository(repo StakeRepository) { m.stakeRepo = repo }
func (m *MockUnitOfWork) SetAccessTokenRepository(repo AccessTokenRepository) {
	m.accessTokenRepo = repo
}
func (m *MockUnitOfWork) SetParticipationRepository(repo ParticipationRepository) {
	m.participationRepo = repo
}
func (m *MockUnitOfWork) SetScanLogRepository(repo ScanLogRepository) { m.scanLogRepo = repo }
func (m *MockUnitOfWork) SetRewardCalculationRepository(repo RewardCalculationRepository) {
	m.rewardCalculationRepo = repo
}
func (m *MockUnitOfWork) SetEventBus(bus EventPublisher) { m.eventBus = bus }

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockScanLimiter is a mock implementation of ScanLimiter
type MockScanLimiter struct {
	mock.Mock
}

func (m *MockScanLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (func(), bool, time.Duration, error) {
	args := m.Called(ctx, key, limit, window)
	release, _ := args.Get(0).(func())
	return release, args.Bool(1), args.Get(2).(time.Duration), args.Error(3)
}

// MockLocker is a mock implementation of Locker
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	args := m.Called(ctx, key)
	unlock, _ := args.Get(0).(func())
	return unlock, args.Bool(1), args.Error(2)
}
