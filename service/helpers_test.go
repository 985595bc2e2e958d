package service

import (
	"testing"
	"time"

	"fanpool/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// serviceMocks wires every repository mock into one unit of work
type serviceMocks struct {
	uow            *MockUnitOfWork
	factory        *MockUnitOfWorkFactory
	users          *MockUserRepository
	history        *MockBalanceHistoryRepository
	events         *MockEventRepository
	pools          *MockPoolInjectionRepository
	stakes         *MockStakeRepository
	tokens         *MockAccessTokenRepository
	participations *MockParticipationRepository
	scanLogs       *MockScanLogRepository
	rewards        *MockRewardCalculationRepository
	bus            *MockEventPublisher
}

func newServiceMocks() *serviceMocks {
	m := &serviceMocks{
		uow:            new(MockUnitOfWork),
		factory:        new(MockUnitOfWorkFactory),
		users:          new(MockUserRepository),
		history:        new(MockBalanceHistoryRepository),
		events:         new(MockEventRepository),
		pools:          new(MockPoolInjectionRepository),
		stakes:         new(MockStakeRepository),
		tokens:         new(MockAccessTokenRepository),
		participations: new(MockParticipationRepository),
		scanLogs:       new(MockScanLogRepository),
		rewards:        new(MockRewardCalculationRepository),
		bus:            new(MockEventPublisher),
	}
	m.uow.SetUserRepository(m.users)
	m.uow.SetBalanceHistoryRepository(m.history)
	m.uow.SetEventRepository(m.events)
	m.uow.SetPoolInjectionRepository(m.pools)
	m.uow.SetStakeRepository(m.stakes)
	m.uow.SetAccessTokenRepository(m.tokens)
	m.uow.SetParticipationRepository(m.participations)
	m.uow.SetScanLogRepository(m.scanLogs)
	m.uow.SetRewardCalculationRepository(m.rewards)
	m.uow.SetEventBus(m.bus)

	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", mock.Anything).Return(nil)
	m.uow.On("Rollback").Return(nil)
	return m
}

func (m *serviceMocks) expectCommit() {
	m.uow.On("Commit").Return(nil)
}

func (m *serviceMocks) assertExpectations(t *testing.T) {
	t.Helper()
	m.uow.AssertExpectations(t)
	m.users.AssertExpectations(t)
	m.history.AssertExpectations(t)
	m.events.AssertExpectations(t)
	m.pools.AssertExpectations(t)
	m.stakes.AssertExpectations(t)
	m.tokens.AssertExpectations(t)
	m.participations.AssertExpectations(t)
	m.scanLogs.AssertExpectations(t)
	m.rewards.AssertExpectations(t)
	m.bus.AssertExpectations(t)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// decimalEq matches a decimal argument by value rather than by representation
func decimalEq(expected string) interface{} {
	want := dec(expected)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func defaultMultipliers() models.TierMultipliers {
	return models.TierMultipliers{Tier1: dec("1.0"), Tier2: dec("0.7"), Tier3: dec("0.3")}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testEvent(id int64, status models.EventStatus, start time.Time) *models.Event {
	return &models.Event{
		ID:        id,
		Title:     "Campus Derby",
		HomeTeam:  models.Team{Code: "LIONS", Name: "Lions"},
		AwayTeam:  models.Team{Code: "HAWKS", Name: "Hawks"},
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
		Status:    status,
	}
}
