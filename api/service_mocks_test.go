package api

import (
	"context"

	"fanpool/models"
	"fanpool/service"

	"github.com/stretchr/testify/mock"
)

type MockStakeService struct {
	mock.Mock
}

func (m *MockStakeService) CreateStake(ctx context.Context, req service.CreateStakeRequest) (*models.Stake, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stake), args.Error(1)
}

func (m *MockStakeService) CancelStake(ctx context.Context, userID, eventID int64) (*models.Stake, error) {
	args := m.Called(ctx, userID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stake), args.Error(1)
}

func (m *MockStakeService) GetStakeStatus(ctx context.Context, userID, eventID int64) (*service.StakeStatus, error) {
	args := m.Called(ctx, userID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StakeStatus), args.Error(1)
}

type MockParticipationService struct {
	mock.Mock
}

func (m *MockParticipationService) Scan(ctx context.Context, req service.ScanRequest) (*service.ScanResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ScanResult), args.Error(1)
}

func (m *MockParticipationService) GetTokenInfo(ctx context.Context, token string, userID *int64) (*service.TokenInfo, error) {
	args := m.Called(ctx, token, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenInfo), args.Error(1)
}

func (m *MockParticipationService) IssueToken(ctx context.Context, req service.IssueTokenRequest) (*models.AccessToken, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccessToken), args.Error(1)
}

func (m *MockParticipationService) DeactivateToken(ctx context.Context, token string) (*models.AccessToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccessToken), args.Error(1)
}

type MockPoolService struct {
	mock.Mock
}

func (m *MockPoolService) InjectPool(ctx context.Context, req service.InjectPoolRequest) (*service.InjectPoolResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InjectPoolResult), args.Error(1)
}

func (m *MockPoolService) GetActivePool(ctx context.Context, eventID int64) (*models.PoolInjection, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PoolInjection), args.Error(1)
}

type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) Settle(ctx context.Context, eventID int64) (*models.SettlementResult, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementResult), args.Error(1)
}

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) GetOrCreateAccount(ctx context.Context, userID int64, username string) (*models.User, error) {
	args := m.Called(ctx, userID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAccountService) GetAccount(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAccountService) GetHistory(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) RegisterEvent(ctx context.Context, req service.RegisterEventRequest) (*models.Event, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventService) ApproveEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventService) ReportResult(ctx context.Context, eventID int64, winner models.TeamSide, score *models.Score) (*models.Event, error) {
	args := m.Called(ctx, eventID, winner, score)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventService) GetEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}
