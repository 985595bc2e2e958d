package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fanpool/models"
	"fanpool/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testServices struct {
	stakes        *MockStakeService
	participation *MockParticipationService
	pools         *MockPoolService
	settlement    *MockSettlementService
	accounts      *MockAccountService
	events        *MockEventService
}

func setupRouter() (*gin.Engine, *testServices) {
	gin.SetMode(gin.TestMode)
	mocks := &testServices{
		stakes:        new(MockStakeService),
		participation: new(MockParticipationService),
		pools:         new(MockPoolService),
		settlement:    new(MockSettlementService),
		accounts:      new(MockAccountService),
		events:        new(MockEventService),
	}
	h := NewHandler(Services{
		Accounts:      mocks.accounts,
		Events:        mocks.events,
		Pools:         mocks.pools,
		Stakes:        mocks.stakes,
		Participation: mocks.participation,
		Settlement:    mocks.settlement,
	})
	return NewRouter(h, nil), mocks
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *ErrorBody {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestCreateStake_Success(t *testing.T) {
	router, mocks := setupRouter()

	created := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	mocks.stakes.On("CreateStake", mock.Anything, mock.MatchedBy(func(req service.CreateStakeRequest) bool {
		return req.UserID == 10 && req.EventID == 1 && req.Amount.Equal(decimal.RequireFromString("100.50")) &&
			req.Tier == 2 && req.TeamChoice == models.TeamHome
	})).Return(&models.Stake{
		ID:         7,
		EventID:    1,
		Amount:     decimal.RequireFromString("100.50"),
		Tier:       2,
		TeamChoice: models.TeamHome,
		Status:     models.StakeStatusActive,
		CreatedAt:  created,
	}, nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/stakes", map[string]any{
		"user_id":     10,
		"event_id":    1,
		"amount":      "100.50",
		"tier":        2,
		"team_choice": "home",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Data stakeResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.Data.StakeID)
	assert.Equal(t, "100.50", resp.Data.Amount)
	assert.True(t, created.Equal(resp.Data.CreatedAt))
	mocks.stakes.AssertExpectations(t)
}

func TestCreateStake_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"insufficient balance", service.ErrInsufficientBalance.WithDetail("current_balance", "50.00"), http.StatusUnprocessableEntity, "InsufficientBalance"},
		{"duplicate", service.ErrDuplicateStake, http.StatusConflict, "DuplicateStake"},
		{"validation", service.ErrInvalidTier, http.StatusBadRequest, "InvalidTier"},
		{"not found", service.ErrEventNotFound, http.StatusNotFound, "EventNotFound"},
		{"dependency", errors.New("connection refused"), http.StatusServiceUnavailable, "DependencyUnavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, mocks := setupRouter()
			mocks.stakes.On("CreateStake", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := doJSON(t, router, http.MethodPost, "/api/v1/stakes", map[string]any{
				"user_id": 10, "event_id": 1, "amount": "100", "tier": 1, "team_choice": "home",
			})

			assert.Equal(t, tt.status, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.code, body.Code)
			assert.NotContains(t, body.Message, "connection refused")
		})
	}
}

func TestCreateStake_InsufficientBalanceDetails(t *testing.T) {
	router, mocks := setupRouter()
	mocks.stakes.On("CreateStake", mock.Anything, mock.Anything).Return(nil,
		service.ErrInsufficientBalance.
			WithDetail("current_balance", "50.00").
			WithDetail("required_amount", "100.00"))

	w := doJSON(t, router, http.MethodPost, "/api/v1/stakes", map[string]any{
		"user_id": 10, "event_id": 1, "amount": "100", "tier": 1, "team_choice": "home",
	})

	body := decodeError(t, w)
	assert.Equal(t, service.KindPrecondition, body.Kind)
	assert.Equal(t, "50.00", body.Details["current_balance"])
	assert.Equal(t, "100.00", body.Details["required_amount"])
}

func TestCreateStake_MalformedBody(t *testing.T) {
	router, mocks := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stakes", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mocks.stakes.AssertNotCalled(t, "CreateStake", mock.Anything, mock.Anything)
}

func TestScan_RateLimited(t *testing.T) {
	router, mocks := setupRouter()
	mocks.participation.On("Scan", mock.Anything, mock.Anything).
		Return(nil, service.ErrRateLimited.WithRetryAfter(90*time.Second+300*time.Millisecond))

	w := doJSON(t, router, http.MethodPost, "/api/v1/scans", map[string]any{
		"user_id": 5, "token": "abc", "participation_type": "watch_only",
	})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "91", w.Header().Get("Retry-After"))
	body := decodeError(t, w)
	assert.Equal(t, "RateLimited", body.Code)
	assert.Equal(t, 91, body.RetryAfter)
}

func TestScan_Results(t *testing.T) {
	t.Run("new participation", func(t *testing.T) {
		router, mocks := setupRouter()
		mocks.participation.On("Scan", mock.Anything, mock.MatchedBy(func(req service.ScanRequest) bool {
			return req.UserID == 5 && req.ParticipationType == models.ParticipationWatchAndParty &&
				req.ClientMetadata.DeviceID == "dev-1" && req.ClientMetadata.IPAddress != ""
		})).Return(&service.ScanResult{
			ParticipationID: 3,
			Tier:            3,
			PerkStatus:      models.PerkStatusAllocated,
			PerkDetail:      "party admission confirmed",
		}, nil)

		w := doJSON(t, router, http.MethodPost, "/api/v1/scans", map[string]any{
			"user_id":            5,
			"token":              "abc",
			"participation_type": "watch_and_party",
			"client_metadata":    map[string]string{"device_id": "dev-1"},
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"perk_status":"allocated"`)
		mocks.participation.AssertExpectations(t)
	})

	t.Run("already participated", func(t *testing.T) {
		router, mocks := setupRouter()
		mocks.participation.On("Scan", mock.Anything, mock.Anything).Return(&service.ScanResult{
			ParticipationID:     3,
			AlreadyParticipated: true,
		}, nil)

		w := doJSON(t, router, http.MethodPost, "/api/v1/scans", map[string]any{
			"user_id": 5, "token": "abc", "participation_type": "watch_only",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"already_participated":true`)
	})
}

func TestGetTokenInfo(t *testing.T) {
	router, mocks := setupRouter()
	userID := int64(5)
	mocks.participation.On("GetTokenInfo", mock.Anything, "abc", &userID).
		Return(&service.TokenInfo{Token: "abc", State: models.TokenStateActive}, nil)

	w := doJSON(t, router, http.MethodGet, "/api/v1/tokens/abc?user_id=5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"active"`)

	w = doJSON(t, router, http.MethodGet, "/api/v1/tokens/abc?user_id=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStakeStatusAndCancel(t *testing.T) {
	router, mocks := setupRouter()
	potential := decimal.RequireFromString("213.75")
	mocks.stakes.On("GetStakeStatus", mock.Anything, int64(20), int64(1)).Return(&service.StakeStatus{
		HasStaked:       true,
		PotentialReward: &potential,
	}, nil)
	mocks.stakes.On("CancelStake", mock.Anything, int64(20), int64(1)).Return(nil, service.ErrStakeNotCancellable)

	w := doJSON(t, router, http.MethodGet, "/api/v1/events/1/stakes/20", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"has_staked":true`)
	assert.Contains(t, w.Body.String(), `"213.75"`)

	w = doJSON(t, router, http.MethodDelete, "/api/v1/events/1/stakes/20", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/events/abc/stakes/20", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInjectPool(t *testing.T) {
	router, mocks := setupRouter()
	mocks.pools.On("InjectPool", mock.Anything, mock.MatchedBy(func(req service.InjectPoolRequest) bool {
		return req.ApplicationID == 1 && req.AdminID == 99 &&
			req.Amount.Equal(decimal.NewFromInt(1000)) &&
			req.FeePercentages.Distribution.Equal(decimal.NewFromInt(5)) &&
			req.TierMultipliers == nil
	})).Return(&service.InjectPoolResult{
		InjectionID:          4,
		NewApplicationStatus: models.EventStatusPreMatch,
	}, nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/admin/pools", map[string]any{
		"application_id":  1,
		"admin_id":        99,
		"amount":          "1000",
		"fee_percentages": map[string]string{"staking": "0", "withdrawal": "0", "distribution": "5"},
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"new_application_status":"pre_match"`)
	mocks.pools.AssertExpectations(t)

	t.Run("fee ceiling", func(t *testing.T) {
		router, mocks := setupRouter()
		mocks.pools.On("InjectPool", mock.Anything, mock.Anything).Return(nil,
			service.ErrFeeCeilingExceeded.WithDetail("fee_sum", "25.00").WithDetail("fee_ceiling", "20.00"))

		w := doJSON(t, router, http.MethodPost, "/api/v1/admin/pools", map[string]any{
			"application_id": 1, "admin_id": 99, "amount": "1000",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "25.00", decodeError(t, w).Details["fee_sum"])
	})
}

func TestSettle(t *testing.T) {
	router, mocks := setupRouter()
	mocks.settlement.On("Settle", mock.Anything, int64(1)).Return(&models.SettlementResult{
		EventID:             1,
		ParticipantsSettled: 2,
		TotalRewardsPaid:    decimal.RequireFromString("451.25"),
		TotalFeesCollected:  decimal.RequireFromString("23.75"),
		EventCompleted:      true,
	}, nil)
	mocks.settlement.On("Settle", mock.Anything, int64(2)).Return(nil, service.ErrSettlementInProgress)

	w := doJSON(t, router, http.MethodPost, "/api/v1/admin/events/1/settle", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"participants_settled":2`)
	assert.Contains(t, w.Body.String(), `"451.25"`)

	w = doJSON(t, router, http.MethodPost, "/api/v1/admin/events/2/settle", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAccounts(t *testing.T) {
	router, mocks := setupRouter()
	mocks.accounts.On("GetOrCreateAccount", mock.Anything, int64(5), "erin").
		Return(&models.User{ID: 5, Username: "erin", Balance: decimal.NewFromInt(1000)}, nil)
	mocks.accounts.On("GetAccount", mock.Anything, int64(6)).Return(nil, service.ErrAccountNotFound)
	mocks.accounts.On("GetHistory", mock.Anything, int64(5), 10).Return([]*models.BalanceHistory{}, nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/accounts", map[string]any{"user_id": 5, "username": "erin"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/accounts/6", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/accounts/5/history?limit=10", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/accounts/5/history?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mocks.accounts.AssertExpectations(t)
}

func TestEventAdmin(t *testing.T) {
	router, mocks := setupRouter()
	start := time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC)
	mocks.events.On("RegisterEvent", mock.Anything, mock.MatchedBy(func(req service.RegisterEventRequest) bool {
		return req.Title == "Derby" && req.PartyCapacity == 10 && req.StartTime.Equal(start)
	})).Return(&models.Event{ID: 1, Title: "Derby", Status: models.EventStatusScheduled}, nil)
	mocks.events.On("ApproveEvent", mock.Anything, int64(1)).Return(nil, service.ErrInvalidStatusTransition)
	mocks.events.On("ReportResult", mock.Anything, int64(1), models.TeamAway, &models.Score{Home: 1, Away: 2}).
		Return(&models.Event{ID: 1, Status: models.EventStatusLive}, nil)
	mocks.participation.On("IssueToken", mock.Anything, mock.MatchedBy(func(req service.IssueTokenRequest) bool {
		return req.EventID == 1 && req.MaxScansPerHour == 3
	})).Return(&models.AccessToken{ID: 2, Token: "tok"}, nil)
	mocks.participation.On("DeactivateToken", mock.Anything, "tok").Return(&models.AccessToken{ID: 2, Token: "tok"}, nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/admin/events", map[string]any{
		"title":          "Derby",
		"home_team":      map[string]string{"code": "HOM", "name": "Home"},
		"away_team":      map[string]string{"code": "AWY", "name": "Away"},
		"start_time":     start,
		"end_time":       start.Add(2 * time.Hour),
		"party_capacity": 10,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/admin/events/1/approve", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/admin/events/1/result", map[string]any{
		"winning_team": "away",
		"score":        map[string]int{"home": 1, "away": 2},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/admin/events/1/tokens", map[string]any{
		"valid_from":         start,
		"valid_until":        start.Add(time.Hour),
		"max_scans_per_hour": 3,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/admin/tokens/tok/deactivate", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	mocks.events.AssertExpectations(t)
	mocks.participation.AssertExpectations(t)
}

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	healthy := NewRouter(NewHandler(Services{}), nil)
	w := doJSON(t, healthy, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	unhealthy := NewRouter(NewHandler(Services{}), func(context.Context) error { return errors.New("db down") })
	w = doJSON(t, unhealthy, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
