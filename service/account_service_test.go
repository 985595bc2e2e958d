package service

import (
	"context"
	"testing"

	"fanpool/events"
	"fanpool/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAccountService_GetOrCreateAccount_Existing(t *testing.T) {
	ctx := context.Background()
	m := newServiceMocks()
	svc := NewAccountService(m.factory, dec("1000"))

	existing := &models.User{ID: 42, Username: "casey", Balance: dec("12.50")}
	m.users.On("GetByID", ctx, int64(42)).Return(existing, nil)

	user, err := svc.GetOrCreateAccount(ctx, 42, "casey")

	require.NoError(t, err)
	assert.Same(t, existing, user)
	m.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestAccountService_GetOrCreateAccount_OpensWithStartingBalance(t *testing.T) {
	ctx := context.Background()
	m := newServiceMocks()
	m.expectCommit()
	svc := NewAccountService(m.factory, dec("1000"))

	m.users.On("GetByID", ctx, int64(42)).Return(nil, nil)
	m.users.On("Create", ctx, int64(42), "casey", decimalEq("1000")).
		Return(&models.User{ID: 42, Username: "casey", Balance: dec("1000")}, nil)
	m.history.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.TransactionType == models.TransactionTypeInitial &&
			h.BalanceBefore.IsZero() && h.BalanceAfter.Equal(dec("1000"))
	})).Return(nil)
	m.bus.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return()
	m.bus.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		opened, ok := e.(events.AccountOpenedEvent)
		return ok && opened.Username == "casey"
	})).Return()

	user, err := svc.GetOrCreateAccount(ctx, 42, "casey")

	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(dec("1000")))
	m.assertExpectations(t)
}

func TestAccountService_GetOrCreateAccount_InvalidID(t *testing.T) {
	m := newServiceMocks()
	svc := NewAccountService(m.factory, dec("1000"))

	_, err := svc.GetOrCreateAccount(context.Background(), 0, "nobody")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestAccountService_GetHistory_ClampsLimit(t *testing.T) {
	ctx := context.Background()
	m := newServiceMocks()
	svc := NewAccountService(m.factory, dec("1000"))

	m.users.On("GetByID", ctx, int64(42)).Return(&models.User{ID: 42}, nil)
	m.history.On("GetByUser", ctx, int64(42), defaultHistoryLimit).Return([]*models.BalanceHistory{}, nil)

	history, err := svc.GetHistory(ctx, 42, 10000)

	require.NoError(t, err)
	assert.Empty(t, history)
	m.assertExpectations(t)
}

func TestAccountService_GetAccount_NotFound(t *testing.T) {
	ctx := context.Background()
	m := newServiceMocks()
	svc := NewAccountService(m.factory, dec("1000"))

	m.users.On("GetByID", ctx, int64(42)).Return(nil, nil)

	_, err := svc.GetAccount(ctx, 42)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	m.assertExpectations(t)
}
