package repository

import (
	"context"
	"testing"
	"time"

	"fanpool/database"
	"fanpool/models"
	"fanpool/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// seedUser opens an account with the given balance
func seedUser(t *testing.T, db *database.DB, userID int64, balance string) *models.User {
	t.Helper()
	user, err := NewUserRepository(db).Create(context.Background(), userID, "user", decimal.RequireFromString(balance))
	require.NoError(t, err)
	return user
}

// seedEvent inserts an approved event starting an hour from now
func seedEvent(t *testing.T, db *database.DB) *models.Event {
	t.Helper()
	event := testutil.CreateTestEvent("Derby", time.Now().Add(time.Hour))
	require.NoError(t, NewEventRepository(db).Create(context.Background(), event))
	return event
}
