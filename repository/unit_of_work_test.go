package repository

import (
	"context"
	"testing"
	"time"

	"fanpool/events"
	"fanpool/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_CommitFlushesEvents(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()
	received := make(chan events.Event, 1)
	bus.Subscribe(events.EventTypeAccountOpened, func(_ context.Context, e events.Event) {
		received <- e
	})

	uow := NewUnitOfWorkFactory(testDB.DB, bus).Create()
	require.NoError(t, uow.Begin(ctx))
	_, err := uow.UserRepository().Create(ctx, 42, "carol", decimal.NewFromInt(1000))
	require.NoError(t, err)
	uow.EventBus().Publish(events.AccountOpenedEvent{UserID: 42})

	select {
	case <-received:
		t.Fatal("event delivered before commit")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, uow.Commit())
	require.NoError(t, uow.Rollback())

	select {
	case e := <-received:
		assert.Equal(t, events.EventTypeAccountOpened, e.Type())
	case <-time.After(time.Second):
		t.Fatal("event not delivered after commit")
	}

	user, err := NewUserRepository(testDB.DB).GetByID(ctx, 42)
	require.NoError(t, err)
	assert.NotNil(t, user)
}

func TestUnitOfWork_RollbackDiscards(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()
	delivered := false
	bus.SubscribeAll(func(context.Context, events.Event) { delivered = true })

	uow := NewUnitOfWorkFactory(testDB.DB, bus).Create()
	require.NoError(t, uow.Begin(ctx))
	_, err := uow.UserRepository().Create(ctx, 43, "dave", decimal.NewFromInt(1000))
	require.NoError(t, err)
	uow.EventBus().Publish(events.AccountOpenedEvent{UserID: 43})
	require.NoError(t, uow.Rollback())
	require.NoError(t, bus.Wait(ctx))

	assert.False(t, delivered)
	user, err := NewUserRepository(testDB.DB).GetByID(ctx, 43)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUnitOfWork_RequiresBegin(t *testing.T) {
	uow := NewUnitOfWorkFactory(nil, events.NewBus()).Create()

	assert.Panics(t, func() { uow.StakeRepository() })
	assert.Error(t, uow.Commit())
	assert.NoError(t, uow.Rollback())
}
