package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_TryLock(t *testing.T) {
	mr, rdb := setupRedis(t)
	locker := NewRedisLocker(rdb, time.Minute)
	ctx := context.Background()

	unlock, ok, err := locker.TryLock(ctx, "settlement:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists(lockKeyPrefix+"settlement:1"))

	_, ok, err = locker.TryLock(ctx, "settlement:1")
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused")

	_, ok, err = locker.TryLock(ctx, "settlement:2")
	require.NoError(t, err)
	assert.True(t, ok)

	unlock()
	assert.False(t, mr.Exists(lockKeyPrefix+"settlement:1"))

	_, ok, err = locker.TryLock(ctx, "settlement:1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLocker_ExpiredLockIsNotStolenBack(t *testing.T) {
	mr, rdb := setupRedis(t)
	locker := NewRedisLocker(rdb, time.Second)
	ctx := context.Background()

	unlock, ok, err := locker.TryLock(ctx, "settlement:7")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok, err = locker.TryLock(ctx, "settlement:7")
	require.NoError(t, err)
	require.True(t, ok)

	// the first holder's release must not delete the new holder's lock
	unlock()
	assert.True(t, mr.Exists(lockKeyPrefix+"settlement:7"))
}

func TestRedisLocker_RedisDown(t *testing.T) {
	mr, rdb := setupRedis(t)
	locker := NewRedisLocker(rdb, time.Minute)
	mr.Close()

	_, ok, err := locker.TryLock(context.Background(), "settlement:1")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestLocalLocker_TryLock(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	unlock, ok, err := locker.TryLock(ctx, "settlement:1")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.TryLock(ctx, "settlement:1")
	require.NoError(t, err)
	assert.False(t, ok)

	unlock()
	unlock() // second call is a no-op

	again, ok, err := locker.TryLock(ctx, "settlement:1")
	require.NoError(t, err)
	assert.True(t, ok)
	again()

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, ok, err := locker.TryLock(cancelled, "settlement:2")
		assert.Error(t, err)
		assert.False(t, ok)
	})
}
