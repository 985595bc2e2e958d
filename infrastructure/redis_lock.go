package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const lockKeyPrefix = "fanpool:lock:"

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
else
    return 0
end
`)

// RedisLocker hands out non-blocking distributed locks. Each lock holds a
// random owner value so only the holder can release it, and expires after ttl
// if the holder dies.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisLocker creates a new Redis locker
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl}
}

// TryLock acquires key without waiting
func (l *RedisLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	fullKey := lockKeyPrefix + key
	owner := uuid.New().String()

	ok, err := l.client.SetNX(ctx, fullKey, owner, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func() {
		// Release even when the caller's context is already cancelled
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		released, err := releaseLockScript.Run(releaseCtx, l.client, []string{fullKey}, owner).Int64()
		if err != nil {
			log.WithFields(log.Fields{
				"key":   key,
				"error": err,
			}).Error("Failed to release lock")
			return
		}
		if released == 0 {
			log.WithField("key", key).Warn("Lock expired before release")
		}
	}
	return unlock, true, nil
}
