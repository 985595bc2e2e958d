package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const scanLimiterKeyPrefix = "fanpool:ratelimit:"

// Returns {1, 0} when admitted, {0, ms until the oldest entry leaves the window} otherwise
const slidingWindowLua = `
local key = KEYS[1]
local window = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

local count = redis.call('ZCARD', key)
if count < limit then
    redis.call('ZADD', key, now, member)
    redis.call('PEXPIRE', key, window)
    return {1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local retry = window
if oldest[2] then
    retry = tonumber(oldest[2]) + window - now
end
return {0, retry}
`

// RedisScanLimiter is a sliding-window rate limiter over a Redis sorted set.
// The check and the insert run in one script so concurrent scans cannot both
// take the last slot.
type RedisScanLimiter struct {
	rdb    redis.UniversalClient
	script *redis.Script
	now    func() time.Time
}

// NewRedisScanLimiter creates a new limiter
func NewRedisScanLimiter(rdb redis.UniversalClient) *RedisScanLimiter {
	return &RedisScanLimiter{
		rdb:    rdb,
		script: redis.NewScript(slidingWindowLua),
		now:    time.Now,
	}
}

// Allow admits a scan when fewer than limit scans were admitted within window.
// The returned release removes the admitted entry again.
func (l *RedisScanLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (func(), bool, time.Duration, error) {
	fullKey := scanLimiterKeyPrefix + key
	member := uuid.NewString()

	result, err := l.script.Run(ctx, l.rdb, []string{fullKey},
		window.Milliseconds(),
		limit,
		l.now().UnixMilli(),
		member,
	).Int64Slice()
	if err != nil {
		return nil, false, 0, fmt.Errorf("execute sliding window script: %w", err)
	}
	if len(result) != 2 {
		return nil, false, 0, fmt.Errorf("unexpected sliding window result %v", result)
	}

	if result[0] == 1 {
		release := func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()

			if err := l.rdb.ZRem(releaseCtx, fullKey, member).Err(); err != nil {
				log.WithFields(log.Fields{
					"key":   key,
					"error": err,
				}).Error("Failed to release scan slot")
			}
		}
		return release, true, 0, nil
	}
	retryAfter := time.Duration(result[1]) * time.Millisecond
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	return nil, false, retryAfter, nil
}
