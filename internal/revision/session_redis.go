package revision

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "revision:session:"

// DefaultSessionTTL bounds how long a pending revision waits for the
// follow-up message before it ages out.
const DefaultSessionTTL = 24 * time.Hour

// RedisTracker stores sessions in Redis so they survive process restarts.
// Each binding carries a TTL; a stale session simply expires.
type RedisTracker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisTracker(rdb *redis.Client, ttl time.Duration) *RedisTracker {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisTracker{rdb: rdb, ttl: ttl}
}

func (t *RedisTracker) Set(ctx context.Context, conversationID, callID string) error {
	return t.rdb.Set(ctx, sessionKeyPrefix+conversationID, callID, t.ttl).Err()
}

func (t *RedisTracker) Get(ctx context.Context, conversationID string) (string, bool, error) {
	callID, err := t.rdb.Get(ctx, sessionKeyPrefix+conversationID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return callID, true, nil
}

func (t *RedisTracker) Clear(ctx context.Context, conversationID string) error {
	return t.rdb.Del(ctx, sessionKeyPrefix+conversationID).Err()
}
