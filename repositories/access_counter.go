package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisAccessCounter struct {
	redis *redis.Client
}

func NewRedisAccessCounter(redisClient *redis.Client) *RedisAccessCounter {
	return &RedisAccessCounter{redis: redisClient}
}

func accessCounterKey(key string, window time.Duration, now time.Time) string {
	bucket := now.UnixNano() / int64(window)
	return fmt.Sprintf("ratelimit:%s:%d", key, bucket)
}

// Hit increments the counter for key in the current fixed window and returns
// the new count. The window key expires on its own.
func (r *RedisAccessCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := accessCounterKey(key, window, time.Now())

	pipe := r.redis.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
