package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/tunegift/checkout-api/internal/storage"
)

// RedisWindow is the shared-store fixed window for multi-instance
// deployments. Windows are aligned to wall-clock buckets so every instance
// counts against the same key.
type RedisWindow struct {
	redis   *storage.RedisClient
	profile string
	limit   int
	window  time.Duration
}

func NewRedisWindow(redis *storage.RedisClient, profile string, limit int, window time.Duration) *RedisWindow {
	return &RedisWindow{
		redis:   redis,
		profile: profile,
		limit:   limit,
		window:  window,
	}
}

func (r *RedisWindow) Allow(ctx context.Context, key string) (Result, error) {
	currentWindow := time.Now().Unix() / int64(r.window.Seconds())
	redisKey := fmt.Sprintf("ratelimit:%s:%s:%d", r.profile, key, currentWindow)

	count, err := r.redis.Incr(ctx, redisKey)
	if err != nil {
		return Result{}, err
	}

	if count == 1 {
		r.redis.Expire(ctx, redisKey, r.window)
	}

	remaining := r.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	resetAt := time.Unix((currentWindow+1)*int64(r.window.Seconds()), 0)

	return Result{
		Allowed:   count <= int64(r.limit),
		Limit:     r.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

func (r *RedisWindow) Limit() int {
	return r.limit
}

func (r *RedisWindow) Window() time.Duration {
	return r.window
}
