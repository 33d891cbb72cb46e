package ratelimit

import (
	"github.com/tunegift/checkout-api/internal/storage"
)

// NewLimiter builds a limiter for one profile. The redis backend is used
// only when asked for and a client is available; everything else falls back
// to the in-process window.
func NewLimiter(backend string, redis *storage.RedisClient, profile Profile) Limiter {
	switch backend {
	case "redis":
		if redis != nil {
			return NewRedisWindow(redis, profile.Name, profile.Max, profile.Window)
		}
		fallthrough
	default:
		m := NewMemoryWindow(profile.Max, profile.Window)
		m.StartSweeper()
		return m
	}
}
