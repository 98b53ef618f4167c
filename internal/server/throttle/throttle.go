// Package throttle counts failed login attempts per identity in Redis and
// locks the identity once a limit is reached within a window.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter guards login attempts. Implementations must be safe for
// concurrent use.
type Limiter interface {
	// Locked reports whether identity may not attempt a login right now.
	Locked(ctx context.Context, identity string) (bool, error)
	// Fail records a failed attempt and reports whether it locked identity.
	Fail(ctx context.Context, identity string) (bool, error)
	// Reset forgets failures after a successful login.
	Reset(ctx context.Context, identity string) error
}

// Disabled never locks anyone.
type Disabled struct{}

func (Disabled) Locked(context.Context, string) (bool, error) { return false, nil }
func (Disabled) Fail(context.Context, string) (bool, error)   { return false, nil }
func (Disabled) Reset(context.Context, string) error          { return nil }

type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	prefix string
}

// NewRedisLimiter locks an identity for window after limit failures
// counted within the same window.
func NewRedisLimiter(client *redis.Client, limit int64, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: "portfolio:login"}
}

// Connect parses a redis:// URL and returns a client for it.
func Connect(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

func (l *RedisLimiter) failKey(identity string) string { return l.prefix + ":fail:" + identity }
func (l *RedisLimiter) lockKey(identity string) string { return l.prefix + ":lock:" + identity }

func (l *RedisLimiter) Locked(ctx context.Context, identity string) (bool, error) {
	_, err := l.client.Get(ctx, l.lockKey(identity)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis: %w", err)
	}
	return true, nil
}

func (l *RedisLimiter) Fail(ctx context.Context, identity string) (bool, error) {
	key := l.failKey(identity)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis: %w", err)
	}

	if incr.Val() < l.limit {
		return false, nil
	}
	if err := l.client.Set(ctx, l.lockKey(identity), "1", l.window).Err(); err != nil {
		return false, fmt.Errorf("redis: %w", err)
	}
	return true, nil
}

func (l *RedisLimiter) Reset(ctx context.Context, identity string) error {
	if err := l.client.Del(ctx, l.failKey(identity), l.lockKey(identity)).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}
