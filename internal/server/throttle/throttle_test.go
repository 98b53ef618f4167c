package throttle

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabled(t *testing.T) {
	var l Limiter = Disabled{}
	ctx := context.Background()

	locked, err := l.Locked(ctx, "me@example.com")
	require.NoError(t, err)
	assert.False(t, locked)

	for i := 0; i < 100; i++ {
		locked, err = l.Fail(ctx, "me@example.com")
		require.NoError(t, err)
		assert.False(t, locked)
	}
	require.NoError(t, l.Reset(ctx, "me@example.com"))
}

func TestConnect(t *testing.T) {
	c, err := Connect("redis://:secret@localhost:6380/2")
	require.NoError(t, err)
	defer c.Close()

	opts := c.Options()
	assert.Equal(t, "localhost:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	_, err = Connect("http://nope")
	require.Error(t, err)
}

func TestKeys(t *testing.T) {
	l := NewRedisLimiter(nil, 5, time.Minute)
	assert.Equal(t, "portfolio:login:fail:me@example.com", l.failKey("me@example.com"))
	assert.Equal(t, "portfolio:login:lock:me@example.com", l.lockKey("me@example.com"))
}

// unreachableClient points at a port nobody listens on.
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := redis.NewClient(&redis.Options{Addr: addr, DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisLimiter_SurfacesConnectionErrors(t *testing.T) {
	l := NewRedisLimiter(unreachableClient(t), 3, time.Minute)
	ctx := context.Background()

	_, err := l.Locked(ctx, "me@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis:")

	_, err = l.Fail(ctx, "me@example.com")
	require.Error(t, err)

	require.Error(t, l.Reset(ctx, "me@example.com"))
}
