package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFormat(t *testing.T) {
	assert.Equal(t, "login:fail:alice@example.com", key("alice@example.com"))
}

func TestNewLoginLimiter_Defaults(t *testing.T) {
	l := NewLoginLimiter(nil, LimiterConfig{}, zerolog.Nop())
	assert.Equal(t, int64(defaultMaxAttempts), l.maxAttempts)
	assert.Equal(t, defaultWindow, l.window)
	assert.Equal(t, gobreaker.StateClosed.String(), l.State())
}

// An unreachable Redis trips the breaker, after which calls fail fast without
// touching the network.
func TestLoginLimiter_BreakerOpensOnUnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	l := NewLoginLimiter(client, LimiterConfig{BreakerThreshold: 2, BreakerTimeout: time.Minute}, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := l.Blocked(ctx, "alice@example.com")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen.String(), l.State())

	_, err := l.Blocked(ctx, "alice@example.com")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.ErrorIs(t, l.RecordFailure(ctx, "alice@example.com"), gobreaker.ErrOpenState)
	assert.ErrorIs(t, l.Reset(ctx, "alice@example.com"), gobreaker.ErrOpenState)
}
