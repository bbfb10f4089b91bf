package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	keyPrefix = "login:fail:"

	defaultMaxAttempts = 5
	defaultWindow      = 15 * time.Minute
)

// LimiterConfig tunes failed-login throttling.
type LimiterConfig struct {
	MaxAttempts int
	Window      time.Duration
	// BreakerThreshold is the number of consecutive Redis failures that opens
	// the circuit. Zero means 5.
	BreakerThreshold uint32
	BreakerTimeout   time.Duration
}

// LoginLimiter counts failed logins per email.
// Key format: login:fail:<normalized email>
type LoginLimiter struct {
	client      redis.Cmdable
	maxAttempts int64
	window      time.Duration
	cb          *gobreaker.CircuitBreaker[int64]
}

func NewLoginLimiter(client redis.Cmdable, cfg LimiterConfig, log zerolog.Logger) *LoginLimiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultWindow
	}
	if cfg.BreakerThreshold == 0 {
		cfg.BreakerThreshold = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	threshold := cfg.BreakerThreshold
	cb := gobreaker.NewCircuitBreaker[int64](gobreaker.Settings{
		Name:    "login-limiter",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return &LoginLimiter{
		client:      client,
		maxAttempts: int64(cfg.MaxAttempts),
		window:      cfg.Window,
		cb:          cb,
	}
}

// Blocked reports whether email has reached the failure limit.
func (l *LoginLimiter) Blocked(ctx context.Context, email string) (bool, error) {
	n, err := l.cb.Execute(func() (int64, error) {
		n, err := l.client.Get(ctx, key(email)).Int64()
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return n, err
	})
	if err != nil {
		return false, fmt.Errorf("login limiter check: %w", err)
	}
	return n >= l.maxAttempts, nil
}

// RecordFailure increments the counter. The first failure starts the window;
// a counter left without a TTL gets one on the next failure.
func (l *LoginLimiter) RecordFailure(ctx context.Context, email string) error {
	_, err := l.cb.Execute(func() (int64, error) {
		k := key(email)
		var incr *redis.IntCmd
		_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, k)
			pipe.ExpireNX(ctx, k, l.window)
			return nil
		})
		if err != nil {
			return 0, err
		}
		return incr.Val(), nil
	})
	if err != nil {
		return fmt.Errorf("login limiter record: %w", err)
	}
	return nil
}

func (l *LoginLimiter) Reset(ctx context.Context, email string) error {
	_, err := l.cb.Execute(func() (int64, error) {
		return l.client.Del(ctx, key(email)).Result()
	})
	if err != nil {
		return fmt.Errorf("login limiter reset: %w", err)
	}
	return nil
}

// State exposes the breaker state for diagnostics.
func (l *LoginLimiter) State() string {
	return l.cb.State().String()
}

func key(email string) string {
	return keyPrefix + email
}
