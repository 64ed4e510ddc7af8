package ratelimit

import (
	"RefStack-Backend/internal/config"
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Counter is the part of the redis client the limiter needs.
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	// RetryAfter is the window length; the exact reset time is not tracked.
	RetryAfter time.Duration
}

// Limiter is a fixed-window counter per key stored in redis.
// Redis errors let the request through.
type Limiter struct {
	counter Counter
	limit   int64
	window  time.Duration
	prefix  string
	log     *zap.Logger
}

func New(counter Counter, limit int64, window time.Duration, log *zap.Logger) *Limiter {
	return &Limiter{
		counter: counter,
		limit:   limit,
		window:  window,
		prefix:  "ratelimit:",
		log:     log,
	}
}

// NewRedisClient connects to redis. It returns nil when no address is configured.
func NewRedisClient(ctx context.Context, cfg config.Redis, log *zap.Logger) (*redis.Client, error) {
	if cfg.Addr == "" {
		log.Info("redis address not configured, rate limiting disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// the limiter fails open, so an unreachable redis is not fatal
		log.Warn("redis is not reachable", zap.String("addr", cfg.Addr), zap.Error(err))
	}

	return client, nil
}

// Allow counts one hit for key in the current window.
func (l *Limiter) Allow(ctx context.Context, key string) Decision {
	if l == nil || l.counter == nil || l.limit <= 0 {
		return Decision{Allowed: true}
	}
	d := Decision{Allowed: true, Limit: l.limit, Remaining: l.limit, RetryAfter: l.window}

	redisKey := l.prefix + key
	count, err := l.counter.Incr(ctx, redisKey).Result()
	if err != nil {
		l.log.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
		return d
	}

	if count == 1 {
		if err := l.counter.Expire(ctx, redisKey, l.window).Err(); err != nil {
			l.log.Warn("failed to set rate limit window", zap.String("key", key), zap.Error(err))
		}
	}

	d.Remaining = max(l.limit-count, 0)
	d.Allowed = count <= l.limit
	return d
}

// Key builds the counter key for a route group and client.
func Key(group, client string) string {
	return fmt.Sprintf("%s:%s", group, client)
}
