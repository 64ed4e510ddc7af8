package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCounter struct {
	counts  map[string]int64
	expires map[string]time.Duration
	err     error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (f *fakeCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.counts[key]++
	cmd.SetVal(f.counts[key])
	return cmd
}

func (f *fakeCounter) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	f.expires[key] = expiration
	cmd.SetVal(true)
	return cmd
}

func TestLimiter_Allow(t *testing.T) {
	counter := newFakeCounter()
	l := New(counter, 3, time.Minute, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d := l.Allow(ctx, Key("redirect", "10.0.0.1"))
		require.True(t, d.Allowed, "hit %d", i+1)
		assert.Equal(t, int64(2-i), d.Remaining)
	}

	d := l.Allow(ctx, Key("redirect", "10.0.0.1"))
	assert.False(t, d.Allowed)
	assert.Equal(t, int64(0), d.Remaining)
	assert.Equal(t, time.Minute, d.RetryAfter)

	// окно выставляется один раз, на первом запросе
	assert.Equal(t, time.Minute, counter.expires["ratelimit:redirect:10.0.0.1"])
	assert.Len(t, counter.expires, 1)

	other := l.Allow(ctx, Key("redirect", "10.0.0.2"))
	assert.True(t, other.Allowed)
}

func TestLimiter_FailsOpenOnRedisError(t *testing.T) {
	counter := newFakeCounter()
	counter.err = errors.New("connection refused")
	l := New(counter, 1, time.Minute, zap.NewNop())

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow(context.Background(), "k").Allowed)
	}
}

func TestLimiter_Disabled(t *testing.T) {
	var nilLimiter *Limiter
	assert.True(t, nilLimiter.Allow(context.Background(), "k").Allowed)

	noClient := New(nil, 10, time.Minute, zap.NewNop())
	assert.True(t, noClient.Allow(context.Background(), "k").Allowed)
}
