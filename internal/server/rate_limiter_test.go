package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	req := require.New(t)
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := newRateLimiterWithClock(RateLimitConfig{Burst: 4, RefillInterval: time.Second}, clock.now)

	for range 4 {
		req.True(rl.allow())
	}
	req.False(rl.allow())

	clock.advance(250 * time.Millisecond)
	req.True(rl.allow())
	req.False(rl.allow())

	clock.advance(time.Hour)
	for range 4 {
		req.True(rl.allow())
	}
	req.False(rl.allow(), "refill is capped at the burst size")
}

func TestRateLimiter_InvalidConfigFallsBack(t *testing.T) {
	req := require.New(t)
	clock := &fakeClock{t: time.Unix(0, 0)}
	rl := newRateLimiterWithClock(RateLimitConfig{}, clock.now)

	req.True(rl.allow())
	req.False(rl.allow())

	clock.advance(time.Second)
	req.True(rl.allow())
}
