package bot

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mcoot/domonhunt/internal/dependencies/clock"
	"github.com/mcoot/domonhunt/internal/model"
)

// cooldowns keeps one token bucket per user, read against the injected clock
type cooldowns struct {
	clock clock.Clock
	every time.Duration
	burst int

	mu       sync.Mutex
	limiters map[model.PlayerID]*rate.Limiter
}

func newCooldowns(clock clock.Clock, every time.Duration, burst int) *cooldowns {
	if burst < 1 {
		burst = 1
	}
	return &cooldowns{
		clock:    clock,
		every:    every,
		burst:    burst,
		limiters: make(map[model.PlayerID]*rate.Limiter),
	}
}

// allow takes a token for user or returns a CooldownError with the wait
func (c *cooldowns) allow(user model.PlayerID) error {
	if c.every <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.limiters[user]
	if !ok {
		l = rate.NewLimiter(rate.Every(c.every), c.burst)
		c.limiters[user] = l
	}

	now := c.clock.Now()
	r := l.ReserveN(now, 1)
	if !r.OK() {
		return &model.CooldownError{Wait: c.every}
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return &model.CooldownError{Wait: wait}
	}
	return nil
}
