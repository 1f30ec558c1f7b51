// Package otpflow implements the one-time-password step of login: a
// six-digit entry paired with a resend countdown.
package otpflow

import (
	"sync"
	"time"
)

// Countdown ticks down from a starting count once per interval and stops at
// zero. Stop is safe to call any number of times and always releases the
// ticking goroutine.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	quit      chan struct{}
	stopOnce  sync.Once
}

// StartCountdown launches a countdown from `from` ticks of the given
// interval.
func StartCountdown(from int, interval time.Duration) *Countdown {
	c := &Countdown{remaining: from, quit: make(chan struct{})}
	go c.run(interval)
	return c
}

func (c *Countdown) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			if c.remaining > 0 {
				c.remaining--
			}
			done := c.remaining == 0
			c.mu.Unlock()
			if done {
				return
			}
		case <-c.quit:
			return
		}
	}
}

// Remaining returns the ticks left before a resend is allowed.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Stop halts the countdown early.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.quit) })
}
