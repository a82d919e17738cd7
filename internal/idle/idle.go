// Package idle tracks page activity and blocks refreshes until the page has
// been quiet for a full interval.
package idle

import (
	"context"
	"sync/atomic"
	"time"
)

// Clock records the most recent activity timestamp. Event callbacks write it,
// the scheduler reads it; writes are monotonic timestamp stores so readers
// tolerate staleness without locking.
type Clock struct {
	last atomic.Value // time.Time
}

// NewClock returns a Clock primed with the current time.
func NewClock() *Clock {
	c := &Clock{}
	c.last.Store(time.Now())
	return c
}

// Touch records activity now. Safe for concurrent use.
func (c *Clock) Touch() {
	c.last.Store(time.Now())
}

// Last returns the most recent activity timestamp.
func (c *Clock) Last() time.Time {
	return c.last.Load().(time.Time)
}

// IdleFor returns how long the page has been quiet.
func (c *Clock) IdleFor() time.Duration {
	return time.Since(c.Last())
}

// maxPoll caps each sleep so the wait stays responsive to cancellation and
// to activity arriving mid-wait.
const maxPoll = 5 * time.Second

// Wait blocks until no activity has been recorded for interval, or until ctx
// is cancelled, whichever comes first. Cancellation wins even when the page
// is already idle, so a stop request never lets one more refresh through.
// A page with continuous background traffic keeps resetting the clock and
// can delay return indefinitely; that is the intended reading of "only
// refresh when idle".
func Wait(ctx context.Context, interval time.Duration, clock *Clock) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		remaining := interval - clock.IdleFor()
		if remaining <= 0 {
			return nil
		}
		if remaining > maxPoll {
			remaining = maxPoll
		}
		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
