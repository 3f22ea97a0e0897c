package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock initialized to the given time.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{current: initial}
	c.waitersChanged = sync.NewCond(&c.mu)
	return c
}

// FakeClock is a deterministic Clock for tests. Pending After
// calls fire when the clock is advanced past their deadline.
//
// With AutoAdvance enabled every wait moves the clock forward by exactly
// the requested duration and fires at once, which lets a single goroutine
// run a whole wait loop without a second goroutine driving time.
//
// FakeClock is safe for concurrent use.
type FakeClock struct {
	mu             sync.Mutex
	current        time.Time
	waiters        []*fakeWaiter
	waitersChanged *sync.Cond
	autoAdvance    bool
	requested      []time.Duration
	onWait         func(d time.Duration)
}

type fakeWaiter struct {
	deadline time.Time
	channel  chan time.Time
}

// SetAutoAdvance toggles auto-advance mode.
func (c *FakeClock) SetAutoAdvance(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoAdvance = enabled
}

// OnWait registers a hook called with every requested wait duration,
// after auto-advance has been applied. Hooks may call Set to simulate a
// wall-clock adjustment during a wait.
func (c *FakeClock) OnWait(hook func(d time.Duration)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onWait = hook
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// After returns a channel that receives once the clock passes now+d.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.requested = append(c.requested, d)
	channel := make(chan time.Time, 1)

	switch {
	case d <= 0:
		channel <- c.current
	case c.autoAdvance:
		c.current = c.current.Add(d)
		channel <- c.current
	default:
		c.waiters = append(c.waiters, &fakeWaiter{
			deadline: c.current.Add(d),
			channel:  channel,
		})
		c.waitersChanged.Broadcast()
	}
	hook := c.onWait
	c.mu.Unlock()

	if hook != nil {
		hook(d)
	}
	return channel
}

// Advance moves the clock forward by d and fires expired waiters in
// deadline order.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
	c.fireExpired()
}

// Set jumps the clock to t, forwards or backwards, and fires expired
// waiters. It models an external wall-clock correction.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
	c.fireExpired()
}

func (c *FakeClock) fireExpired() {
	c.mu.Lock()
	target := c.current
	var toFire, remaining []*fakeWaiter
	for _, waiter := range c.waiters {
		if !waiter.deadline.After(target) {
			toFire = append(toFire, waiter)
		} else {
			remaining = append(remaining, waiter)
		}
	}
	c.waiters = remaining
	c.mu.Unlock()

	sort.Slice(toFire, func(i, j int) bool {
		return toFire[i].deadline.Before(toFire[j].deadline)
	})
	for _, waiter := range toFire {
		waiter.channel <- target
	}
}

// WaitForTimers blocks until at least n waits are pending.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.waiters) < n {
		c.waitersChanged.Wait()
	}
}

// Requested returns every duration passed to After so far.
func (c *FakeClock) Requested() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.requested))
	copy(out, c.requested)
	return out
}
