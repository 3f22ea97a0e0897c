// Package clock abstracts the few time operations the bot depends on so
// that waits can be driven deterministically in tests.
//
// Production code uses Real(). Tests use Fake(), whose time moves only
// when Advance or Set is called, or on every wait when auto-advance is
// enabled.
package clock

import "time"

// Clock is the time source used by the scheduler and the control loop.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once d has
	// elapsed. If d <= 0 the channel receives immediately.
	After(d time.Duration) <-chan time.Time
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
