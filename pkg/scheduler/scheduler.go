package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/korjavin/mensaplan/pkg/clock"
	"github.com/korjavin/mensaplan/pkg/logger"
)

// DefaultThreshold is the remaining duration below which the waiter
// performs its final sleep.
const DefaultThreshold = 200 * time.Millisecond

// TimeOfDay is a wall-clock time within a day
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: want HH:MM or HH:MM:SS", s)
	}

	values := make([]int, 3)
	limits := []int{23, 59, 59}
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 || v > limits[i] {
			return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
		}
		values[i] = v
	}

	return TimeOfDay{Hour: values[0], Minute: values[1], Second: values[2]}, nil
}

// String formats the time as HH:MM:SS
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// NextTrigger returns the next instant strictly after now at which the
// local time in loc equals at, skipping Saturdays and Sundays.
func NextTrigger(now time.Time, at TimeOfDay, loc *time.Location) time.Time {
	year, month, day := now.In(loc).Date()

	offset := 0
	if !onDay(year, month, day, at, loc).After(now) {
		offset = 1
	}

	// Noon avoids any DST transition when asking for the weekday.
	switch time.Date(year, month, day+offset, 12, 0, 0, 0, loc).Weekday() {
	case time.Saturday:
		offset += 2
	case time.Sunday:
		offset++
	}

	return onDay(year, month, day+offset, at, loc)
}

func onDay(year int, month time.Month, day int, at TimeOfDay, loc *time.Location) time.Time {
	return time.Date(year, month, day, at.Hour, at.Minute, at.Second, 0, loc)
}

// Waiter blocks until a target instant using halving sleeps
type Waiter struct {
	clock     clock.Clock
	threshold time.Duration
	logger    *logger.Logger
}

// NewWaiter creates a waiter on the given clock with DefaultThreshold
func NewWaiter(c clock.Clock) *Waiter {
	return &Waiter{
		clock:     c,
		threshold: DefaultThreshold,
		logger:    logger.New("scheduler"),
	}
}

// WithThreshold returns a copy of the waiter using a different final-sleep threshold
func (w *Waiter) WithThreshold(threshold time.Duration) *Waiter {
	copied := *w
	copied.threshold = threshold
	return &copied
}

// Wait returns once the clock has reached target, or with ctx.Err() when
// ctx is cancelled first. The remaining duration is re-read from the clock
// before every sleep, and each sleep covers half of it until less than the
// threshold is left.
func (w *Waiter) Wait(ctx context.Context, target time.Time) error {
	for iteration := 1; ; iteration++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		remaining := target.Sub(w.clock.Now())
		if remaining < w.threshold {
			if remaining < 0 {
				remaining = 0
			}
			w.logger.Debug("Final wait of %v (iteration %d)", remaining, iteration)
			return w.sleep(ctx, remaining)
		}

		w.logger.Debug("%v until %s, sleeping %v (iteration %d)",
			remaining, target.Format(time.RFC3339), remaining/2, iteration)
		if err := w.sleep(ctx, remaining/2); err != nil {
			return err
		}
	}
}

func (w *Waiter) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.clock.After(d):
		return nil
	}
}
