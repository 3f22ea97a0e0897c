// Package bot runs the daily announcement: it waits for the configured time
// on every weekday, then fetches, renders and posts the day's menu.
package bot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/korjavin/mensaplan/pkg/clock"
	"github.com/korjavin/mensaplan/pkg/delivery"
	"github.com/korjavin/mensaplan/pkg/logger"
	"github.com/korjavin/mensaplan/pkg/menu"
	"github.com/korjavin/mensaplan/pkg/messages"
	"github.com/korjavin/mensaplan/pkg/models"
	"github.com/korjavin/mensaplan/pkg/scheduler"
)

// retriggerGuard is waited after each cycle so the same trigger instant is
// never selected twice.
const retriggerGuard = time.Second

// Options configures a Runner. Clock, Location, WaitThreshold and Logger
// are optional.
type Options struct {
	Clock    clock.Clock
	Location *time.Location
	PostTime scheduler.TimeOfDay
	// WaitThreshold is the remaining time below which the waiter stops
	// halving, scheduler.DefaultThreshold when zero
	WaitThreshold time.Duration
	Provider      menu.Provider
	Canteen       string
	Renderer      *messages.Renderer
	Sender        delivery.Sender
	Channel       string
	Logger        *logger.Logger
}

// Runner owns the announcement loop
type Runner struct {
	clock    clock.Clock
	location *time.Location
	postTime scheduler.TimeOfDay
	waiter   *scheduler.Waiter
	provider menu.Provider
	canteen  string
	renderer *messages.Renderer
	sender   delivery.Sender
	channel  string
	logger   *logger.Logger
}

// New creates a Runner from opts
func New(opts Options) *Runner {
	c := opts.Clock
	if c == nil {
		c = clock.Real()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	l := opts.Logger
	if l == nil {
		l = logger.New("bot")
	}
	waiter := scheduler.NewWaiter(c)
	if opts.WaitThreshold > 0 {
		waiter = waiter.WithThreshold(opts.WaitThreshold)
	}
	return &Runner{
		clock:    c,
		location: loc,
		postTime: opts.PostTime,
		waiter:   waiter,
		provider: opts.Provider,
		canteen:  opts.Canteen,
		renderer: opts.Renderer,
		sender:   opts.Sender,
		channel:  opts.Channel,
		logger:   l,
	}
}

// Run posts the announcement at every weekday trigger until ctx is
// cancelled. A failed cycle is logged and the loop moves on to the next
// trigger. Cancellation is a clean shutdown and returns nil.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("Announcing canteen %s to %q at %s %s on weekdays", r.canteen, r.channel, r.postTime, r.location)
	for {
		now := r.clock.Now()
		target := scheduler.NextTrigger(now, r.postTime, r.location)
		r.logger.Info("Next announcement at %s (in %v)", target.Format(time.RFC3339), target.Sub(now).Round(time.Second))

		if err := r.waiter.Wait(ctx, target); err != nil {
			r.logger.Info("Stopping: %v", err)
			return nil
		}

		if err := r.RunCycle(ctx, models.DateOf(target)); err != nil {
			if ctx.Err() != nil {
				r.logger.Info("Stopping during cycle: %v", err)
				return nil
			}
			r.logFailure(err)
		}

		select {
		case <-ctx.Done():
			r.logger.Info("Stopping: %v", ctx.Err())
			return nil
		case <-r.clock.After(retriggerGuard):
		}
	}
}

// RunCycle fetches, renders and posts the menu for date. The call to action
// is only posted when the menu message went out.
func (r *Runner) RunCycle(ctx context.Context, date models.Date) error {
	log := r.logger.With(uuid.NewString())
	log.Info("Starting cycle for canteen %s on %s", r.canteen, date)

	msgs, err := r.Prepare(ctx, date)
	if err != nil {
		return err
	}

	for i, msg := range msgs {
		if err := r.sender.SendMessage(ctx, r.channel, msg.Subject, msg.Body); err != nil {
			return errors.Wrapf(err, "message %d of %d", i+1, len(msgs))
		}
		log.Debug("Sent message %d of %d", i+1, len(msgs))
	}

	log.Info("Posted announcement for %s", date)
	return nil
}

// Prepare looks up and renders the menu for date without sending it
func (r *Runner) Prepare(ctx context.Context, date models.Date) ([]models.Message, error) {
	m, err := menu.Lookup(ctx, r.provider, r.canteen, date)
	if err != nil {
		return nil, err
	}
	return r.renderer.Render(m, date)
}

func (r *Runner) logFailure(err error) {
	switch {
	case errors.Is(err, menu.ErrMenuUnavailable):
		r.logger.Warn("No announcement today: %v", err)
	case errors.Is(err, messages.ErrUnrecognizedClassification):
		r.logger.Error("Menu could not be rendered, check the icon table: %v", err)
	case errors.Is(err, delivery.ErrDeliveryFailed):
		r.logger.Error("Announcement not delivered: %v", err)
	default:
		r.logger.Error("Cycle failed: %v", err)
	}
}
