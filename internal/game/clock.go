package game

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Clock ticks toward the next local midnight and fires a refresh when the
// calendar date rolls over. It makes no network calls itself; the rollover
// callback drives reconciliation. This is the mechanism that converges a
// client left open through midnight onto the new day's question.
type Clock struct {
	loc    *time.Location
	tick   time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// ClockOption customizes a Clock.
type ClockOption func(*Clock)

// WithClockNow overrides the time source for tests.
func WithClockNow(now func() time.Time) ClockOption {
	return func(c *Clock) { c.now = now }
}

// NewClock creates a midnight-rollover clock for the given location.
func NewClock(loc *time.Location, tick time.Duration, logger zerolog.Logger, opts ...ClockOption) *Clock {
	if tick <= 0 {
		tick = time.Second
	}
	c := &Clock{
		loc:    loc,
		tick:   tick,
		now:    time.Now,
		logger: logger.With().Str("component", "rollover_clock").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NextMidnight returns the first instant of the next local calendar day.
func (c *Clock) NextMidnight(now time.Time) time.Time {
	local := now.In(c.loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, c.loc)
}

// Remaining returns the duration until the next local midnight.
func (c *Clock) Remaining(now time.Time) time.Duration {
	return c.NextMidnight(now).Sub(now)
}

// Run blocks until context cancellation, invoking onTick every tick and
// onRollover whenever the local date changes between ticks.
func (c *Clock) Run(ctx context.Context, onRollover func(context.Context), onTick func(remaining time.Duration)) error {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	lastDate := DateOf(c.now(), c.loc)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			now := c.now()
			if onTick != nil {
				onTick(c.Remaining(now))
			}
			if date := DateOf(now, c.loc); date != lastDate {
				c.logger.Info().Str("from", lastDate).Str("to", date).Msg("midnight rollover")
				lastDate = date
				if onRollover != nil {
					onRollover(ctx)
				}
			}
		}
	}
}
