package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockNextMidnight(t *testing.T) {
	clock := NewClock(time.UTC, time.Second, zerolog.Nop())

	now := time.Date(2026, 8, 31, 23, 59, 30, 0, time.UTC)
	next := clock.NextMidnight(now)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), next)
	assert.Equal(t, 30*time.Second, clock.Remaining(now))
}

func TestClockRemainingAtMidnightIsFullDay(t *testing.T) {
	clock := NewClock(time.UTC, time.Second, zerolog.Nop())

	now := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 24*time.Hour, clock.Remaining(now))
}

func TestClockRunFiresRolloverOnDateChange(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)

	clock := NewClock(time.UTC, 5*time.Millisecond, zerolog.Nop(), WithClockNow(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}))

	rolled := make(chan struct{}, 1)
	ticked := make(chan time.Duration, 16)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- clock.Run(ctx,
			func(context.Context) {
				select {
				case rolled <- struct{}{}:
				default:
				}
			},
			func(remaining time.Duration) {
				select {
				case ticked <- remaining:
				default:
				}
			})
	}()

	// Let a few same-day ticks pass, then cross midnight.
	select {
	case <-ticked:
	case <-ctx.Done():
		t.Fatal("clock never ticked")
	}

	mu.Lock()
	now = time.Date(2026, 9, 1, 0, 0, 1, 0, time.UTC)
	mu.Unlock()

	select {
	case <-rolled:
	case <-ctx.Done():
		t.Fatal("rollover callback never fired after date change")
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestClockRunStopsOnContextCancel(t *testing.T) {
	clock := NewClock(time.UTC, time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, clock.Run(ctx, nil, nil), context.Canceled)
}
