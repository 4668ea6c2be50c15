package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slotAt reserves a permit at a fixed instant and reports the delay the caller would wait.
func slotAt(l *Limiter, now time.Time) time.Duration {
	return l.lim.ReserveN(now, 1).DelayFrom(now)
}

func assertDelay(t *testing.T, want, got time.Duration) {
	t.Helper()
	assert.InDelta(t, float64(want), float64(got), float64(time.Millisecond))
}

func TestLimiterSpacesReservations(t *testing.T) {
	l := NewLimiter(5*time.Second, 1)
	now := time.Now()

	assert.Zero(t, slotAt(l, now))
	assertDelay(t, 5*time.Second, slotAt(l, now))
	assertDelay(t, 10*time.Second, slotAt(l, now))

	// Later arrivals queue behind earlier ones.
	assertDelay(t, 13*time.Second, slotAt(l, now.Add(2*time.Second)))
}

func TestLimiterBurst(t *testing.T) {
	l := NewLimiter(time.Second, 3)
	now := time.Now()

	for range 3 {
		assert.Zero(t, slotAt(l, now))
	}
	assertDelay(t, time.Second, slotAt(l, now))
}

func TestLimiterZeroIntervalNeverWaits(t *testing.T) {
	l := NewLimiter(0, 0)
	for range 10 {
		waited, err := l.Acquire(t.Context())
		require.NoError(t, err)
		assert.Zero(t, waited)
	}
	assert.Zero(t, l.Interval())
}

func TestLimiterAcquireWaits(t *testing.T) {
	l := NewLimiter(40*time.Millisecond, 1)

	_, err := l.Acquire(t.Context())
	require.NoError(t, err)

	start := time.Now()
	waited, err := l.Acquire(t.Context())
	require.NoError(t, err)
	assert.Positive(t, waited)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestLimiterCancelReturnsSlot(t *testing.T) {
	l := NewLimiter(time.Hour, 1)
	_, err := l.Acquire(t.Context())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The cancelled reservation was handed back, so the next slot is still one interval out.
	delay := slotAt(l, time.Now())
	assert.LessOrEqual(t, delay, time.Hour)
}
