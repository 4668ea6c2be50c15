package relay

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is the process-wide throttle in front of the mediator account.
// Waiters are served in the order they called Acquire; nobody is denied outright.
type Limiter struct {
	lim      *rate.Limiter
	interval time.Duration
}

// NewLimiter admits burst permits per interval. A zero interval disables throttling.
func NewLimiter(interval time.Duration, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Limiter{lim: rate.NewLimiter(limit, burst), interval: interval}
}

// Interval returns the configured spacing between permits.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Acquire blocks until a permit is available and returns how long the caller waited.
// On cancellation the reserved slot is handed back to later waiters.
func (l *Limiter) Acquire(ctx context.Context) (time.Duration, error) {
	now := time.Now()
	r := l.lim.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	if delay <= 0 {
		return 0, nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return delay, nil
	case <-ctx.Done():
		r.CancelAt(time.Now())
		return 0, ctx.Err()
	}
}
