package middleware

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/relaybot/core/logger"
	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// IdleTTL drops per-user state after this long without updates; defaults to a minute.
	IdleTTL time.Duration
}

type userBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type userLimiter struct {
	mu        sync.Mutex
	every     rate.Limit
	ttl       time.Duration
	buckets   map[int64]*userBucket
	lastSweep time.Time
}

func newUserLimiter(interval, ttl time.Duration) *userLimiter {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &userLimiter{
		every:   rate.Every(interval),
		ttl:     ttl,
		buckets: make(map[int64]*userBucket),
	}
}

func (u *userLimiter) allow(userID int64, now time.Time) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	if now.Sub(u.lastSweep) > u.ttl {
		for id, b := range u.buckets {
			if now.Sub(b.lastSeen) > u.ttl {
				delete(u.buckets, id)
			}
		}
		u.lastSweep = now
	}

	b, ok := u.buckets[userID]
	if !ok {
		b = &userBucket{lim: rate.NewLimiter(u.every, 1)}
		u.buckets[userID] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

// RateLimitMiddleware returns a middleware that enforces a minimum interval
// between updates from the same user. This is inbound flood protection and is
// unrelated to the shared outbound relay limiter.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	if opts.Interval <= 0 {
		return func(next tele.HandlerFunc) tele.HandlerFunc { return next }
	}
	users := newUserLimiter(opts.Interval, opts.IdleTTL)

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return next(c)
			}
			if _, skip := opts.Exclude[updateKind(c.Update())]; skip {
				return next(c)
			}

			if users.allow(user.ID, time.Now()) {
				return next(c)
			}

			logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit",
				slog.String("status", "rate_limited"),
				slog.Int64("user_id", user.ID),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}

func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}
