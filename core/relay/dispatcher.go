package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/telegram/netutil"
)

const defaultCallTimeout = 30 * time.Second

// Recipient is a resolved handle. Peer is opaque to the dispatcher and only
// meaningful to the Conn that produced it.
type Recipient struct {
	Handle string
	ID     int64
	Peer   any
}

// Conn is a live connection under the mediator identity.
type Conn interface {
	Resolve(ctx context.Context, handle string) (Recipient, error)
	Send(ctx context.Context, to Recipient, body string) error
}

// Mediator opens a connection for the duration of fn and tears it down afterwards.
type Mediator interface {
	WithConn(ctx context.Context, fn func(ctx context.Context, conn Conn) error) error
}

// Permits is the shared throttle consulted before every mediator call.
type Permits interface {
	Acquire(ctx context.Context) (time.Duration, error)
}

// Request is a single relay: body delivered to the account behind Handle.
type Request struct {
	Handle string
	Body   string
}

// Result describes how a relay attempt ended.
type Result struct {
	Outcome Outcome
	Err     error
	Waited  time.Duration
	Elapsed time.Duration
}

// Options configures a Dispatcher.
type Options struct {
	// CallTimeout bounds connect+resolve+send once a permit is held.
	CallTimeout time.Duration
}

// Dispatcher funnels relay requests through the shared limiter into the mediator.
// At most one mediator call is in flight at any time. Callers take turns in
// arrival order, and a permit is only requested by the caller holding the
// turn, so consecutive sends are spaced by the limiter interval even when a
// previous call ran long.
type Dispatcher struct {
	mediator    Mediator
	permits     Permits
	callTimeout time.Duration
	turn        *semaphore.Weighted
}

// NewDispatcher wires a mediator behind the given permits.
func NewDispatcher(m Mediator, p Permits, opts Options) *Dispatcher {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	return &Dispatcher{
		mediator:    m,
		permits:     p,
		callTimeout: opts.CallTimeout,
		turn:        semaphore.NewWeighted(1),
	}
}

var errResolve = errors.New("resolve")

// Relay waits for its turn, acquires a permit, resolves req.Handle and sends
// req.Body. Upstream errors never escape; they are folded into Result.Outcome.
func (d *Dispatcher) Relay(ctx context.Context, req Request) Result {
	start := time.Now()
	if err := d.turn.Acquire(ctx, 1); err != nil {
		return d.abort(ctx, req, start, 0, fmt.Errorf("wait for turn: %w", err))
	}
	defer d.turn.Release(1)

	if _, err := d.permits.Acquire(ctx); err != nil {
		return d.abort(ctx, req, start, time.Since(start), fmt.Errorf("acquire permit: %w", err))
	}
	waited := time.Since(start)

	callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	err := d.mediator.WithConn(callCtx, func(ctx context.Context, conn Conn) error {
		to, err := conn.Resolve(ctx, req.Handle)
		if err != nil {
			return fmt.Errorf("%w %s: %w", errResolve, req.Handle, err)
		}
		return conn.Send(ctx, to, req.Body)
	})

	res := Result{Outcome: Classify(err), Err: err, Waited: waited, Elapsed: time.Since(start)}
	d.log(ctx, req, res)
	return res
}

func (d *Dispatcher) abort(ctx context.Context, req Request, start time.Time, waited time.Duration, err error) Result {
	res := Result{Outcome: TransientFailure, Err: err, Waited: waited, Elapsed: time.Since(start)}
	d.log(ctx, req, res)
	return res
}

func (d *Dispatcher) log(ctx context.Context, req Request, res Result) {
	attrs := []slog.Attr{
		slog.String("outcome", res.Outcome.String()),
		slog.String("target", req.Handle),
		slog.Int("body_len", len([]rune(req.Body))),
		slog.Duration("wait", res.Waited),
		slog.Duration("duration", res.Elapsed),
	}
	if res.Err != nil {
		attrs = append(attrs,
			slog.String("err", netutil.Redact(res.Err)),
			slog.String("error_kind", errorKind(res.Err)),
			slog.Bool("during_resolve", errors.Is(res.Err, errResolve)),
		)
	}

	switch res.Outcome {
	case Delivered:
		logger.Info(ctx, "relay", "relay.delivered", append(attrs, slog.String("status", "ok"))...)
	case InvalidRecipient:
		logger.Warn(ctx, "relay", "relay.invalid_recipient", append(attrs, slog.String("status", "fail"))...)
	case Throttled:
		var flood *FloodError
		if errors.As(res.Err, &flood) && flood.Wait > 0 {
			attrs = append(attrs, slog.Duration("flood_wait", flood.Wait))
		}
		logger.Error(ctx, "relay", "relay.throttled", append(attrs, slog.String("status", "rate_limited"))...)
	default:
		logger.Error(ctx, "relay", "relay.transient", append(attrs, slog.String("status", "fail"))...)
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrRecipientNotFound):
		return "not_found"
	case errors.Is(err, ErrFlood):
		return "flood"
	}
	return netutil.ErrorKind(err)
}
