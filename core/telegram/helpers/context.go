package helpers

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/relaybot/core/logger"
)

const (
	ctxKey = "relay.ctx"
	ridKey = "rid"
)

// UpdateMeta holds the ids every log line about an update carries.
type UpdateMeta struct {
	RID      string
	UpdateID int
	UserID   int64
	ChatID   int64
}

// MetaOf extracts update ids from c and derives the request id.
func MetaOf(c tele.Context) UpdateMeta {
	var m UpdateMeta
	m.UpdateID = c.Update().ID
	if u := c.Sender(); u != nil {
		m.UserID = u.ID
	}
	if ch := c.Chat(); ch != nil {
		m.ChatID = ch.ID
	}
	if rid, _ := c.Get(ridKey).(string); rid != "" {
		m.RID = rid
	} else {
		m.RID = logger.BuildRID(m.UpdateID, m.ChatID, m.UserID)
	}
	return m
}

// NewContext starts a fresh logging context for the update in c and caches it on c.
func NewContext(c tele.Context) (context.Context, UpdateMeta) {
	m := MetaOf(c)
	c.Set(ridKey, m.RID)

	ctx := logger.WithRID(logger.Background(), m.RID)
	ctx = logger.WithUpdateMeta(ctx, m.UpdateID, m.UserID, m.ChatID)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	c.Set(ctxKey, ctx)
	return ctx, m
}

// BuildContext returns the context cached on c, creating it on first use.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(ctxKey).(context.Context); ok && ctx != nil {
		return ctx
	}
	ctx, _ := NewContext(c)
	return ctx
}

// WithHandler tags the cached context with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" || logger.HandlerFrom(ctx) == handler {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	c.Set(ctxKey, ctx)
	return ctx
}
