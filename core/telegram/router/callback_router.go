package router

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/relaybot/core/telegram"
	"github.com/m3rciful/relaybot/core/telegram/callbacks"
	"github.com/m3rciful/relaybot/core/telegram/middleware"
)

// CallbackRoute returns the single OnCallback route. Buttons are dispatched by
// their unique key through the registry; handlers answer the callback themselves.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil || reg == nil {
			return nil
		}
		start := time.Now()
		key := callbacks.Key(cb)

		h, found := reg.Callback(key)
		extras := []slog.Attr{slog.String("cb_key", key)}
		name := "callback." + normalizeHandlerName(key)
		if !found {
			extras = append(extras, slog.String("reason", "not_found"))
			name = "callback.not_found"
		}
		if h == nil {
			logHandlerSummary(c, name, start, "skip", "ok", nil, extras...)
			return nil
		}
		return handleWithSummary(c, name, start, "", "", func() error { return h(c) }, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.LoggerMiddleware(middleware.RecoverMiddleware(handler)),
	}
}
