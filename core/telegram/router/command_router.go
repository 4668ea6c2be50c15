package router

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/relaybot/core/logger"
	tg "github.com/m3rciful/relaybot/core/telegram"
	"github.com/m3rciful/relaybot/core/telegram/commands"
	"github.com/m3rciful/relaybot/core/telegram/middleware"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes returns one route per command name and alias, in sorted order.
// Admin-only commands are guarded by AdminOnlyMiddleware.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	guard := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	var routes []tg.Route
	for _, name := range reg.CommandNames() {
		cmd, _ := reg.Command(name)
		h := commandHandler(name, cmd)
		if cmd.AdminOnly {
			h = guard(h)
		}
		for _, ep := range cmd.Endpoints(name) {
			routes = append(routes, tg.Route{Endpoint: ep, Handler: h})
		}
	}

	logger.Info(logger.Background(), "tg.wire", "complete",
		slog.String("status", "ok"),
		slog.Int("commands", len(reg.CommandNames())),
		slog.Int("routes", len(routes)),
		slog.Int("callbacks", len(reg.CallbackKeys())),
	)
	return routes
}

func commandHandler(name string, cmd commands.Command) tele.HandlerFunc {
	handlerName := normalizeHandlerName(name)
	inner := cmd.Handler
	h := func(c tele.Context) error {
		return handleWithSummary(c, handlerName, time.Now(), "", "", func() error { return inner(c) })
	}
	return middleware.LoggerMiddleware(middleware.RecoverMiddleware(h))
}
