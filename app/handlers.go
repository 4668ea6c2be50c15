package app

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/relaybot/core/conversation"
	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/telegram"
	"github.com/m3rciful/relaybot/core/telegram/callbacks"
	"github.com/m3rciful/relaybot/core/telegram/commands"
	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"
	"github.com/m3rciful/relaybot/core/telegram/router"
)

func (a *App) register(reg *telegram.Registry) {
	cmds := map[string]commands.Command{
		"/start": {Handler: a.onStart, Description: "Send an anonymous message"},
		"/help":  {Handler: a.onHelp, Description: "How it works"},
		"/stats": {Handler: a.onStats, Description: "Relay statistics", AdminOnly: true},
	}
	for name, cmd := range cmds {
		if err := reg.RegisterCommand(name, cmd); err != nil {
			logger.Warn(logger.Background(), "tg.wire", "register.command.fail",
				slog.String("name", name),
				slog.String("err", err.Error()),
			)
		}
	}

	for _, action := range []conversation.Action{conversation.ActionRetryGate, conversation.ActionStartSupport} {
		if err := reg.RegisterCallback(string(action), a.onButton); err != nil {
			logger.Warn(logger.Background(), "tg.wire", "register.callback.fail",
				slog.String("key", string(action)),
				slog.String("err", err.Error()),
			)
		}
	}
	// Stale or foreign buttons still reach the machine, which acknowledges them.
	reg.SetCallbackNotFound(a.onButton)
}

func (a *App) routes(reg *telegram.Registry, adminID int64) []telegram.Route {
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: adminID})
	routes = append(routes, router.CallbackRoute(reg))
	return append(routes, router.MessageRoutes(reg, router.MessageOptions{
		Text:  a.onText,
		Media: a.onMedia,
	})...)
}

func (a *App) onStart(c tele.Context) error {
	return a.handle(c, conversation.Event{Kind: conversation.EventStart})
}

func (a *App) onText(c tele.Context) error {
	return a.handle(c, conversation.Event{Kind: conversation.EventText, Text: c.Text()})
}

func (a *App) onMedia(c tele.Context) error {
	return a.handle(c, conversation.Event{Kind: conversation.EventNonText, Media: router.MediaKind(c.Message())})
}

func (a *App) onButton(c tele.Context) error {
	return a.handle(c, conversation.Event{
		Kind:      conversation.EventButton,
		Action:    conversation.Action(callbacks.CallbackKey(c)),
		Displayed: callbacks.MessageText(c),
	})
}

func (a *App) onHelp(c tele.Context) error {
	if !private(c) {
		return nil
	}
	return tghelpers.SendText(c, a.machine.Texts().Help, nil)
}

func (a *App) onLimited(c tele.Context) error {
	if c.Callback() != nil {
		return tghelpers.Notify(c, a.machine.Texts().SlowDown)
	}
	if !private(c) {
		return nil
	}
	return tghelpers.SendText(c, a.machine.Texts().SlowDown, nil)
}

// handle feeds one update into the conversation machine and executes the result.
// Only private chats take part; the support chat and any other group are ignored.
func (a *App) handle(c tele.Context, ev conversation.Event) error {
	user := c.Sender()
	if user == nil || !private(c) {
		if c.Callback() != nil {
			return tghelpers.Notify(c, "")
		}
		return nil
	}
	ev.UserID = user.ID
	ev.Username = user.Username

	cmds := a.machine.Handle(tghelpers.BuildContext(c), ev)
	return execute(contextOutput{c: c}, cmds)
}

func private(c tele.Context) bool {
	chat := c.Chat()
	return chat == nil || chat.Type == tele.ChatPrivate
}
