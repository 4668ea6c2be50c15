package app

import (
	"errors"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/relaybot/core/conversation"
	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"
	"github.com/m3rciful/relaybot/core/telegram/keyboard"
)

// output is where conversation commands end up.
type output interface {
	Send(text string, markup *tele.ReplyMarkup) error
	Edit(text string, markup *tele.ReplyMarkup) error
	Notify(text string) error
}

type contextOutput struct {
	c tele.Context
}

func (o contextOutput) Send(text string, markup *tele.ReplyMarkup) error {
	return tghelpers.SendText(o.c, text, markup)
}

func (o contextOutput) Edit(text string, markup *tele.ReplyMarkup) error {
	return tghelpers.EditText(o.c, text, markup)
}

func (o contextOutput) Notify(text string) error {
	return tghelpers.Notify(o.c, text)
}

// execute runs every command in order and joins the errors.
func execute(out output, cmds []conversation.Command) error {
	var errs []error
	for _, cmd := range cmds {
		var err error
		switch cmd.Kind {
		case conversation.CommandReply:
			err = out.Send(cmd.Text, markup(cmd.Buttons))
		case conversation.CommandEdit:
			err = out.Edit(cmd.Text, markup(cmd.Buttons))
		case conversation.CommandNotice:
			err = out.Notify(cmd.Text)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func markup(buttons []conversation.Button) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(buttons))
	for _, b := range buttons {
		btns = append(btns, keyboard.InlineBtn{Text: b.Text, Unique: string(b.Action)})
	}
	return keyboard.InlineButtons(btns)
}
