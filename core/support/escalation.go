// Package support forwards failed relays and user complaints to the operator chat.
package support

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/telegram/netutil"
)

// Sender is satisfied by *tele.Bot.
type Sender interface {
	Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error)
}

// Report is one support request.
type Report struct {
	TicketID       uuid.UUID
	ReporterHandle string
	ReporterID     int64
	Body           string
}

// Format renders the report as the text posted to operators.
func (r Report) Format() string {
	handle := strings.TrimPrefix(r.ReporterHandle, "@")
	if handle == "" {
		handle = "(no username)"
	} else {
		handle = "@" + handle
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Support request #%s\n", shortTicket(r.TicketID))
	fmt.Fprintf(&b, "From: %s (ID: %d)\n\n", handle, r.ReporterID)
	b.WriteString(r.Body)
	return b.String()
}

func shortTicket(id uuid.UUID) string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// Escalator posts reports through the bot identity.
type Escalator struct {
	bot  Sender
	chat tele.Recipient
}

// New returns an escalator that posts to chatID.
func New(bot Sender, chatID int64) *Escalator {
	return &Escalator{bot: bot, chat: &tele.Chat{ID: chatID}}
}

// Escalate sends r once and reports whether it was accepted. Errors are logged, not returned.
func (e *Escalator) Escalate(ctx context.Context, r Report) bool {
	if r.TicketID == uuid.Nil {
		r.TicketID = uuid.New()
	}
	start := time.Now()
	_, err := e.bot.Send(e.chat, r.Format())
	took := time.Since(start)

	attrs := []slog.Attr{
		slog.String("ticket_id", r.TicketID.String()),
		slog.Int64("user_id", r.ReporterID),
		slog.Int("body_len", len([]rune(r.Body))),
		slog.Duration("duration", took),
	}
	if err != nil {
		logger.Error(ctx, "support", "support.send", append(attrs,
			slog.String("status", "fail"),
			slog.String("error_kind", netutil.ErrorKind(err)),
			slog.String("err", netutil.Redact(err)),
		)...)
		return false
	}
	logger.Info(ctx, "support", "support.send", append(attrs, slog.String("status", "ok"))...)
	return true
}
