package app

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/relaybot/core/buildinfo"
	"github.com/m3rciful/relaybot/core/journal"
	"github.com/m3rciful/relaybot/core/logger"
	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"
)

const statsWindow = 24 * time.Hour

func (a *App) onStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sum, err := a.journal.Summary(ctx, time.Now().Add(-statsWindow))
	if err != nil {
		logger.Warn(ctx, "journal", "journal.summary",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, fmt.Sprintf("Journal unavailable.\nActive sessions: %d", a.machine.ActiveSessions()), nil)
	}
	return tghelpers.SendText(c, formatStats(buildinfo.String(), a.machine.ActiveSessions(), sum), nil)
}

func formatStats(version string, active int, sum journal.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "relaybot %s\n", version)
	fmt.Fprintf(&b, "Active sessions: %d\n", active)
	fmt.Fprintf(&b, "Relays in the last 24h: %d\n", sum.Attempts())

	outcomes := make([]string, 0, len(sum.Outcomes))
	for o := range sum.Outcomes {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		fmt.Fprintf(&b, "  %s: %d\n", o, sum.Outcomes[o])
	}

	fmt.Fprintf(&b, "Support tickets: %d (failed: %d)", sum.Tickets, sum.TicketsFailed)
	return b.String()
}
