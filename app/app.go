// Package app wires the relay bot: gate, relay dispatcher, support escalation
// and the conversation machine behind the telebot runtime.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/relaybot/core/bootstrap"
	"github.com/m3rciful/relaybot/core/cmd"
	"github.com/m3rciful/relaybot/core/conversation"
	"github.com/m3rciful/relaybot/core/gate"
	"github.com/m3rciful/relaybot/core/journal"
	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/relay"
	"github.com/m3rciful/relaybot/core/relay/mtproto"
	"github.com/m3rciful/relaybot/core/support"
	"github.com/m3rciful/relaybot/core/telegram"
	"github.com/m3rciful/relaybot/core/telegram/state"
	tgsender "github.com/m3rciful/relaybot/core/telegram/sender"
)

const journalPurgeEvery = time.Hour

// App holds the wired bot components.
type App struct {
	cfg     *Config
	infra   *bootstrap.Result
	bot     *tele.Bot
	limiter *relay.Limiter
	machine *conversation.Machine
	journal journal.Journal
	stop    context.CancelFunc
}

var _ cmd.TelegramApp = (*App)(nil)

// Bootstrap satisfies cmd.Options.Bootstrap.
func Bootstrap(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	return New(context.Background(), cfg)
}

// New initializes logging and storage, connects the bot and builds the conversation machine.
func New(ctx context.Context, cfg *Config) (*App, error) {
	core := cfg.CoreConfig()

	infra, err := bootstrap.Run(bootstrap.Options{Config: core, Database: cfg.Database})
	if err != nil {
		return nil, err
	}

	bot, err := telegram.NewBot(core)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	mediator, err := mtproto.New(ctx, mtproto.Options{
		AppID:         core.Mediator.APIID,
		AppHash:       core.Mediator.APIHash,
		SessionString: core.Mediator.SessionString,
		SessionFile:   core.Mediator.SessionFile,
	})
	if err != nil {
		_ = infra.Close()
		return nil, fmt.Errorf("app: mediator: %w", err)
	}

	limiter := relay.NewLimiter(time.Duration(core.Relay.IntervalMS)*time.Millisecond, core.Relay.Burst)
	dispatcher := relay.NewDispatcher(mediator, limiter, relay.Options{
		CallTimeout: time.Duration(core.Relay.CallTimeoutSeconds) * time.Second,
	})

	a := &App{
		cfg:     cfg,
		infra:   infra,
		bot:     bot,
		limiter: limiter,
		journal: infra.Journal,
	}
	var retainCtx context.Context
	retainCtx, a.stop = context.WithCancel(logger.Background())
	go journal.Retain(retainCtx, infra.Journal, cfg.Database.Retention(), journalPurgeEvery)
	a.machine = conversation.New(conversation.Options{
		Store:              state.NewMemoryStore(),
		Gate:               gate.New(bot, core.Gate.Channel, time.Duration(core.Gate.TimeoutSeconds)*time.Second),
		Relay:              dispatcher,
		Support:            support.New(bot, core.Support.ChatID),
		Journal:            infra.Journal,
		Texts:              cfg.Texts,
		Channel:            core.Gate.Channel,
		MaxSupportAttempts: core.Support.MaxAttempts,
	})
	return a, nil
}

// Close stops journal retention and releases the journal database.
func (a *App) Close() error {
	if a.stop != nil {
		a.stop()
	}
	return a.infra.Close()
}

// TelegramRunOptions registers commands, callbacks and message routes.
func (a *App) TelegramRunOptions() (telegram.RunOptions, error) {
	core := a.cfg.CoreConfig()
	reg := telegram.NewRegistry()
	a.register(reg)

	routes := a.routes(reg, core.Telegram.AdminID)

	return telegram.RunOptions{
		Config:   core,
		Registry: reg,
		Bot:      a.bot,
		DispatcherOptions: tgsender.Options{
			QueueSize:  core.Sender.QueueSize,
			Workers:    core.Sender.Workers,
			MaxRetries: core.Sender.MaxRetries,
		},
		Middlewares: telegram.DefaultMiddlewares(core, a.onLimited),
		Routes:      routes,
		OnStart: func(ctx context.Context, _ telegram.Runtime) error {
			logger.Info(ctx, "app", "relay.ready",
				slog.String("status", "ok"),
				slog.String("channel", core.Gate.Channel),
				slog.Duration("relay_interval", a.limiter.Interval()),
				slog.Int64("support_chat_id", core.Support.ChatID),
			)
			return nil
		},
	}, nil
}
