// Package conversation drives a user through gate, recipient, message and support steps.
package conversation

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/relaybot/core/journal"
	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/relay"
	"github.com/m3rciful/relaybot/core/support"
	"github.com/m3rciful/relaybot/core/telegram/state"
)

var linkRe = regexp.MustCompile(`(?i)https?://`)

// Gate reports channel membership.
type Gate interface {
	IsMember(ctx context.Context, userID int64) bool
}

// Relayer delivers a message through the mediator.
type Relayer interface {
	Relay(ctx context.Context, req relay.Request) relay.Result
}

// Escalator forwards a report to operators.
type Escalator interface {
	Escalate(ctx context.Context, r support.Report) bool
}

// Options wires a Machine.
type Options struct {
	Store   state.Store
	Gate    Gate
	Relay   Relayer
	Support Escalator
	// Journal is optional.
	Journal journal.Journal
	Texts   Texts
	// Channel is shown in the join prompt.
	Channel            string
	MaxSupportAttempts int
}

type trigger int

const (
	onStart trigger = iota
	onText
	onRetryGate
	onStartSupport
)

type transitionKey struct {
	stage state.Stage
	on    trigger
}

type transition func(ctx context.Context, s *state.Session, ev Event) []Command

// Machine is safe for concurrent use; events of one user are handled one at a time.
type Machine struct {
	store      state.Store
	gate       Gate
	relay      Relayer
	support    Escalator
	journal    journal.Journal
	texts      Texts
	channel    string
	maxSupport int
	table      map[transitionKey]transition
}

// New builds a Machine with its transition table.
func New(opts Options) *Machine {
	if opts.Store == nil {
		opts.Store = state.NewMemoryStore()
	}
	if opts.MaxSupportAttempts <= 0 {
		opts.MaxSupportAttempts = 1
	}
	m := &Machine{
		store:      opts.Store,
		gate:       opts.Gate,
		relay:      opts.Relay,
		support:    opts.Support,
		journal:    opts.Journal,
		texts:      opts.Texts.WithDefaults(),
		channel:    opts.Channel,
		maxSupport: opts.MaxSupportAttempts,
	}

	m.table = map[transitionKey]transition{
		{state.StageNone, onText}:              m.startFirst,
		{state.StageNone, onRetryGate}:         m.retryGate,
		{state.StageAwaitingGate, onText}:      m.stillGated,
		{state.StageAwaitingGate, onRetryGate}: m.retryGate,
		{state.StageAwaitingUsername, onText}:  m.takeRecipient,
		{state.StageAwaitingMessage, onText}:   m.takeMessage,
		{state.StageAwaitingSupport, onText}:   m.takeSupportMessage,
	}
	for _, st := range []state.Stage{
		state.StageNone,
		state.StageAwaitingGate,
		state.StageAwaitingUsername,
		state.StageAwaitingMessage,
		state.StageAwaitingSupport,
	} {
		m.table[transitionKey{st, onStart}] = m.start
		m.table[transitionKey{st, onStartSupport}] = m.startSupport
	}
	return m
}

// Texts returns the effective texts.
func (m *Machine) Texts() Texts {
	return m.texts
}

// ActiveSessions returns how many users are mid-conversation.
func (m *Machine) ActiveSessions() int {
	return m.store.Len()
}

// Handle applies ev to the user's session and returns what to show the user.
func (m *Machine) Handle(ctx context.Context, ev Event) []Command {
	unlock := m.store.Lock(ev.UserID)
	defer unlock()

	sess, ok := m.store.Get(ev.UserID)
	if !ok || !sess.Active() {
		sess = state.Session{UserID: ev.UserID}
	}
	from := sess.Stage

	if cmds, filtered := m.filter(ev); filtered {
		m.logTransition(ctx, ev, from, from, "filtered")
		return cmds
	}

	on, known := triggerOf(ev)
	if !known {
		m.logTransition(ctx, ev, from, from, "ignored")
		return []Command{notice("")}
	}

	fn, ok := m.table[transitionKey{sess.Stage, on}]
	if !ok {
		m.logTransition(ctx, ev, from, from, "no_transition")
		if on == onRetryGate {
			return []Command{notice(m.texts.AlreadyPassed)}
		}
		return nil
	}

	cmds := fn(ctx, &sess, ev)
	if sess.Stage == state.StageNone {
		m.store.Clear(ev.UserID)
	} else {
		m.store.Put(sess)
	}
	m.logTransition(ctx, ev, from, sess.Stage, "ok")
	return cmds
}

func (m *Machine) filter(ev Event) ([]Command, bool) {
	switch {
	case ev.Kind == EventNonText:
		return []Command{reply(m.texts.TextOnly)}, true
	case ev.Kind == EventText && linkRe.MatchString(ev.Text):
		return []Command{reply(m.texts.NoLinks)}, true
	}
	return nil, false
}

func triggerOf(ev Event) (trigger, bool) {
	switch ev.Kind {
	case EventStart:
		return onStart, true
	case EventText:
		return onText, true
	case EventButton:
		switch ev.Action {
		case ActionRetryGate:
			return onRetryGate, true
		case ActionStartSupport:
			return onStartSupport, true
		}
	}
	return 0, false
}

func (m *Machine) joinPrompt() string {
	return render(m.texts.JoinPrompt, m.channel, "")
}

func (m *Machine) joinButtons() []Button {
	return []Button{
		{Text: m.texts.RetryButton, Action: ActionRetryGate},
		{Text: m.texts.SupportButton, Action: ActionStartSupport},
	}
}

func (m *Machine) supportButton() Button {
	return Button{Text: m.texts.SupportButton, Action: ActionStartSupport}
}

func (m *Machine) start(ctx context.Context, s *state.Session, _ Event) []Command {
	*s = state.Session{UserID: s.UserID, Started: true}
	if m.gate.IsMember(ctx, s.UserID) {
		s.Stage = state.StageAwaitingUsername
		return []Command{reply(m.texts.EnterRecipient)}
	}
	s.Stage = state.StageAwaitingGate
	return []Command{reply(m.joinPrompt(), m.joinButtons()...)}
}

func (m *Machine) retryGate(ctx context.Context, s *state.Session, ev Event) []Command {
	if m.gate.IsMember(ctx, s.UserID) {
		*s = state.Session{UserID: s.UserID, Started: true, Stage: state.StageAwaitingUsername}
		return append([]Command{notice("")}, editIfChanged(ev.Displayed, m.texts.EnterRecipient)...)
	}
	// A failed retry from a stale prompt leaves a user without a session as is.
	if s.Stage != state.StageNone {
		*s = state.Session{UserID: s.UserID, Started: true, Stage: state.StageAwaitingGate}
	}
	return append([]Command{notice(m.texts.NotMember)}, editIfChanged(ev.Displayed, m.joinPrompt(), m.joinButtons()...)...)
}

func (m *Machine) startSupport(_ context.Context, s *state.Session, ev Event) []Command {
	*s = state.Session{UserID: s.UserID, Started: true, Stage: state.StageAwaitingSupport}
	return append([]Command{notice("")}, editIfChanged(ev.Displayed, m.texts.SupportPrompt)...)
}

func (m *Machine) startFirst(context.Context, *state.Session, Event) []Command {
	return []Command{reply(m.texts.StartFirst)}
}

func (m *Machine) stillGated(context.Context, *state.Session, Event) []Command {
	return []Command{reply(m.joinPrompt(), m.joinButtons()...)}
}

func (m *Machine) takeRecipient(_ context.Context, s *state.Session, ev Event) []Command {
	handle, ok := NormalizeHandle(ev.Text)
	if !ok {
		return []Command{reply(m.texts.BadHandle)}
	}
	s.TargetHandle = handle
	s.Stage = state.StageAwaitingMessage
	return []Command{reply(render(m.texts.AskMessage, m.channel, handle))}
}

func (m *Machine) takeMessage(ctx context.Context, s *state.Session, ev Event) []Command {
	handle := s.TargetHandle
	*s = state.Session{UserID: s.UserID}

	if handle == "" {
		logger.Error(ctx, "conversation", "conversation.invariant",
			slog.String("status", "fail"),
			slog.Int64("user_id", ev.UserID),
			slog.String("stage", state.StageAwaitingMessage.String()),
			slog.String("reason", "missing_target"),
		)
		return []Command{reply(m.texts.Generic)}
	}

	res := m.relay.Relay(ctx, relay.Request{Handle: handle, Body: ev.Text})
	m.recordAttempt(ctx, ev.UserID, handle, ev.Text, res)

	if res.Outcome.OK() {
		return []Command{reply(render(m.texts.Delivered, m.channel, handle))}
	}
	return []Command{reply(m.texts.DeliveryFailed, m.supportButton())}
}

func (m *Machine) takeSupportMessage(ctx context.Context, s *state.Session, ev Event) []Command {
	report := support.Report{
		TicketID:       uuid.New(),
		ReporterHandle: ev.Username,
		ReporterID:     ev.UserID,
		Body:           ev.Text,
	}
	delivered := m.support.Escalate(ctx, report)
	m.recordTicket(ctx, report, delivered)

	if delivered {
		*s = state.Session{UserID: s.UserID}
		return []Command{reply(m.texts.SupportSent)}
	}

	s.SupportAttempts++
	if s.SupportAttempts >= m.maxSupport {
		*s = state.Session{UserID: s.UserID}
		return []Command{reply(m.texts.SupportFailed)}
	}
	return []Command{reply(m.texts.SupportRetry)}
}

func (m *Machine) recordAttempt(ctx context.Context, userID int64, handle, body string, res relay.Result) {
	if m.journal == nil {
		return
	}
	err := m.journal.RecordAttempt(ctx, journal.Attempt{
		UserID:     userID,
		Target:     handle,
		Outcome:    res.Outcome.String(),
		BodyLength: len([]rune(body)),
		Elapsed:    res.Elapsed,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		logger.Warn(ctx, "journal", "journal.attempt", slog.String("status", "fail"), slog.String("err", err.Error()))
	}
}

func (m *Machine) recordTicket(ctx context.Context, r support.Report, delivered bool) {
	if m.journal == nil {
		return
	}
	err := m.journal.RecordTicket(ctx, journal.Ticket{
		TicketID:  r.TicketID,
		UserID:    r.ReporterID,
		Username:  r.ReporterHandle,
		Delivered: delivered,
		CreatedAt: time.Now(),
	})
	if err != nil {
		logger.Warn(ctx, "journal", "journal.ticket", slog.String("status", "fail"), slog.String("err", err.Error()))
	}
}

func (m *Machine) logTransition(ctx context.Context, ev Event, from, to state.Stage, result string) {
	logger.Debug(ctx, "conversation", "conversation.event",
		slog.String("status", "ok"),
		slog.Int64("user_id", ev.UserID),
		slog.String("kind", ev.Kind.String()),
		slog.String("action", string(ev.Action)),
		slog.String("stage", from.String()),
		slog.String("next_stage", to.String()),
		slog.String("result", result),
	)
}

// NormalizeHandle trims s and makes sure it carries exactly one leading "@".
func NormalizeHandle(s string) (string, bool) {
	name := strings.TrimLeft(strings.TrimSpace(s), "@")
	if name == "" {
		return "", false
	}
	return "@" + name, true
}
