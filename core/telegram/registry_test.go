package telegram

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/relaybot/core/telegram/commands"
)

type fakeSetter struct {
	got []tele.Command
	err error
}

func (f *fakeSetter) SetCommands(opts ...any) error {
	for _, o := range opts {
		if list, ok := o.([]tele.Command); ok {
			f.got = list
		}
	}
	return f.err
}

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start"}))
	require.NoError(t, reg.RegisterCommand("/help", commands.Command{Handler: noop, Description: "Help", Aliases: []string{"info"}}))
	require.NoError(t, reg.RegisterCommand("/stats", commands.Command{Handler: noop, Description: "Stats", AdminOnly: true}))
	require.ErrorIs(t, reg.RegisterCommand("noslash", commands.Command{Handler: noop, Description: "x"}), ErrInvalidRegistration)
	require.Error(t, reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "dup"}))

	assert.Equal(t, []string{"/help", "/start", "/stats"}, reg.CommandNames())
	cmd, ok := reg.Command("/start")
	require.True(t, ok)
	assert.Equal(t, "Start", cmd.Description)

	visible := reg.ListCommands(true)
	require.Len(t, visible, 2)
	assert.Equal(t, "/help", visible[0].Text)
	assert.Equal(t, "/start", visible[1].Text)
	assert.Len(t, reg.ListCommands(false), 3)

	key, _, ok := reg.LookupCommand("info")
	require.True(t, ok)
	assert.Equal(t, "/help", key)

	_, _, ok = reg.LookupCommand("/nope")
	assert.False(t, ok)
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCallback("retry_gate", noop))
	assert.Error(t, reg.RegisterCallback("retry_gate", noop))
	assert.ErrorIs(t, reg.RegisterCallback("", noop), ErrInvalidRegistration)

	h, found := reg.Callback("retry_gate")
	assert.True(t, found)
	assert.NotNil(t, h)

	h, found = reg.Callback("unknown")
	assert.False(t, found)
	assert.NotNil(t, h)

	assert.Equal(t, []string{"retry_gate"}, reg.CallbackKeys())
}

func TestInitBotCommands(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start"}))

	s := &fakeSetter{}
	InitBotCommands(s, reg)
	require.Len(t, s.got, 1)
	assert.Equal(t, "/start", s.got[0].Text)

	InitBotCommands(&fakeSetter{err: errors.New("boom")}, reg)
}
