package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/relaybot/core/conversation"
)

type call struct {
	kind    string
	text    string
	buttons []string
}

type recordingOutput struct {
	calls   []call
	editErr error
}

func buttonTexts(m *tele.ReplyMarkup) []string {
	if m == nil {
		return nil
	}
	var out []string
	for _, row := range m.InlineKeyboard {
		for _, b := range row {
			out = append(out, b.Text+"="+b.Unique)
		}
	}
	return out
}

func (o *recordingOutput) Send(text string, m *tele.ReplyMarkup) error {
	o.calls = append(o.calls, call{"send", text, buttonTexts(m)})
	return nil
}

func (o *recordingOutput) Edit(text string, m *tele.ReplyMarkup) error {
	o.calls = append(o.calls, call{"edit", text, buttonTexts(m)})
	return o.editErr
}

func (o *recordingOutput) Notify(text string) error {
	o.calls = append(o.calls, call{"notify", text, nil})
	return nil
}

func TestExecuteRunsCommandsInOrder(t *testing.T) {
	out := &recordingOutput{}
	err := execute(out, []conversation.Command{
		{Kind: conversation.CommandNotice, Text: "not yet"},
		{Kind: conversation.CommandEdit, Text: "join first", Buttons: []conversation.Button{
			{Text: "I have joined", Action: conversation.ActionRetryGate},
			{Text: "Contact support", Action: conversation.ActionStartSupport},
		}},
		{Kind: conversation.CommandReply, Text: "hello"},
	})
	require.NoError(t, err)

	assert.Equal(t, []call{
		{"notify", "not yet", nil},
		{"edit", "join first", []string{"I have joined=retry_gate", "Contact support=start_support"}},
		{"send", "hello", nil},
	}, out.calls)
}

func TestExecuteContinuesAfterError(t *testing.T) {
	boom := errors.New("message to edit not found")
	out := &recordingOutput{editErr: boom}
	err := execute(out, []conversation.Command{
		{Kind: conversation.CommandEdit, Text: "a"},
		{Kind: conversation.CommandReply, Text: "b"},
	})
	require.ErrorIs(t, err, boom)
	assert.Len(t, out.calls, 2)
}

func TestMarkupWithoutButtonsIsNil(t *testing.T) {
	assert.Nil(t, markup(nil))
}
