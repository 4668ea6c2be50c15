package support

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type recordingSender struct {
	to   tele.Recipient
	text string
	err  error
}

func (s *recordingSender) Send(to tele.Recipient, what any, _ ...any) (*tele.Message, error) {
	s.to = to
	s.text, _ = what.(string)
	if s.err != nil {
		return nil, s.err
	}
	return &tele.Message{Text: s.text}, nil
}

func TestReportFormat(t *testing.T) {
	id := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
	r := Report{TicketID: id, ReporterHandle: "alice", ReporterID: 42, Body: "it failed"}

	assert.Equal(t, "Support request #0f8fad5b\nFrom: @alice (ID: 42)\n\nit failed", r.Format())

	r.ReporterHandle = ""
	assert.Contains(t, r.Format(), "From: (no username) (ID: 42)")
}

func TestEscalateSendsToOperatorChat(t *testing.T) {
	s := &recordingSender{}
	e := New(s, -1001)

	ok := e.Escalate(t.Context(), Report{ReporterHandle: "@bob", ReporterID: 7, Body: "help"})
	require.True(t, ok)
	assert.Equal(t, "-1001", s.to.Recipient())
	assert.Contains(t, s.text, "@bob (ID: 7)")
	assert.Contains(t, s.text, "help")
}

func TestEscalateReportsFailure(t *testing.T) {
	s := &recordingSender{err: errors.New("telegram: Forbidden: bot was kicked (403)")}
	e := New(s, -1001)

	assert.False(t, e.Escalate(t.Context(), Report{ReporterID: 7, Body: "help"}))
}
