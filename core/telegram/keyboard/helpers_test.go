package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineButtonsOnePerRow(t *testing.T) {
	m := InlineButtons([]InlineBtn{
		{Text: "I have joined", Unique: "retry_gate"},
		{Text: "Contact support", Unique: "start_support"},
	})
	require.NotNil(t, m)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Equal(t, "I have joined", m.InlineKeyboard[0][0].Text)
	assert.Equal(t, "retry_gate", m.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "start_support", m.InlineKeyboard[1][0].Unique)
}

func TestInlineButtonsEmpty(t *testing.T) {
	assert.Nil(t, InlineButtons(nil))
}
