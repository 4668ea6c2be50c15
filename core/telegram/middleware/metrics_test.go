package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestHasKeyboard(t *testing.T) {
	withKB := &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{{{Text: "x"}}}}

	assert.True(t, hasKeyboard([]any{&tele.SendOptions{ReplyMarkup: withKB}}))
	assert.True(t, hasKeyboard([]any{withKB}))
	assert.False(t, hasKeyboard([]any{&tele.SendOptions{}}))
	assert.False(t, hasKeyboard([]any{&tele.ReplyMarkup{}}))
	assert.False(t, hasKeyboard(nil))
}
