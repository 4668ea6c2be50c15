package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	key, payload := ParseCallbackData(&tele.Callback{Data: "\fretry_gate|"})
	assert.Equal(t, "retry_gate", key)
	assert.Empty(t, payload)

	key, payload = ParseCallbackData(&tele.Callback{Data: "\fstart_support|x|y"})
	assert.Equal(t, "start_support", key)
	assert.Equal(t, "x|y", payload)

	key, _ = ParseCallbackData(&tele.Callback{Data: "plain"})
	assert.Equal(t, "plain", key)
}

func TestKeyPrefersUnique(t *testing.T) {
	assert.Equal(t, "retry_gate", Key(&tele.Callback{Unique: "retry_gate", Data: "\fother|"}))
	assert.Empty(t, Key(nil))
}
