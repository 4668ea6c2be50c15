package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
telegram:
  token: "123:abc"
  admin_id: 42
mediator:
  api_id: 1001
  api_hash: "hash"
  session_file: "mediator.session"
gate:
  channel: "@news"
support:
  chat_id: -100500
texts:
  delivered: "Sent to {handle}!"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	core := cfg.CoreConfig()
	assert.Equal(t, "123:abc", core.Telegram.Token)
	assert.Equal(t, int64(42), core.Telegram.AdminID)
	assert.Equal(t, "longpoll", core.Telegram.RunMode)
	assert.Equal(t, "@news", core.Gate.Channel)
	assert.Equal(t, 5000, core.Relay.IntervalMS)
	assert.Equal(t, 3, core.Support.MaxAttempts)
	assert.False(t, cfg.Database.Enabled())

	assert.Equal(t, "Sent to {handle}!", cfg.Texts.Delivered)
	assert.NotEmpty(t, cfg.Texts.JoinPrompt)
}

func TestLoadConfigEnvironmentWins(t *testing.T) {
	t.Setenv("BOT_TOKEN", "999:env")
	t.Setenv("CHANNEL_USERNAME", "@other")
	t.Setenv("DB_HOST", "postgres")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "999:env", cfg.Telegram.Token)
	assert.Equal(t, "@other", cfg.Gate.Channel)
	assert.True(t, cfg.Database.Enabled())
}

func TestLoadConfigRejectsMissingSupportChat(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
telegram:
  token: "123:abc"
mediator:
  api_id: 1
  api_hash: "h"
  session_string: "s"
gate:
  channel: "@news"
`))
	require.ErrorContains(t, err, "support.chat_id")
}
