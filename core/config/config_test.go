package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Telegram: TelegramConfig{Token: "123:abc"},
		Mediator: MediatorConfig{APIID: 1, APIHash: " hash ", SessionString: "session"},
		Gate:     GateConfig{Channel: " @news "},
		Support:  SupportConfig{ChatID: -100},
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, Normalize(&cfg))

	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, "@news", cfg.Gate.Channel)
	assert.Equal(t, "hash", cfg.Mediator.APIHash)
	assert.Equal(t, defaultGateTimeoutSeconds, cfg.Gate.TimeoutSeconds)
	assert.Equal(t, defaultRelayIntervalMS, cfg.Relay.IntervalMS)
	assert.Equal(t, defaultRelayBurst, cfg.Relay.Burst)
	assert.Equal(t, defaultCallTimeoutSeconds, cfg.Relay.CallTimeoutSeconds)
	assert.Equal(t, defaultSupportMaxAttempts, cfg.Support.MaxAttempts)
}

func TestNormalizeAcceptsPollingAlias(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = " Polling "
	require.NoError(t, Normalize(&cfg))
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]struct {
		mutate func(*Config)
		want   string
	}{
		"missing token":     {func(c *Config) { c.Telegram.Token = "" }, "telegram token"},
		"bad run mode":      {func(c *Config) { c.Telegram.RunMode = "push" }, "invalid telegram.run_mode"},
		"webhook no url":    {func(c *Config) { c.Telegram.RunMode = RunModeWebhook }, "webhook.url"},
		"bad exclude":       {func(c *Config) { c.RateLimit.ExcludeUpdates = []string{"inline"} }, "exclude_updates"},
		"no api id":         {func(c *Config) { c.Mediator.APIID = 0 }, "mediator.api_id"},
		"no session":        {func(c *Config) { c.Mediator.SessionString = "" }, "mediator.session_string"},
		"no channel":        {func(c *Config) { c.Gate.Channel = "  " }, "gate.channel"},
		"negative interval": {func(c *Config) { c.Relay.IntervalMS = -1 }, "relay.interval_ms"},
		"no support chat":   {func(c *Config) { c.Support.ChatID = 0 }, "support.chat_id"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			require.ErrorContains(t, Normalize(&cfg), tc.want)
		})
	}
	require.Error(t, Normalize(nil))
}

func TestNormalizeLowercasesExcludes(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.ExcludeUpdates = []string{" Callback ", ""}
	require.NoError(t, Normalize(&cfg))
	assert.Equal(t, UpdateCallback, cfg.RateLimit.ExcludeUpdates[0])
}

func TestLoadEnvFile(t *testing.T) {
	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("RELAYBOT_TEST_VAR=from-file\n"), 0o600))
	t.Setenv("RELAYBOT_TEST_VAR", "")
	require.NoError(t, os.Unsetenv("RELAYBOT_TEST_VAR"))

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("RELAYBOT_TEST_VAR"))
}

func TestLoadOverlaysEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
telegram:
  token: "from-yaml"
mediator:
  api_id: 7
  api_hash: "h"
  session_file: "m.session"
gate:
  channel: "@news"
support:
  chat_id: -1
relay:
  interval_ms: 1000
`), 0o600))
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("RELAY_BURST", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, 1000, cfg.Relay.IntervalMS)
	assert.Equal(t, 2, cfg.Relay.Burst)
	assert.Equal(t, 7, cfg.Mediator.APIID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, "failed to read config file")
}
