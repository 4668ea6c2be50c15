package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/relaybot/core/config"
	coretelegram "github.com/m3rciful/relaybot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type fakeApp struct {
	started, stopped, closed bool
}

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		Config: &coreconfig.Config{},
		OnStart: func(context.Context, coretelegram.Runtime) error {
			a.started = true
			return nil
		},
		OnStop: func(context.Context, coretelegram.Runtime) error {
			a.stopped = true
			return nil
		},
	}, nil
}

func (a *fakeApp) Close() error {
	a.closed = true
	return nil
}

func TestRunWiresLifecycle(t *testing.T) {
	t.Setenv("RELAYBOT_TEST_CONFIG", "from-env.yaml")

	app := &fakeApp{}
	var loaded string
	err := run(t.Context(), Options{
		ConfigEnvVar: "RELAYBOT_TEST_CONFIG",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loaded = path
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap:      func(ConfigCarrier) (TelegramApp, error) { return app, nil },
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "from-env.yaml", loaded)
	assert.True(t, app.started)
	assert.True(t, app.stopped)
	assert.True(t, app.closed)
}

func TestRunErrors(t *testing.T) {
	require.Error(t, run(t.Context(), Options{}))

	t.Setenv("CONFIG_PATH", "")
	err := run(t.Context(), Options{
		LoadConfig: func(string) (ConfigCarrier, error) { return nil, nil },
		Bootstrap:  func(ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	require.ErrorContains(t, err, "config path not provided")

	err = run(t.Context(), Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(string) (ConfigCarrier, error) {
			return nil, errors.New("no such file")
		},
		Bootstrap: func(ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	require.ErrorContains(t, err, "failed to load config")
}

func TestConfigPathPrecedence(t *testing.T) {
	t.Setenv("CONFIG_PATH", "env.yaml")

	p, err := configPath(Options{ConfigPath: "flag.yaml", DefaultConfigPath: "default.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "flag.yaml", p)

	p, err = configPath(Options{DefaultConfigPath: "default.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "env.yaml", p)

	t.Setenv("CONFIG_PATH", "")
	p, err = configPath(Options{DefaultConfigPath: "default.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "default.yaml", p)
}
