package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds bot-gateway identity settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

// RateLimitConfig holds settings for inbound per-user flood protection.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// MediatorConfig holds credentials of the user account that delivers relayed messages.
type MediatorConfig struct {
	APIID   int    `yaml:"api_id" envconfig:"API_ID"`
	APIHash string `yaml:"api_hash" envconfig:"API_HASH"`
	// SessionString is a Telethon StringSession export of the mediator account.
	SessionString string `yaml:"session_string" envconfig:"SESSION_STRING"`
	// SessionFile is used when SessionString is empty.
	SessionFile string `yaml:"session_file" envconfig:"MEDIATOR_SESSION_FILE"`
}

// GateConfig configures the channel membership check.
type GateConfig struct {
	Channel        string `yaml:"channel" envconfig:"CHANNEL_USERNAME"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"GATE_TIMEOUT_SECONDS"`
}

// RelayConfig configures the shared outbound limiter and mediator calls.
type RelayConfig struct {
	IntervalMS         int `yaml:"interval_ms" envconfig:"RELAY_INTERVAL_MS"`
	Burst              int `yaml:"burst" envconfig:"RELAY_BURST"`
	CallTimeoutSeconds int `yaml:"call_timeout_seconds" envconfig:"RELAY_CALL_TIMEOUT_SECONDS"`
}

// SupportConfig configures escalation to the operator chat.
type SupportConfig struct {
	ChatID      int64 `yaml:"chat_id" envconfig:"SUPPORT_CHAT_ID"`
	MaxAttempts int   `yaml:"max_attempts" envconfig:"SUPPORT_MAX_ATTEMPTS"`
}

// SenderConfig tunes the asynchronous reply queue.
type SenderConfig struct {
	QueueSize  int `yaml:"queue_size"`
	Workers    int `yaml:"workers"`
	MaxRetries int `yaml:"max_retries"`
}

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Mediator  MediatorConfig  `yaml:"mediator"`
	Gate      GateConfig      `yaml:"gate"`
	Relay     RelayConfig     `yaml:"relay"`
	Support   SupportConfig   `yaml:"support"`
	Sender    SenderConfig    `yaml:"sender"`
}

const (
	defaultRelayIntervalMS    = 5000
	defaultRelayBurst         = 1
	defaultCallTimeoutSeconds = 30
	defaultGateTimeoutSeconds = 30
	defaultSupportMaxAttempts = 3
)

// LoadEnvFile loads variables from a dotenv file when it exists.
// Variables already present in the environment win.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Decode fills target from the YAML file at path and then from the environment.
// target may embed Config together with bot specific sections.
func Decode(path string, target any) error {
	if err := LoadEnvFile(""); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", target); err != nil {
		return fmt.Errorf("failed to process env: %w", err)
	}
	return nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	if err := normalizeMediator(&cfg.Mediator); err != nil {
		return err
	}

	cfg.Gate.Channel = strings.TrimSpace(cfg.Gate.Channel)
	if cfg.Gate.Channel == "" {
		return fmt.Errorf("gate.channel is required")
	}
	if cfg.Gate.TimeoutSeconds <= 0 {
		cfg.Gate.TimeoutSeconds = defaultGateTimeoutSeconds
	}

	if cfg.Relay.IntervalMS < 0 {
		return fmt.Errorf("relay.interval_ms must be >= 0")
	}
	if cfg.Relay.IntervalMS == 0 {
		cfg.Relay.IntervalMS = defaultRelayIntervalMS
	}
	if cfg.Relay.Burst <= 0 {
		cfg.Relay.Burst = defaultRelayBurst
	}
	if cfg.Relay.CallTimeoutSeconds <= 0 {
		cfg.Relay.CallTimeoutSeconds = defaultCallTimeoutSeconds
	}

	if cfg.Support.ChatID == 0 {
		return fmt.Errorf("support.chat_id is required")
	}
	if cfg.Support.MaxAttempts <= 0 {
		cfg.Support.MaxAttempts = defaultSupportMaxAttempts
	}
	return nil
}

func normalizeMediator(m *MediatorConfig) error {
	if m.APIID <= 0 {
		return fmt.Errorf("mediator.api_id is required")
	}
	m.APIHash = strings.TrimSpace(m.APIHash)
	if m.APIHash == "" {
		return fmt.Errorf("mediator.api_hash is required")
	}
	m.SessionString = strings.TrimSpace(m.SessionString)
	m.SessionFile = strings.TrimSpace(m.SessionFile)
	if m.SessionString == "" && m.SessionFile == "" {
		return fmt.Errorf("mediator.session_string or mediator.session_file is required")
	}
	return nil
}
