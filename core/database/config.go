package database

import (
	"strings"
	"time"
)

const defaultRetentionDays = 30

// Config holds Postgres settings for the relay journal.
// An empty Host disables the database and the bot falls back to an in-memory journal.
type Config struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	MigrationsDir  string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
	// RetentionDays bounds how long journal entries are kept; negative keeps them forever.
	RetentionDays int `yaml:"retention_days" envconfig:"DB_RETENTION_DAYS"`
	// PseudonymKey keys the sender pseudonyms. Without it they change on every restart.
	PseudonymKey string `yaml:"pseudonym_key" envconfig:"DB_PSEUDONYM_KEY"`
}

// Enabled reports whether a database has been configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Host) != ""
}

// Retention returns how long journal entries are kept, or zero to keep them forever.
func (c Config) Retention() time.Duration {
	switch {
	case c.RetentionDays < 0:
		return 0
	case c.RetentionDays == 0:
		return defaultRetentionDays * 24 * time.Hour
	}
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func (c Config) sslMode() string {
	if c.SSLMode == "" {
		return "disable"
	}
	return c.SSLMode
}

func (c Config) poolSize() int {
	if c.MaxConnections <= 0 {
		return 4
	}
	return c.MaxConnections
}
