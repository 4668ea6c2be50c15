package app

import (
	"fmt"

	coreconfig "github.com/m3rciful/relaybot/core/config"
	"github.com/m3rciful/relaybot/core/conversation"
	coredatabase "github.com/m3rciful/relaybot/core/database"
)

// Config extends the core configuration with the journal database and user-facing texts.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Texts    conversation.Texts  `yaml:"texts"`
}

// CoreConfig implements cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// LoadConfig reads the YAML file at path, applies environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.Texts = cfg.Texts.WithDefaults()
	return &cfg, nil
}
