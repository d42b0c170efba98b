package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "HOTWORK"

// Config holds the service settings. Every key can be overridden by a
// HOTWORK_ environment variable, e.g. HOTWORK_SERVER_PORT.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Phrases PhrasesConfig `mapstructure:"phrases"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// PhrasesConfig points at an optional JSON phrase-book override. Empty
// means the built-in book.
type PhrasesConfig struct {
	File string `mapstructure:"file"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// AutomaticEnv only resolves keys viper already knows about
	v.SetDefault("server.port", 8050)
	v.SetDefault("phrases.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	return v
}

// LoadConfig reads configPath when given, merges HOTWORK_* overrides,
// applies defaults and validates.
func LoadConfig(configPath string) (*Config, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8050
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q must be debug, info, warn or error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format %q must be json or console", c.Log.Format)
	}
	return nil
}
