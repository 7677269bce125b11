// Package config handles application configuration loading and validation.
//
// Configuration is loaded from a YAML file and validated using struct
// tags. Environment variables override file values for the secrets and
// paths that differ per deployment; everything else has defaults that
// match the public MovGR API, so the bot runs with nothing but a token.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/granametro/metrobot/internal/movgr"
)

// DefaultPath is tried when no -config flag is given.
const DefaultPath = "config.yml"

// TelegramConfig contains the chat-platform credentials.
type TelegramConfig struct {
	Token string `yaml:"token" validate:"required"`
}

// APIConfig contains the MovGR API settings.
type APIConfig struct {
	BaseURL     string `yaml:"baseURL" validate:"required,url"`
	TimeoutSec  int    `yaml:"timeoutSec" validate:"gt=0"`
	CacheTTLSec int    `yaml:"cacheTTLSec" validate:"gte=0"`
}

// BotConfig contains presentation settings.
type BotConfig struct {
	TrainsToShow       int `yaml:"trainsToShow" validate:"gt=0"`
	FavoritesLimit     int `yaml:"favoritesLimit" validate:"gt=0"`
	ApproachingMinutes int `yaml:"approachingMinutes" validate:"gt=0"`
	RefreshIntervalMin int `yaml:"refreshIntervalMin" validate:"gt=0"`
}

// AlertsConfig contains the approach-alert settings.
type AlertsConfig struct {
	Enabled         bool `yaml:"enabled"`
	PollIntervalSec int  `yaml:"pollIntervalSec" validate:"gt=0"`
}

// DataConfig locates the JSON state files.
type DataConfig struct {
	Dir string `yaml:"dir" validate:"required"`
}

// ServerConfig contains the ops HTTP API settings. An empty address
// disables the server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the root configuration structure.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	API      APIConfig      `yaml:"api"`
	Bot      BotConfig      `yaml:"bot"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Data     DataConfig     `yaml:"data"`
	Server   ServerConfig   `yaml:"server"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:     movgr.DefaultBaseURL,
			TimeoutSec:  10,
			CacheTTLSec: 30,
		},
		Bot: BotConfig{
			TrainsToShow:       4,
			FavoritesLimit:     5,
			ApproachingMinutes: 3,
			RefreshIntervalMin: 360,
		},
		Alerts: AlertsConfig{
			Enabled:         true,
			PollIntervalSec: 30,
		},
		Data: DataConfig{
			Dir: "data",
		},
	}
}

// Load reads the config file at path, applies environment overrides and
// validates the result. A missing file at the default path is fine; a
// missing file at an explicit path is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !(os.IsNotExist(err) && path == DefaultPath) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	applyEnv(&cfg)

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Telegram.Token = envStr("TELEGRAM_TOKEN", cfg.Telegram.Token)
	cfg.API.BaseURL = envStr("METROBOT_API_URL", cfg.API.BaseURL)
	cfg.Data.Dir = envStr("METROBOT_DATA_DIR", cfg.Data.Dir)
	cfg.Server.Addr = envStr("METROBOT_LISTEN_ADDR", cfg.Server.Addr)
	cfg.Alerts.Enabled = envBool("METROBOT_ALERTS", cfg.Alerts.Enabled)
}

// Timeout returns the API request timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// CacheTTL returns how long API responses may be served from cache.
func (c APIConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

// RefreshInterval returns how often the stop registry is refreshed.
func (c BotConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMin) * time.Minute
}

// PollInterval returns how often the alert sweeper runs.
func (c AlertsConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
