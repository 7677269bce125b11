package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// clearEnv blanks the override variables so ambient shell state cannot
// leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"TELEGRAM_TOKEN", "METROBOT_API_URL", "METROBOT_DATA_DIR", "METROBOT_LISTEN_ADDR", "METROBOT_ALERTS"} {
		t.Setenv(key, "")
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
telegram:
  token: "123:abc"
api:
  baseURL: "https://example.test"
  timeoutSec: 5
bot:
  trainsToShow: 2
alerts:
  enabled: false
server:
  addr: ":9090"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
	if cfg.API.BaseURL != "https://example.test" {
		t.Errorf("baseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout() != 5*time.Second {
		t.Errorf("timeout = %v", cfg.API.Timeout())
	}
	if cfg.Bot.TrainsToShow != 2 {
		t.Errorf("trainsToShow = %d", cfg.Bot.TrainsToShow)
	}
	if cfg.Alerts.Enabled {
		t.Error("alerts should be disabled")
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("server addr = %q", cfg.Server.Addr)
	}

	// Untouched fields keep their defaults.
	if cfg.Bot.FavoritesLimit != 5 {
		t.Errorf("favoritesLimit = %d, want default 5", cfg.Bot.FavoritesLimit)
	}
	if cfg.Bot.ApproachingMinutes != 3 {
		t.Errorf("approachingMinutes = %d, want default 3", cfg.Bot.ApproachingMinutes)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Error("explicit missing file should be an error")
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "from-file"
`)
	t.Setenv("TELEGRAM_TOKEN", "from-env")
	t.Setenv("METROBOT_API_URL", "https://override.test")
	t.Setenv("METROBOT_ALERTS", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Telegram.Token != "from-env" {
		t.Errorf("token = %q, env must win", cfg.Telegram.Token)
	}
	if cfg.API.BaseURL != "https://override.test" {
		t.Errorf("baseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Alerts.Enabled {
		t.Error("METROBOT_ALERTS=false should disable alerts")
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing token", `api: {baseURL: "https://x.test"}`},
		{"bad url", "telegram: {token: t}\napi: {baseURL: \"not a url\"}"},
		{"zero trains", "telegram: {token: t}\nbot: {trainsToShow: 0}"},
		{"negative timeout", "telegram: {token: t}\napi: {timeoutSec: -1}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			path := writeConfig(t, tt.yaml)
			if _, err := Load(path); err == nil {
				t.Errorf("expected validation error for %s", tt.name)
			}
		})
	}
}
