package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
workdir: /var/lib/sla-monitor
timezone: UTC
feed:
  url: https://feeds.example.com/indicadores?sig=abc
  fallback: /var/lib/sla-monitor/tickets.json
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogFile != "/var/lib/sla-monitor/logs/sla-monitor.log" {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
	if cfg.SettingsFile != "/var/lib/sla-monitor/settings.yaml" {
		t.Errorf("SettingsFile = %q", cfg.SettingsFile)
	}
	if cfg.Feed.Timeout != 30*time.Second {
		t.Errorf("Feed.Timeout = %s", cfg.Feed.Timeout)
	}
	if cfg.Alert.Timeout != 10*time.Second || !*cfg.Alert.Bell {
		t.Errorf("Alert = %+v", cfg.Alert)
	}
	if cfg.TUI.RefreshInterval != time.Second {
		t.Errorf("TUI.RefreshInterval = %s", cfg.TUI.RefreshInterval)
	}
	if cfg.Location != time.UTC {
		t.Errorf("Location = %s", cfg.Location)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SLA_MONITOR_FEED_URL", "https://override.example.com/feed")
	t.Setenv("SLA_MONITOR_LOG_LEVEL", "debug")
	t.Setenv("SLA_MONITOR_HTTP_LISTEN", "127.0.0.1:8089")

	path := writeConfig(t, "feed:\n  url: https://file.example.com/feed\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Feed.URL != "https://override.example.com/feed" {
		t.Errorf("Feed.URL = %q", cfg.Feed.URL)
	}
	if cfg.Log.Level != "debug" || cfg.HTTP.Listen != "127.0.0.1:8089" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("SLA_MONITOR_FEED_URL", "https://env.example.com/feed")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Feed.URL != "https://env.example.com/feed" {
		t.Errorf("Feed.URL = %q", cfg.Feed.URL)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := map[string]struct {
		body string
		want string
	}{
		"missing url":   {"log:\n  level: info\n", "feed.url required"},
		"bad scheme":    {"feed:\n  url: ftp://x/y\n", "http(s) URL"},
		"bad level":     {"feed:\n  url: https://x/y\nlog:\n  level: loud\n", "invalid log.level"},
		"bad timeout":   {"feed:\n  url: https://x/y\n  timeout: later\n", "feed.timeout"},
		"zero interval": {"feed:\n  url: https://x/y\ntui:\n  refresh_interval: 0s\n", "must be positive"},
		"bad timezone":  {"feed:\n  url: https://x/y\ntimezone: Mars/Olympus\n", "timezone"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
