package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Workdir      string         `yaml:"workdir"`
	LogFile      string         `yaml:"log_file"`
	SettingsFile string         `yaml:"settings_file"`
	Timezone     string         `yaml:"timezone"`
	Location     *time.Location `yaml:"-"`
	Feed         FeedConfig     `yaml:"feed"`
	Alert        AlertConfig    `yaml:"alert"`
	HTTP         HTTPConfig     `yaml:"http"`
	Log          LogConfig      `yaml:"log"`
	TUI          TUIConfig      `yaml:"tui"`
}

type FeedConfig struct {
	URL        string        `yaml:"url"`
	Fallback   string        `yaml:"fallback"`
	Timeout    time.Duration `yaml:"-"`
	RawTimeout string        `yaml:"timeout"`
}

type AlertConfig struct {
	Bell       *bool         `yaml:"bell,omitempty"`
	Command    string        `yaml:"command"`
	Timeout    time.Duration `yaml:"-"`
	RawTimeout string        `yaml:"timeout"`
}

type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TUIConfig struct {
	RefreshInterval time.Duration `yaml:"-"`
	RawInterval     string        `yaml:"refresh_interval"`
}

// Load reads the YAML config at path and applies SLA_MONITOR_* overrides
// from the environment and an optional .env file. A missing config file is
// fine as long as the environment supplies the feed URL.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.setDefaults(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	envString("SLA_MONITOR_FEED_URL", &c.Feed.URL)
	envString("SLA_MONITOR_FALLBACK", &c.Feed.Fallback)
	envString("SLA_MONITOR_SETTINGS_FILE", &c.SettingsFile)
	envString("SLA_MONITOR_LOG_LEVEL", &c.Log.Level)
	envString("SLA_MONITOR_LOG_FILE", &c.LogFile)
	envString("SLA_MONITOR_HTTP_LISTEN", &c.HTTP.Listen)
	envString("SLA_MONITOR_ALERT_COMMAND", &c.Alert.Command)
	envString("SLA_MONITOR_TIMEZONE", &c.Timezone)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func (c *Config) setDefaults() error {
	if c.Workdir == "" {
		c.Workdir = defaultWorkdir()
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.Workdir, "logs", "sla-monitor.log")
	}
	if c.SettingsFile == "" {
		c.SettingsFile = filepath.Join(c.Workdir, "settings.yaml")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	c.Location = loc

	if c.Feed.Timeout, err = parseDuration("feed.timeout", c.Feed.RawTimeout, "30s"); err != nil {
		return err
	}
	if c.Alert.Timeout, err = parseDuration("alert.timeout", c.Alert.RawTimeout, "10s"); err != nil {
		return err
	}
	if c.Alert.Bell == nil {
		defaultTrue := true
		c.Alert.Bell = &defaultTrue
	}

	if c.TUI.RefreshInterval, err = parseDuration("tui.refresh_interval", c.TUI.RawInterval, "1s"); err != nil {
		return err
	}

	return nil
}

func parseDuration(name, raw, def string) (time.Duration, error) {
	if raw == "" {
		raw = def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", name, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, raw)
	}
	return d, nil
}

func (c *Config) validate() error {
	if c.Feed.URL == "" {
		return fmt.Errorf("feed.url required")
	}
	u, err := url.Parse(c.Feed.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("feed.url %q must be an http(s) URL", c.Feed.URL)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q (debug|info|warn|error)", c.Log.Level)
	}
	return nil
}

func defaultWorkdir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "sla-monitor")
	}
	return filepath.Join(os.TempDir(), "sla-monitor")
}
