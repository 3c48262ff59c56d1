// Package config loads the TOML user configuration from ~/.conf-deck.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// FileName is the user config file inside the conf-deck directory.
const FileName = "config.toml"

// Config is the user-facing configuration.
type Config struct {
	// Theme sets the color scheme: "dark" (default), "light", or "system"
	Theme string `toml:"theme"`

	// TimeZone is an IANA zone name used for day grouping. Empty means the
	// machine's local zone.
	TimeZone string `toml:"time_zone"`

	Schedule      ScheduleSettings     `toml:"schedule"`
	Search        SearchSettings       `toml:"search"`
	Notifications NotificationSettings `toml:"notifications"`
	Logs          LogSettings          `toml:"logs"`
}

// ScheduleSettings defines where the schedule comes from.
type ScheduleSettings struct {
	// URL is the remote schedule endpoint returning the session JSON array.
	URL string `toml:"url"`

	// File is a local schedule JSON file. When set it takes precedence
	// over URL and is watched for changes.
	File string `toml:"file"`

	// LiveURL is an optional websocket endpoint announcing schedule
	// updates. Empty disables the live channel.
	LiveURL string `toml:"live_url"`

	// RefreshIntervalMinutes is the periodic refetch interval (default: 5).
	RefreshIntervalMinutes int `toml:"refresh_interval_minutes"`
}

// SearchSettings tunes the filter pipeline.
type SearchSettings struct {
	// DebounceMS is the quiet window coalescing filter changes (default: 100).
	DebounceMS int `toml:"debounce_ms"`
}

// NotificationSettings controls web push reminders for bookmarked sessions.
type NotificationSettings struct {
	// Enabled turns reminders on (default: false).
	Enabled bool `toml:"enabled"`

	// LeadMinutes is how long before a bookmarked session starts the
	// reminder fires (default: 10).
	LeadMinutes int `toml:"lead_minutes"`

	// Subject is the VAPID subject (mailto: or https: URL).
	Subject string `toml:"subject"`
}

// LogSettings controls debug logging.
type LogSettings struct {
	// Level is "debug", "info", "warn", or "error" (default: "info").
	Level string `toml:"level"`

	// Format is "json" (default) or "text".
	Format string `toml:"format"`

	// MaxSizeMB is the rotation threshold (default: 10).
	MaxSizeMB int `toml:"max_size_mb"`

	// MaxBackups is rotated files to keep (default: 3).
	MaxBackups int `toml:"max_backups"`
}

var defaultConfig = Config{
	Theme: "dark",
	Schedule: ScheduleSettings{
		RefreshIntervalMinutes: 5,
	},
	Search: SearchSettings{
		DebounceMS: 100,
	},
	Notifications: NotificationSettings{
		LeadMinutes: 10,
	},
	Logs: LogSettings{
		Level:      "info",
		Format:     "json",
		MaxSizeMB:  10,
		MaxBackups: 3,
	},
}

var (
	cache   *Config
	cacheMu sync.RWMutex
)

// Dir returns the base conf-deck directory (~/.conf-deck).
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".conf-deck"), nil
}

// Path returns the path to the user config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads the user config, applying defaults for anything unset. A
// missing file yields the defaults; a parse error also yields the defaults
// so the app can start, with the error returned for display.
func Load() (*Config, error) {
	cacheMu.RLock()
	if cache != nil {
		defer cacheMu.RUnlock()
		return cache, nil
	}
	cacheMu.RUnlock()

	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cache != nil {
		return cache, nil
	}

	path, err := Path()
	if err != nil {
		c := defaultConfig
		cache = &c
		return cache, nil
	}
	cfg, err := loadFrom(path)
	cache = cfg
	return cfg, err
}

// Reload drops the cache and reads the file again.
func Reload() (*Config, error) {
	cacheMu.Lock()
	cache = nil
	cacheMu.Unlock()
	return Load()
}

func loadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		c := defaultConfig
		return &c, nil
	}

	cfg := defaultConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		c := defaultConfig
		return &c, fmt.Errorf("config.toml parse error: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Theme == "" {
		cfg.Theme = defaultConfig.Theme
	}
	if cfg.Schedule.RefreshIntervalMinutes <= 0 {
		cfg.Schedule.RefreshIntervalMinutes = defaultConfig.Schedule.RefreshIntervalMinutes
	}
	if cfg.Search.DebounceMS <= 0 {
		cfg.Search.DebounceMS = defaultConfig.Search.DebounceMS
	}
	if cfg.Notifications.LeadMinutes <= 0 {
		cfg.Notifications.LeadMinutes = defaultConfig.Notifications.LeadMinutes
	}
	if cfg.Logs.Level == "" {
		cfg.Logs.Level = defaultConfig.Logs.Level
	}
	if cfg.Logs.Format == "" {
		cfg.Logs.Format = defaultConfig.Logs.Format
	}
	if cfg.Logs.MaxSizeMB <= 0 {
		cfg.Logs.MaxSizeMB = defaultConfig.Logs.MaxSizeMB
	}
	if cfg.Logs.MaxBackups <= 0 {
		cfg.Logs.MaxBackups = defaultConfig.Logs.MaxBackups
	}
}

// Save writes the config atomically and clears the cache so the next Load
// reads fresh values.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}

	cacheMu.Lock()
	cache = nil
	cacheMu.Unlock()
	return nil
}
