package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Notification platform identifiers.
const (
	PlatformTerminal = "terminal"
	PlatformTelegram = "telegram"
)

// BackendConfig holds the hosted backend connection settings.
type BackendConfig struct {
	// URL is the root URL of the backend project.
	URL string `mapstructure:"url" yaml:"url"`

	// AnonKey is the public API key sent with every request.
	AnonKey string `mapstructure:"anon_key" yaml:"anon_key"`
}

// ReminderConfig controls the due-date reminder checker.
type ReminderConfig struct {
	Interval     time.Duration `mapstructure:"interval" yaml:"interval"`
	Lookahead    time.Duration `mapstructure:"lookahead" yaml:"lookahead"`
	DedupWindow  time.Duration `mapstructure:"dedup_window" yaml:"dedup_window"`
	DismissAfter time.Duration `mapstructure:"dismiss_after" yaml:"dismiss_after"`

	// Timezone is an IANA zone name used to format due times. Empty
	// means the local zone.
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

// TelegramConfig holds credentials for the Telegram notification platform.
type TelegramConfig struct {
	Token  string `mapstructure:"token" yaml:"token"`
	ChatID int64  `mapstructure:"chat_id" yaml:"chat_id"`
}

// NotifyConfig selects and configures the notification platform.
type NotifyConfig struct {
	Platform string         `mapstructure:"platform" yaml:"platform"`
	Telegram TelegramConfig `mapstructure:"telegram" yaml:"telegram"`
}

// StoreConfig locates the local key-value database.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme      string `mapstructure:"theme" yaml:"theme"`
	AgendaDays int    `mapstructure:"agenda_days" yaml:"agenda_days"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Backend  BackendConfig  `mapstructure:"backend" yaml:"backend"`
	Reminder ReminderConfig `mapstructure:"reminder" yaml:"reminder"`
	Notify   NotifyConfig   `mapstructure:"notify" yaml:"notify"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
}

// Location resolves the configured timezone, falling back to time.Local.
func (c ReminderConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DefaultConfigDir returns ~/.config/evaltracker.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "evaltracker")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/evaltracker/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Reminder: ReminderConfig{
			Interval:     30 * time.Minute,
			Lookahead:    24 * time.Hour,
			DedupWindow:  48 * time.Hour,
			DismissAfter: 8 * time.Second,
		},
		Notify: NotifyConfig{
			Platform: PlatformTerminal,
		},
		Store: StoreConfig{
			Path: filepath.Join(DefaultConfigDir(), "evaltracker.db"),
		},
		Display: DisplayConfig{
			Theme:      "default",
			AgendaDays: 7,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := defaultAppConfig()
	v.SetDefault("reminder.interval", d.Reminder.Interval)
	v.SetDefault("reminder.lookahead", d.Reminder.Lookahead)
	v.SetDefault("reminder.dedup_window", d.Reminder.DedupWindow)
	v.SetDefault("reminder.dismiss_after", d.Reminder.DismissAfter)
	v.SetDefault("reminder.timezone", "")
	v.SetDefault("notify.platform", d.Notify.Platform)
	v.SetDefault("notify.telegram.token", "")
	v.SetDefault("notify.telegram.chat_id", 0)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("display.theme", d.Display.Theme)
	v.SetDefault("display.agenda_days", d.Display.AgendaDays)
	v.SetDefault("backend.url", "")
	v.SetDefault("backend.anon_key", "")
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with EVALTRACKER_ override file values
// (e.g. EVALTRACKER_BACKEND_URL). A missing file yields the defaults.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("evaltracker")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Reminder.Interval <= 0 {
		cfg.Reminder.Interval = 30 * time.Minute
	}
	if cfg.Display.AgendaDays <= 0 {
		cfg.Display.AgendaDays = 7
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("backend", map[string]any{
		"url":      cfg.Backend.URL,
		"anon_key": cfg.Backend.AnonKey,
	})
	v.Set("reminder", map[string]any{
		"interval":      cfg.Reminder.Interval.String(),
		"lookahead":     cfg.Reminder.Lookahead.String(),
		"dedup_window":  cfg.Reminder.DedupWindow.String(),
		"dismiss_after": cfg.Reminder.DismissAfter.String(),
		"timezone":      cfg.Reminder.Timezone,
	})
	v.Set("notify", map[string]any{
		"platform": cfg.Notify.Platform,
		"telegram": map[string]any{
			"token":   cfg.Notify.Telegram.Token,
			"chat_id": cfg.Notify.Telegram.ChatID,
		},
	})
	v.Set("store", map[string]any{"path": cfg.Store.Path})
	v.Set("display", map[string]any{
		"theme":       cfg.Display.Theme,
		"agenda_days": cfg.Display.AgendaDays,
	})

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
