package config

import (
	"vorhof/internal/visitor"
)

// Config is the on-disk configuration (JSON or YAML).
// Every field is optional; Defaults() fills the gaps.
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Source   SourceConfig   `json:"source"`
	Audit    AuditConfig    `json:"audit"`
	Poll     PollConfig     `json:"poll"`
	Visitors VisitorsConfig `json:"visitors"`
	Display  DisplayConfig  `json:"display"`
	Logging  LoggingConfig  `json:"logging"`
}

// TelegramConfig controls the push notification sink.
//
// Credentials are not stored here; they live in a separate JSON file
// ({"telegram_token": "...", "chat_id": "..."}) so the config can be shared.
type TelegramConfig struct {
	CredentialsFile string `json:"credentials_file,omitempty"`
	// Timeout is a Go duration string (e.g. "5s").
	Timeout    string `json:"timeout,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
	// APIURL overrides https://api.telegram.org (tests, self-hosted bot API).
	APIURL string `json:"api_url,omitempty"`
}

// SourceConfig points at the snapshot file polled every cycle.
type SourceConfig struct {
	Path string `json:"path,omitempty"`
}

// AuditConfig controls the audit trail.
//
// Driver values:
//   - "json": one JSON array, rewritten on every append (default)
//   - "sqlite": SQLite database file
//   - "none": audit disabled
type AuditConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// PollConfig controls the cycle schedule.
//
// Schedule accepts a Go duration ("10s"), HH:MM ("00:05"), "@every 10s",
// or a cron expression ("*/1 * * * *").
type PollConfig struct {
	Schedule string `json:"schedule,omitempty"`
}

type VisitorsConfig struct {
	// Excluded names never trigger notifications. Nil means defaults;
	// an explicit empty list disables exclusion.
	Excluded []string `json:"excluded,omitempty"`
}

// DisplayConfig controls terminal rendering. Color is "auto", "always" or "never".
type DisplayConfig struct {
	Color string `json:"color,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level,omitempty"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

const (
	DefaultConfigPath      = "./vorhof.yaml"
	DefaultCredentialsFile = "/storage/emulated/0/aurion/telegram_keys.json"
	DefaultTelegramTimeout = "5s"
	DefaultSourcePath      = "new_visitors.json"
	DefaultAuditDriver     = "json"
	DefaultAuditPath       = "vorhof_log.json"
	DefaultPollSchedule    = "10s"
	DefaultColor           = "auto"
)

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	cfg := &Config{Logging: LoggingConfig{Console: true}}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Telegram.CredentialsFile == "" {
		c.Telegram.CredentialsFile = DefaultCredentialsFile
	}
	if c.Telegram.Timeout == "" {
		c.Telegram.Timeout = DefaultTelegramTimeout
	}
	if c.Telegram.RatePerSec <= 0 {
		c.Telegram.RatePerSec = 1
	}
	if c.Source.Path == "" {
		c.Source.Path = DefaultSourcePath
	}
	if c.Audit.Driver == "" {
		c.Audit.Driver = DefaultAuditDriver
	}
	if c.Audit.Path == "" {
		c.Audit.Path = DefaultAuditPath
	}
	if c.Poll.Schedule == "" {
		c.Poll.Schedule = DefaultPollSchedule
	}
	if c.Visitors.Excluded == nil {
		c.Visitors.Excluded = append([]string(nil), visitor.DefaultExcluded...)
	}
	if c.Display.Color == "" {
		c.Display.Color = DefaultColor
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
