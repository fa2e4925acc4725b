package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VORHOF_"

// envOverrides lists the environment variables that override file config.
// Empty values leave the file config untouched.
type envOverrides struct {
	LogLevel            string `env:"LOG_LEVEL"`
	PollSchedule        string `env:"POLL_SCHEDULE"`
	SourcePath          string `env:"SOURCE_PATH"`
	AuditDriver         string `env:"AUDIT_DRIVER"`
	AuditPath           string `env:"AUDIT_PATH"`
	TelegramCredentials string `env:"TELEGRAM_CREDENTIALS"`
}

// CredentialOverrides are read separately so secrets never end up in Config.
type CredentialOverrides struct {
	Token  string `env:"TELEGRAM_TOKEN"`
	ChatID string `env:"TELEGRAM_CHAT_ID"`
}

// ApplyEnv overlays VORHOF_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Logging.Level, o.LogLevel)
	set(&cfg.Poll.Schedule, o.PollSchedule)
	set(&cfg.Source.Path, o.SourcePath)
	set(&cfg.Audit.Driver, o.AuditDriver)
	set(&cfg.Audit.Path, o.AuditPath)
	set(&cfg.Telegram.CredentialsFile, o.TelegramCredentials)
	return nil
}

// ParseCredentialOverrides reads VORHOF_TELEGRAM_TOKEN / VORHOF_TELEGRAM_CHAT_ID.
func ParseCredentialOverrides() (CredentialOverrides, error) {
	var o CredentialOverrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix}); err != nil {
		return CredentialOverrides{}, fmt.Errorf("parse env: %w", err)
	}
	return o, nil
}
