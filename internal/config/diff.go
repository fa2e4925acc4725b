package config

import (
	"slices"
	"strings"

	logx "vorhof/pkg/logx"
)

// SummarizeChange returns the changed sections and safe structured fields for logging.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 4)
	attrs := make([]logx.Field, 0, 8)

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}
	if strings.TrimSpace(oldCfg.Poll.Schedule) != strings.TrimSpace(newCfg.Poll.Schedule) {
		changed = append(changed, "poll")
		attrs = append(attrs, logx.String("poll.schedule", newCfg.Poll.Schedule))
	}
	if !slices.Equal(oldCfg.Visitors.Excluded, newCfg.Visitors.Excluded) {
		changed = append(changed, "visitors")
		attrs = append(attrs, logx.Int("visitors.excluded", len(newCfg.Visitors.Excluded)))
	}
	// These need a restart; report them so the operator knows.
	if oldCfg.Telegram != newCfg.Telegram {
		changed = append(changed, "telegram")
	}
	if oldCfg.Source != newCfg.Source {
		changed = append(changed, "source")
	}
	if oldCfg.Audit != newCfg.Audit {
		changed = append(changed, "audit")
	}
	if oldCfg.Display != newCfg.Display {
		changed = append(changed, "display")
	}
	return changed, attrs
}

// LiveSections are applied without restart.
var LiveSections = []string{"logging", "poll", "visitors"}
