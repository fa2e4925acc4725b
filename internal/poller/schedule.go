package poller

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// SpecKind describes the normalized kind of a schedule string.
type SpecKind int

const (
	SpecInterval SpecKind = iota
	SpecCron
)

// Schedule decides when the next cycle starts.
//
// Supported forms:
//   - Interval duration: "10s", "2m30s"
//   - Interval HH:MM: "00:05" (5 minutes)
//   - Cron: "*/1 * * * *", "*/10 * * * * *" (with seconds), "@every 10s", "@hourly"
//
// Optional prefixes "cron:" and "interval:"/"every:" force the kind.
type Schedule struct {
	Kind   SpecKind
	Raw    string
	Every  time.Duration
	Source string // "duration" | "hhmm" | "cron"

	cron cron.Schedule
}

var (
	reHHMM = regexp.MustCompile(`^\s*(\d{1,3}):(\d{2})\s*$`)

	// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
	cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
)

// Every returns a fixed-interval schedule.
func Every(d time.Duration) Schedule {
	return Schedule{Kind: SpecInterval, Raw: d.String(), Every: d, Source: "duration"}
}

// Next returns the start of the cycle following one that started at t.
func (s Schedule) Next(t time.Time) time.Time {
	if s.Kind == SpecCron && s.cron != nil {
		return s.cron.Next(t)
	}
	return t.Add(s.Every)
}

func (s Schedule) String() string { return s.Raw }

// ParseSchedule parses a poll schedule string.
func ParseSchedule(raw string) (Schedule, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Schedule{}, fmt.Errorf("schedule required")
	}

	low := strings.ToLower(s)
	switch {
	case strings.HasPrefix(low, "cron:"):
		return parseCron(raw, strings.TrimSpace(s[len("cron:"):]))
	case strings.HasPrefix(low, "interval:"):
		return parseInterval(raw, strings.TrimSpace(s[len("interval:"):]))
	case strings.HasPrefix(low, "every:"):
		return parseInterval(raw, strings.TrimSpace(s[len("every:"):]))
	}

	// any whitespace or leading '@' => cron
	if strings.ContainsAny(s, " \t\n\r") || strings.HasPrefix(s, "@") {
		return parseCron(raw, s)
	}
	return parseInterval(raw, s)
}

func parseCron(raw, expr string) (Schedule, error) {
	if expr == "" {
		return Schedule{}, fmt.Errorf("cron schedule required")
	}
	cs, err := cronParser.Parse(expr)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid cron schedule %q: %w", expr, err)
	}
	return Schedule{Kind: SpecCron, Raw: strings.TrimSpace(raw), Source: "cron", cron: cs}, nil
}

func parseInterval(raw, v string) (Schedule, error) {
	if v == "" {
		return Schedule{}, fmt.Errorf("interval required")
	}
	if reHHMM.MatchString(v) {
		d, err := parseHHMM(v)
		if err != nil {
			return Schedule{}, err
		}
		return Schedule{Kind: SpecInterval, Raw: strings.TrimSpace(raw), Every: d, Source: "hhmm"}, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return Schedule{}, fmt.Errorf(
			"invalid schedule %q (use a duration like '10s', HH:MM like '00:05', or cron like '*/1 * * * *')", raw)
	}
	if d <= 0 {
		return Schedule{}, fmt.Errorf("interval must be > 0")
	}
	return Schedule{Kind: SpecInterval, Raw: strings.TrimSpace(raw), Every: d, Source: "duration"}, nil
}

func parseHHMM(v string) (time.Duration, error) {
	m := reHHMM.FindStringSubmatch(v)
	if len(m) != 3 {
		return 0, fmt.Errorf("invalid HH:MM %q", v)
	}
	var hh int
	for i := 0; i < len(m[1]); i++ {
		hh = hh*10 + int(m[1][i]-'0')
	}
	mm := int(m[2][0]-'0')*10 + int(m[2][1]-'0')
	if mm > 59 {
		return 0, fmt.Errorf("invalid minutes in %q", v)
	}
	d := time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute
	if d <= 0 {
		return 0, fmt.Errorf("interval must be > 0")
	}
	return d, nil
}
