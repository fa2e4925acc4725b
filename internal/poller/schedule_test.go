package poller

import (
	"testing"
	"time"
)

func TestParseScheduleVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		raw      string
		kind     SpecKind
		source   string
		duration time.Duration
	}{
		{name: "duration", raw: "10s", kind: SpecInterval, source: "duration", duration: 10 * time.Second},
		{name: "prefixed interval", raw: "interval:45s", kind: SpecInterval, source: "duration", duration: 45 * time.Second},
		{name: "every prefix", raw: "every:2m", kind: SpecInterval, source: "duration", duration: 2 * time.Minute},
		{name: "hhmm", raw: "01:30", kind: SpecInterval, source: "hhmm", duration: 90 * time.Minute},
		{name: "cron", raw: "*/5 * * * *", kind: SpecCron, source: "cron"},
		{name: "cron seconds", raw: "*/10 * * * * *", kind: SpecCron, source: "cron"},
		{name: "descriptor", raw: "@every 10s", kind: SpecCron, source: "cron"},
		{name: "prefixed cron", raw: "cron:0 0 * * *", kind: SpecCron, source: "cron"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSchedule(tt.raw)
			if err != nil {
				t.Fatalf("ParseSchedule(%q) error: %v", tt.raw, err)
			}
			if got.Kind != tt.kind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.kind)
			}
			if got.Source != tt.source {
				t.Fatalf("Source = %s, want %s", got.Source, tt.source)
			}
			if tt.kind == SpecInterval && got.Every != tt.duration {
				t.Fatalf("Every = %v, want %v", got.Every, tt.duration)
			}
		})
	}
}

func TestParseScheduleInvalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "soon", "-5s", "0s", "00:00", "01:75", "cron:", "cron:61 * * * *"} {
		if _, err := ParseSchedule(raw); err == nil {
			t.Fatalf("ParseSchedule(%q): expected error", raw)
		}
	}
}

func TestScheduleNext(t *testing.T) {
	t.Parallel()
	base := time.Date(2024, 5, 1, 12, 0, 7, 0, time.UTC)

	if got := Every(10 * time.Second).Next(base); !got.Equal(base.Add(10 * time.Second)) {
		t.Fatalf("interval next = %v", got)
	}

	s, err := ParseSchedule("*/10 * * * * *")
	if err != nil {
		t.Fatalf("ParseSchedule: %v", err)
	}
	want := time.Date(2024, 5, 1, 12, 0, 10, 0, time.UTC)
	if got := s.Next(base); !got.Equal(want) {
		t.Fatalf("cron next = %v, want %v", got, want)
	}
}
