package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestZeroLoggerIsNoop(t *testing.T) {
	var l Logger
	if !l.IsZero() {
		t.Fatal("zero logger should report IsZero")
	}
	// must not panic
	l.Info("ignored", String("k", "v"))
	if Nop().IsZero() {
		t.Fatal("Nop() should not be zero")
	}
}

func TestWriterLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := newWriter(&buf, "debug").With(String("comp", "test"))
	l.Warn("sink failed", Err(errors.New("boom")), Int("n", 3))

	var m map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if m["comp"] != "test" || m["message"] != "sink failed" || m["level"] != "warn" {
		t.Fatalf("unexpected record: %v", m)
	}
	if m["n"] != float64(3) {
		t.Fatalf("n = %v, want 3", m["n"])
	}
	if caller, _ := m["caller"].(string); !strings.HasPrefix(caller, "logging_test.go:") {
		t.Fatalf("caller not short: %v", m["caller"])
	}
}

func TestWriterLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := newWriter(&buf, "warn")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug written at warn level: %q", buf.String())
	}
	if l.Enabled(LevelDebug) {
		t.Fatal("debug should be disabled")
	}
	if !l.Enabled(LevelError) {
		t.Fatal("error should be enabled")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{" WARNING ", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in, LevelInfo); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
