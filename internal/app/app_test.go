package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"vorhof/internal/config"
	"vorhof/internal/notify"
	"vorhof/internal/visitor"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func setup(t *testing.T, driver string) (cfgPath string, dir string) {
	t.Helper()
	dir = t.TempDir()
	writeFile(t, filepath.Join(dir, "visitors.json"), `[{"name":"Nadia","land":"DE","hand_found":false},{"name":""}]`)
	cfg := map[string]any{
		"telegram": map[string]any{"credentials_file": filepath.Join(dir, "missing_keys.json")},
		"source":   map[string]any{"path": filepath.Join(dir, "visitors.json")},
		"audit":    map[string]any{"driver": driver, "path": filepath.Join(dir, "audit."+driver)},
		"poll":     map[string]any{"schedule": "10ms"},
		"display":  map[string]any{"color": "never"},
		"logging":  map[string]any{"level": "error", "console": false},
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	cfgPath = filepath.Join(dir, "vorhof.json")
	writeFile(t, cfgPath, string(b))
	return cfgPath, dir
}

func TestRunPollsUntilCanceled(t *testing.T) {
	cfgPath, _ := setup(t, "json")
	var out bytes.Buffer
	a := New(cfgPath, &out)
	t.Cleanup(func() { _ = a.Close() })

	var states []string
	a.sdNotif = func(state string) (bool, error) {
		states = append(states, state)
		return false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := strings.Count(out.String(), "Name: Nadia |"); got != 1 {
		t.Fatalf("rendered Nadia %d times, want 1:\n%s", got, out.String())
	}
	if len(states) < 3 || states[0] != daemon.SdNotifyReady || states[len(states)-1] != daemon.SdNotifyStopping {
		t.Fatalf("sd_notify states = %v", states)
	}

	var dump bytes.Buffer
	if err := DumpAudit(context.Background(), cfgPath, &dump); err != nil {
		t.Fatalf("DumpAudit: %v", err)
	}
	var entries []visitor.Visitor
	if err := json.Unmarshal(dump.Bytes(), &entries); err != nil {
		t.Fatalf("decode dump: %v\n%s", err, dump.String())
	}
	if len(entries) != 1 || entries[0].Name != "Nadia" || entries[0].Status != visitor.DefaultStatus {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestDumpAuditSQLite(t *testing.T) {
	cfgPath, _ := setup(t, "sqlite")
	a := New(cfgPath, &bytes.Buffer{})
	a.sdNotif = nil
	a.poll.Cycle(context.Background())
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var dump bytes.Buffer
	if err := DumpAudit(context.Background(), cfgPath, &dump); err != nil {
		t.Fatalf("DumpAudit: %v", err)
	}
	if !strings.Contains(dump.String(), `"name": "Nadia"`) {
		t.Fatalf("dump = %s", dump.String())
	}
}

func TestDumpAuditDisabled(t *testing.T) {
	cfgPath, _ := setup(t, "none")
	if err := DumpAudit(context.Background(), cfgPath, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for disabled audit")
	}
}

func TestApplyLiveSections(t *testing.T) {
	cfgPath, _ := setup(t, "none")
	a := New(cfgPath, &bytes.Buffer{})
	t.Cleanup(func() { _ = a.Close() })

	next := *a.applied
	next.Poll.Schedule = "1m"
	next.Visitors.Excluded = []string{"Nadia"}
	a.apply(&next)

	if got := a.poll.Schedule().Every; got != time.Minute {
		t.Fatalf("schedule = %v, want 1m", got)
	}
	if a.applied != &next {
		t.Fatal("applied config not recorded")
	}

	bad := next
	bad.Poll.Schedule = "whenever"
	a.apply(&bad)
	if got := a.poll.Schedule().Every; got != defaultInterval {
		t.Fatalf("schedule after invalid value = %v, want %v", got, defaultInterval)
	}
}

func TestNewWithMissingConfigUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	a := New(filepath.Join(dir, "absent.yaml"), &bytes.Buffer{})
	t.Cleanup(func() { _ = a.Close() })
	if a.applied.Source.Path != config.DefaultSourcePath {
		t.Fatalf("source path = %q", a.applied.Source.Path)
	}
	if got := a.poll.Schedule().Every; got != defaultInterval {
		t.Fatalf("schedule = %v", got)
	}
}

func TestRunSendsThroughTelegram(t *testing.T) {
	var (
		mu    sync.Mutex
		texts []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var params map[string]any
		_ = json.Unmarshal(body, &params)
		mu.Lock()
		if s, ok := params["text"].(string); ok {
			texts = append(texts, s)
		}
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "visitors.json"), `[{"name":"Auriel"},{"name":"Nadia","land":"DE"}]`)
	writeFile(t, filepath.Join(dir, "keys.json"), `{"telegram_token":"123:abc","chat_id":42}`)
	cfgPath := filepath.Join(dir, "vorhof.yaml")
	writeFile(t, cfgPath, strings.Join([]string{
		"telegram:",
		"  credentials_file: " + filepath.Join(dir, "keys.json"),
		"  api_url: " + srv.URL,
		"source:",
		"  path: " + filepath.Join(dir, "visitors.json"),
		"audit:",
		"  driver: none",
		"poll:",
		"  schedule: 10ms",
		"display:",
		"  color: never",
		"logging:",
		"  level: error",
		"",
	}, "\n"))

	var out bytes.Buffer
	a := New(cfgPath, &out)
	t.Cleanup(func() { _ = a.Close() })
	if a.tg == nil {
		t.Fatal("telegram sink not configured")
	}
	a.sdNotif = nil

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(texts) != 1 || texts[0] != "Neuer Besucher: Nadia — Hände gefunden: false" {
		t.Fatalf("sent = %q", texts)
	}
	sent, failed, lastErr := sendSummary(a.tg.History())
	if sent != 1 || failed != 0 || lastErr != "" {
		t.Fatalf("summary = %d sent, %d failed, %q", sent, failed, lastErr)
	}
	if !strings.Contains(out.String(), "Name: Auriel |") {
		t.Fatalf("excluded visitor not displayed:\n%s", out.String())
	}
}

func TestSendSummary(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		h       []notify.HistoryItem
		sent    int
		failed  int
		lastErr string
	}{
		{name: "empty"},
		{name: "all ok", h: []notify.HistoryItem{{Text: "a"}, {Text: "b"}}, sent: 2},
		{
			name:    "last error wins",
			h:       []notify.HistoryItem{{Err: "first"}, {Text: "ok"}, {Err: "second"}},
			sent:    1,
			failed:  2,
			lastErr: "second",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sent, failed, lastErr := sendSummary(tt.h)
			if sent != tt.sent || failed != tt.failed || lastErr != tt.lastErr {
				t.Fatalf("got (%d, %d, %q), want (%d, %d, %q)", sent, failed, lastErr, tt.sent, tt.failed, tt.lastErr)
			}
		})
	}
}
