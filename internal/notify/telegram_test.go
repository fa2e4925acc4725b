package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	logx "vorhof/pkg/logx"
)

type botAPI struct {
	mu    sync.Mutex
	paths []string
	texts []string
	chats []string
	fail  bool
	delay time.Duration
}

func (b *botAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	body, _ := io.ReadAll(r.Body)
	var params map[string]any
	_ = json.Unmarshal(body, &params)

	b.mu.Lock()
	b.paths = append(b.paths, r.URL.Path)
	if s, ok := params["text"].(string); ok {
		b.texts = append(b.texts, s)
	}
	b.chats = append(b.chats, fmtAny(params["chat_id"]))
	fail := b.fail
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
		return
	}
	_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`)
}

func fmtAny(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}

func newTestTelegram(t *testing.T, api *botAPI, timeout time.Duration) *Telegram {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	tg, err := NewTelegram(Config{Token: "123:abc", ChatID: "42", Timeout: timeout, RatePerSec: 50, APIURL: srv.URL}, logx.Nop())
	if err != nil {
		t.Fatalf("NewTelegram: %v", err)
	}
	return tg
}

func TestNewTelegramRequiresCredentials(t *testing.T) {
	t.Parallel()
	if _, err := NewTelegram(Config{Token: "x"}, logx.Nop()); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("err = %v, want ErrNoCredentials", err)
	}
	if _, err := NewTelegram(Config{ChatID: "1"}, logx.Nop()); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("err = %v, want ErrNoCredentials", err)
	}
}

func TestTelegramNotifySends(t *testing.T) {
	t.Parallel()
	api := &botAPI{}
	tg := newTestTelegram(t, api, time.Second)

	if err := tg.Notify(context.Background(), "Neuer Besucher: Nadia — Hände gefunden: false"); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.paths) != 1 || !strings.HasSuffix(api.paths[0], "/bot123:abc/sendMessage") {
		t.Fatalf("paths = %v", api.paths)
	}
	if len(api.texts) != 1 || api.texts[0] != "Neuer Besucher: Nadia — Hände gefunden: false" {
		t.Fatalf("texts = %q", api.texts)
	}
	if api.chats[0] != "42" {
		t.Fatalf("chat_id = %q", api.chats[0])
	}

	h := tg.History()
	if len(h) != 1 || h[0].Err != "" {
		t.Fatalf("history = %+v", h)
	}
}

func TestTelegramNotifyAPIError(t *testing.T) {
	t.Parallel()
	api := &botAPI{fail: true}
	tg := newTestTelegram(t, api, time.Second)

	if err := tg.Notify(context.Background(), "hello"); err == nil {
		t.Fatal("expected error from failing API")
	}
	h := tg.History()
	if len(h) != 1 || h[0].Err == "" {
		t.Fatalf("history = %+v", h)
	}
}

func TestTelegramNotifyTimeout(t *testing.T) {
	t.Parallel()
	api := &botAPI{delay: 500 * time.Millisecond}
	tg := newTestTelegram(t, api, 100*time.Millisecond)

	start := time.Now()
	if err := tg.Notify(context.Background(), "slow"); err == nil {
		t.Fatal("expected timeout error")
	}
	if took := time.Since(start); took > 400*time.Millisecond {
		t.Fatalf("Notify blocked %v, want about the timeout", took)
	}
}

func TestTelegramNotifyEmptyIsNoop(t *testing.T) {
	t.Parallel()
	api := &botAPI{}
	tg := newTestTelegram(t, api, time.Second)
	if err := tg.Notify(context.Background(), "   "); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.paths) != 0 {
		t.Fatalf("empty text sent: %v", api.paths)
	}
}

func TestDisabledNotify(t *testing.T) {
	t.Parallel()
	if err := (Disabled{}).Notify(context.Background(), "x"); err != nil {
		t.Fatalf("Disabled.Notify: %v", err)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc"},
		{"aä", 2, "a"},
		{"aäb", 3, "aä"},
		{"——", 4, "—"},
		{"ä", 1, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestTelegramNotifyLongTextKeepsRunesWhole(t *testing.T) {
	t.Parallel()
	api := &botAPI{}
	tg := newTestTelegram(t, api, time.Second)

	// odd prefix puts the byte limit in the middle of a two-byte rune
	text := "a" + strings.Repeat("ä", telegramTextLimit)
	if err := tg.Notify(context.Background(), text); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.texts) != 1 {
		t.Fatalf("texts = %d", len(api.texts))
	}
	got := api.texts[0]
	if !utf8.ValidString(got) || strings.ContainsRune(got, utf8.RuneError) {
		t.Fatal("sent text is not valid UTF-8")
	}
	if len(got) != telegramTextLimit-1 {
		t.Fatalf("sent %d bytes, want %d", len(got), telegramTextLimit-1)
	}
}
