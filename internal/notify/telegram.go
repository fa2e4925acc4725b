package notify

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	logx "vorhof/pkg/logx"
)

var ErrNoCredentials = errors.New("telegram credentials missing")

const (
	defaultTimeout = 5 * time.Second
	historySize    = 100
	// telegramTextLimit is Telegram's per-message cap (4096) minus headroom.
	telegramTextLimit = 4000
)

type Config struct {
	Token  string
	ChatID string
	// Timeout bounds a single sendMessage call.
	Timeout    time.Duration
	RatePerSec int
	// APIURL overrides the Bot API base URL.
	APIURL string
}

type HistoryItem struct {
	At   time.Time
	Text string
	Err  string
}

// chatRecipient addresses a chat by numeric id or @username.
type chatRecipient string

func (c chatRecipient) Recipient() string { return string(c) }

// Telegram sends each notification as one sendMessage call.
type Telegram struct {
	bot     *tele.Bot
	to      chatRecipient
	timeout time.Duration
	limiter *rate.Limiter
	log     logx.Logger

	hmu     sync.Mutex
	history []HistoryItem
}

func NewTelegram(cfg Config, log logx.Logger) (*Telegram, error) {
	if strings.TrimSpace(cfg.Token) == "" || strings.TrimSpace(cfg.ChatID) == "" {
		return nil, ErrNoCredentials
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	// Offline skips the getMe round trip; we only ever send.
	b, err := tele.NewBot(tele.Settings{
		URL:     strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/"),
		Token:   strings.TrimSpace(cfg.Token),
		Client:  &http.Client{Timeout: cfg.Timeout},
		Offline: true,
	})
	if err != nil {
		return nil, err
	}

	return &Telegram{
		bot:     b,
		to:      chatRecipient(strings.TrimSpace(cfg.ChatID)),
		timeout: cfg.Timeout,
		// Burst equals the rate so a cycle with a few new visitors isn't throttled.
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		log:     log,
	}, nil
}

// Notify sends text to the configured chat. It blocks at most the configured
// timeout (rate-limit wait included).
func (t *Telegram) Notify(ctx context.Context, text string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	text = truncate(text, telegramTextLimit)

	wctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	if err := t.limiter.Wait(wctx); err != nil {
		t.appendHistory(text, err)
		return err
	}

	start := time.Now()
	_, err := t.bot.Send(t.to, text, &tele.SendOptions{DisableWebPagePreview: true})
	t.appendHistory(text, err)
	if err != nil {
		return err
	}
	t.log.Debug("notification sent", logx.Duration("took", time.Since(start)))
	return nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// History returns the most recent send attempts, oldest first.
func (t *Telegram) History() []HistoryItem {
	t.hmu.Lock()
	defer t.hmu.Unlock()
	return append([]HistoryItem(nil), t.history...)
}

func (t *Telegram) appendHistory(text string, err error) {
	it := HistoryItem{At: time.Now(), Text: text}
	if err != nil {
		it.Err = err.Error()
	}
	t.hmu.Lock()
	t.history = append(t.history, it)
	if len(t.history) > historySize {
		t.history = t.history[len(t.history)-historySize:]
	}
	t.hmu.Unlock()
}

// Disabled is the sink used without credentials: every Notify is a no-op.
type Disabled struct {
	Log logx.Logger
}

func (d Disabled) Notify(_ context.Context, text string) error {
	d.Log.Debug("push skipped (no credentials)", logx.Int("len", len(text)))
	return nil
}
