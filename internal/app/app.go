// Package app wires configuration, sinks and the poll loop into one process.
package app

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"vorhof/internal/config"
	"vorhof/internal/display"
	"vorhof/internal/notify"
	"vorhof/internal/poller"
	"vorhof/internal/runtime/supervisor"
	"vorhof/internal/source"
	"vorhof/internal/storage"
	"vorhof/internal/visitor"
	"vorhof/pkg/logx"
)

const (
	StartupBanner   = "Starte Aurion-Vorhof – Terminal zeigt nur neue/geänderte Besucher …"
	FarewellMessage = "Programm beendet."

	defaultInterval = 10 * time.Second
	stopTimeout     = 3 * time.Second
)

type App struct {
	cfgm *config.ConfigManager
	logs *logx.Service
	log  logx.Logger

	term  *display.Terminal
	store storage.Store
	rec   *visitor.Reconciler
	poll  *poller.Poller
	tg    *notify.Telegram // nil when notifications are disabled

	// applied is the config last applied on the poll goroutine.
	applied *config.Config
	ready   bool
	sdNotif func(state string) (bool, error)
}

// New builds the app from the config file at cfgPath. Nothing here is fatal:
// a broken config, missing credentials or an unusable audit sink each
// degrade to a working default and are logged.
func New(cfgPath string, out io.Writer) *App {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, cfgErr := cfgm.LoadOrDefault()

	logs, base := logx.New(logConfig(cfg))
	log := base.With(logx.String("comp", "app"))
	cfgm.SetLogger(base.With(logx.String("comp", "config")))

	switch {
	case cfgErr != nil:
		log.Warn("config invalid; using defaults", logx.String("path", cfgPath), logx.Err(cfgErr))
	case fileMissing(cfgPath):
		log.Info("config file not found; using defaults", logx.String("path", cfgPath))
	}

	term := display.New(out, cfg.Display.Color)
	store := openStore(cfg, base.With(logx.String("comp", "storage")))

	var aud visitor.Auditor
	if store != nil {
		aud = store
	}
	notifier := newNotifier(cfg, base.With(logx.String("comp", "notify")))
	rec := visitor.NewReconciler(visitor.NewRegistry(),
		notifier,
		aud,
		visitor.WithExcluded(cfg.Visitors.Excluded),
		visitor.WithLogger(base.With(logx.String("comp", "reconcile"))),
	)

	a := &App{
		cfgm:    cfgm,
		logs:    logs,
		log:     log,
		term:    term,
		store:   store,
		rec:     rec,
		applied: cfg,
		sdNotif: func(state string) (bool, error) { return daemon.SdNotify(false, state) },
	}
	if tg, ok := notifier.(*notify.Telegram); ok {
		a.tg = tg
	}
	src := source.NewFile(cfg.Source.Path)
	a.poll = poller.New(src, rec, visitor.NewDisplayFilter(term.Format), term,
		poller.WithSchedule(scheduleFrom(cfg, log)),
		poller.WithLogger(base.With(logx.String("comp", "poller"))),
		poller.WithConfigUpdates(cfgm.Subscribe(1), a.apply),
		poller.WithCycleHook(a.afterCycle),
	)
	log.Info("app ready",
		logx.String("source", src.Path()),
		logx.String("audit", cfg.Audit.Driver),
		logx.String("schedule", a.poll.Schedule().String()),
	)
	return a
}

func (a *App) Terminal() *display.Terminal { return a.term }

// Run polls until ctx is canceled. The config watcher runs alongside.
func (a *App) Run(ctx context.Context) error {
	sup := supervisor.New(ctx, supervisor.WithLogger(a.log))
	sup.GoRestart("config.watch", a.cfgm.Watch)

	err := a.poll.Run(sup.Context())

	a.notifySystemd(daemon.SdNotifyStopping)
	a.logSendSummary()
	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if serr := sup.Stop(stopCtx); serr != nil {
		a.log.Warn("background tasks did not stop cleanly", logx.Err(serr))
	}
	return err
}

// Close releases the audit store and log file.
func (a *App) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.logs != nil {
		errs = append(errs, a.logs.Close())
	}
	return errors.Join(errs...)
}

func (a *App) afterCycle(rep poller.CycleReport) {
	if !a.ready {
		a.ready = true
		a.notifySystemd(daemon.SdNotifyReady)
	}
	a.notifySystemd(daemon.SdNotifyWatchdog)
}

func (a *App) logSendSummary() {
	if a.tg == nil {
		return
	}
	sent, failed, lastErr := sendSummary(a.tg.History())
	fields := []logx.Field{logx.Int("sent", sent), logx.Int("failed", failed)}
	if lastErr != "" {
		fields = append(fields, logx.String("last_err", lastErr))
	}
	a.log.Info("telegram sends", fields...)
}

// sendSummary counts the delivered and failed sends in h and returns the
// most recent error text.
func sendSummary(h []notify.HistoryItem) (sent, failed int, lastErr string) {
	for _, it := range h {
		if it.Err == "" {
			sent++
			continue
		}
		failed++
		lastErr = it.Err
	}
	return sent, failed, lastErr
}

func (a *App) notifySystemd(state string) {
	if a.sdNotif == nil {
		return
	}
	if _, err := a.sdNotif(state); err != nil {
		a.log.Debug("sd_notify failed", logx.String("state", state), logx.Err(err))
	}
}

// apply runs on the poll goroutine between cycles.
func (a *App) apply(cfg *config.Config) {
	if cfg == nil {
		return
	}
	sections, fields := config.SummarizeChange(a.applied, cfg)
	a.applied = cfg
	if len(sections) == 0 {
		a.log.Debug("config reload received, no effective changes")
		return
	}

	a.logs.Apply(logConfig(cfg))
	a.rec.SetExcluded(cfg.Visitors.Excluded)
	a.poll.SetSchedule(scheduleFrom(cfg, a.log))

	fields = append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, fields...)
	a.log.Info("config applied", fields...)
	for _, s := range sections {
		if !slices.Contains(config.LiveSections, s) {
			a.log.Warn("config section changed; restart required", logx.String("section", s))
		}
	}
}

func logConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func scheduleFrom(cfg *config.Config, log logx.Logger) poller.Schedule {
	s, err := poller.ParseSchedule(cfg.Poll.Schedule)
	if err != nil {
		log.Warn("invalid poll schedule; using default", logx.String("schedule", cfg.Poll.Schedule), logx.Duration("default", defaultInterval), logx.Err(err))
		return poller.Every(defaultInterval)
	}
	return s
}

func newNotifier(cfg *config.Config, log logx.Logger) visitor.Notifier {
	creds, err := config.LoadCredentials(cfg.Telegram.CredentialsFile)
	if err != nil {
		log.Warn("telegram credentials unavailable; notifications disabled",
			logx.String("path", cfg.Telegram.CredentialsFile), logx.Err(err))
		return notify.Disabled{Log: log}
	}
	timeout, err := config.ParseDurationOrDefault("telegram.timeout", cfg.Telegram.Timeout, 5*time.Second)
	if err != nil {
		log.Warn("invalid telegram timeout; using 5s", logx.Err(err))
		timeout = 5 * time.Second
	}
	tg, err := notify.NewTelegram(notify.Config{
		Token:      creds.Token,
		ChatID:     creds.ChatID,
		Timeout:    timeout,
		RatePerSec: cfg.Telegram.RatePerSec,
		APIURL:     cfg.Telegram.APIURL,
	}, log)
	if err != nil {
		log.Warn("telegram sink unavailable; notifications disabled", logx.Err(err))
		return notify.Disabled{Log: log}
	}
	return tg
}

func openStore(cfg *config.Config, log logx.Logger) storage.Store {
	sc, err := storageConfig(cfg)
	if err != nil {
		log.Warn("invalid audit config; using defaults", logx.Err(err))
	}
	st, err := storage.Open(sc, log)
	if err != nil {
		log.Warn("audit sink unavailable; audit disabled", logx.String("driver", sc.Driver), logx.Err(err))
		return nil
	}
	return st
}

func storageConfig(cfg *config.Config) (storage.Config, error) {
	busy, err := config.ParseDurationOrDefault("audit.busy_timeout", cfg.Audit.BusyTimeout, 0)
	return storage.Config{
		Driver:      cfg.Audit.Driver,
		Path:        cfg.Audit.Path,
		BusyTimeout: busy,
	}, err
}

func fileMissing(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, fs.ErrNotExist)
}
