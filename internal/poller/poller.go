package poller

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"vorhof/internal/config"
	"vorhof/internal/source"
	"vorhof/internal/visitor"
	logx "vorhof/pkg/logx"
)

// Fetcher supplies one snapshot per cycle. It returns a usable list even
// when it also returns an error (fallback snapshots).
type Fetcher interface {
	Fetch(ctx context.Context) ([]visitor.RawVisitor, error)
}

// Printer receives rendered terminal lines.
type Printer interface {
	Println(line string)
}

// CycleReport summarizes one cycle.
type CycleReport struct {
	ID       string
	Snapshot int
	Fallback bool
	Rendered int
	Took     time.Duration
	visitor.Report
}

type Option func(*Poller)

func WithSchedule(s Schedule) Option { return func(p *Poller) { p.sched = s } }

func WithLogger(log logx.Logger) Option { return func(p *Poller) { p.log = log } }

// WithConfigUpdates makes the loop apply config updates between cycles.
// apply runs on the loop goroutine, so it may touch poller-owned state.
func WithConfigUpdates(updates <-chan *config.Config, apply func(*config.Config)) Option {
	return func(p *Poller) {
		p.updates = updates
		p.apply = apply
	}
}

// WithCycleHook runs fn after every completed cycle (watchdog pings, metrics).
func WithCycleHook(fn func(CycleReport)) Option { return func(p *Poller) { p.hook = fn } }

// Poller owns the reconciler and display filter for the process lifetime.
type Poller struct {
	src    Fetcher
	rec    *visitor.Reconciler
	filter *visitor.DisplayFilter
	out    Printer

	sched Schedule
	log   logx.Logger
	hook  func(CycleReport)

	updates <-chan *config.Config
	apply   func(*config.Config)
}

func New(src Fetcher, rec *visitor.Reconciler, filter *visitor.DisplayFilter, out Printer, opts ...Option) *Poller {
	p := &Poller{
		src:    src,
		rec:    rec,
		filter: filter,
		out:    out,
		sched:  Every(10 * time.Second),
	}
	for _, o := range opts {
		o(p)
	}
	if p.filter == nil {
		p.filter = visitor.NewDisplayFilter(nil)
	}
	if p.log.IsZero() {
		p.log = logx.Nop()
	}
	return p
}

func (p *Poller) Schedule() Schedule { return p.sched }

// SetSchedule swaps the schedule. Call it from the loop goroutine (reload apply).
func (p *Poller) SetSchedule(s Schedule) {
	p.sched = s
}

// Cycle runs one full cycle. Panics are recovered and logged; the registry
// keeps whatever was applied before the panic.
func (p *Poller) Cycle(ctx context.Context) (rep CycleReport) {
	start := time.Now()
	rep.ID = uuid.NewString()
	ctx = visitor.WithCycle(ctx, rep.ID)
	log := p.log.With(logx.String("cycle", rep.ID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("cycle panicked", logx.Any("panic", r), logx.Stack(string(debug.Stack())))
		}
		rep.Took = time.Since(start)
	}()

	raws, err := p.src.Fetch(ctx)
	if err != nil {
		rep.Fallback = errors.Is(err, source.ErrFallback)
		log.Debug("snapshot source degraded", logx.Err(err), logx.Bool("fallback", rep.Fallback))
	}
	rep.Snapshot = len(raws)

	rep.Report = p.rec.Reconcile(ctx, raws)

	for _, v := range p.rec.Registry().All() {
		if line, ok := p.filter.MaybeRender(v); ok {
			p.out.Println(line)
			rep.Rendered++
		}
	}

	if rep.Created > 0 || rep.Changed > 0 || rep.Failures > 0 {
		log.Info("cycle reconciled",
			logx.Int("snapshot", rep.Snapshot),
			logx.Int("created", rep.Created),
			logx.Int("changed", rep.Changed),
			logx.Int("notified", rep.Notified),
			logx.Int("audited", rep.Audited),
			logx.Int("failures", rep.Failures),
		)
	} else if log.Enabled(logx.LevelDebug) {
		log.Debug("cycle unchanged", logx.Int("snapshot", rep.Snapshot), logx.Int("visitors", p.rec.Registry().Len()))
	}
	return rep
}

// Run loops until ctx is cancelled. The running cycle is never interrupted:
// it executes on a context detached from ctx's cancellation.
func (p *Poller) Run(ctx context.Context) error {
	if p.src == nil || p.rec == nil || p.out == nil {
		return fmt.Errorf("poller: source, reconciler and printer are required")
	}
	p.log.Info("poller started", logx.String("schedule", p.sched.String()))

	for {
		started := time.Now()
		rep := p.Cycle(context.WithoutCancel(ctx))
		if p.hook != nil {
			p.hook(rep)
		}

		if !p.wait(ctx, started) {
			p.log.Info("poller stopped", logx.Int("visitors", p.rec.Registry().Len()))
			return nil
		}
	}
}

// wait blocks until the next scheduled start. It returns false once ctx is done.
func (p *Poller) wait(ctx context.Context, started time.Time) bool {
	for {
		if ctx.Err() != nil {
			return false
		}
		d := time.Until(p.sched.Next(started))
		if d <= 0 {
			return true
		}
		timer := time.NewTimer(d)

		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
			return true
		case cfg, ok := <-p.updates:
			timer.Stop()
			if !ok {
				p.updates = nil
				continue
			}
			if p.apply != nil && cfg != nil {
				p.apply(cfg)
			}
			// re-evaluate against a possibly new schedule
		}
	}
}
