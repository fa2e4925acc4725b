package visitor

import (
	"context"
	"fmt"
	"time"

	logx "vorhof/pkg/logx"
)

// Notifier delivers a push message. Implementations must be safe to call
// without credentials (no-op) and should bound their own latency.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Auditor appends a full visitor snapshot to the audit trail.
type Auditor interface {
	Append(ctx context.Context, v Visitor) error
}

// Report summarizes one Reconcile call.
type Report struct {
	Observed int
	Skipped  int
	Created  int
	Changed  int
	Notified int
	Audited  int
	Failures int
}

type Option func(*Reconciler)

// WithExcluded replaces the excluded-name set.
func WithExcluded(names []string) Option {
	return func(r *Reconciler) { r.SetExcluded(names) }
}

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

func WithLogger(log logx.Logger) Option {
	return func(r *Reconciler) { r.log = log }
}

// Reconciler merges snapshots into a Registry and triggers notifications and
// audit appends for created or changed visitors.
type Reconciler struct {
	reg      *Registry
	notifier Notifier
	auditor  Auditor

	excluded map[string]struct{}
	now      func() time.Time
	log      logx.Logger
}

func NewReconciler(reg *Registry, n Notifier, a Auditor, opts ...Option) *Reconciler {
	if reg == nil {
		reg = NewRegistry()
	}
	r := &Reconciler{
		reg:      reg,
		notifier: n,
		auditor:  a,
		now:      time.Now,
	}
	r.SetExcluded(DefaultExcluded)
	for _, o := range opts {
		o(r)
	}
	if r.log.IsZero() {
		r.log = logx.Nop()
	}
	return r
}

func (r *Reconciler) Registry() *Registry { return r.reg }

// SetExcluded replaces the names exempt from notifications.
// Matching is exact (case-sensitive).
func (r *Reconciler) SetExcluded(names []string) {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	r.excluded = m
}

func (r *Reconciler) isExcluded(name string) bool {
	_, ok := r.excluded[name]
	return ok
}

// Reconcile merges the full current snapshot into the registry.
//
// Registry mutation for an observation always happens before its side effects,
// so a failing or slow sink never leaves the registry half-updated.
func (r *Reconciler) Reconcile(ctx context.Context, raws []RawVisitor) Report {
	var rep Report
	for _, raw := range raws {
		if raw.Name == "" {
			rep.Skipped++
			continue
		}
		rep.Observed++
		r.observe(ctx, Normalize(raw, r.now()), &rep)
	}
	return rep
}

func (r *Reconciler) observe(ctx context.Context, v Visitor, rep *Report) {
	stored := r.reg.ref(v.Name)
	if stored == nil {
		r.reg.insert(v)
		rep.Created++
		if !r.isExcluded(v.Name) {
			r.notify(ctx, v.Name, createdText(v), rep)
		}
		r.audit(ctx, v, rep)
		return
	}

	prev := *stored
	if trackedDiff(prev, v) {
		*stored = v
		rep.Changed++
		if !r.isExcluded(v.Name) && v.HandFound && !prev.HandFound {
			r.notify(ctx, v.Name, handsFoundText(v), rep)
		}
		r.audit(ctx, *stored, rep)
	}
	stored.Zeit = v.Zeit
}

func (r *Reconciler) notify(ctx context.Context, name, text string, rep *Report) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(ctx, text); err != nil {
		rep.Failures++
		r.log.Warn("notification failed", logx.String("visitor", name), logx.Err(err))
		return
	}
	rep.Notified++
}

func (r *Reconciler) audit(ctx context.Context, v Visitor, rep *Report) {
	if r.auditor == nil {
		return
	}
	if err := r.auditor.Append(ctx, v); err != nil {
		rep.Failures++
		r.log.Warn("audit append failed", logx.String("visitor", v.Name), logx.Err(err))
		return
	}
	rep.Audited++
}

func createdText(v Visitor) string {
	if v.Land == "DE" {
		return fmt.Sprintf("Neuer Besucher: %s — Hände gefunden: %t", v.Name, v.HandFound)
	}
	return fmt.Sprintf("New visitor: %s — hands found: %t", v.Name, v.HandFound)
}

func handsFoundText(v Visitor) string {
	return fmt.Sprintf("%s hat nun die Hände gefunden.", v.Name)
}
