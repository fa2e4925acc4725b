// Package display writes visitor lines and lifecycle messages to the terminal.
package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/muesli/termenv"

	"vorhof/internal/visitor"
)

const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Terminal renders visitor lines, optionally colored.
type Terminal struct {
	mu    sync.Mutex
	out   *termenv.Output
	color bool
}

// New returns a Terminal writing to w. mode is ColorAuto, ColorAlways or ColorNever.
func New(w io.Writer, mode string) *Terminal {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ColorNever:
		return &Terminal{out: termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))}
	case ColorAlways:
		o := termenv.NewOutput(w)
		if o.Profile == termenv.Ascii {
			o = termenv.NewOutput(w, termenv.WithProfile(termenv.ANSI))
		}
		return &Terminal{out: o, color: true}
	default:
		o := termenv.NewOutput(w)
		return &Terminal{out: o, color: o.Profile != termenv.Ascii}
	}
}

// Format renders v in the fixed field order, coloring name and hand-found when enabled.
func (t *Terminal) Format(v visitor.Visitor) string {
	if !t.color {
		return visitor.FormatLine(v)
	}
	name := t.out.String(v.Name).Bold().String()
	found := fmt.Sprintf("%t", v.HandFound)
	if v.HandFound {
		found = t.out.String(found).Foreground(t.out.Color("2")).String()
	} else {
		found = t.out.String(found).Foreground(t.out.Color("8")).String()
	}
	status := t.out.String(v.Status).Foreground(statusColor(t.out, v.Status)).String()
	return fmt.Sprintf("Name: %s | Status: %s | Resonanz: %s | Land: %s | Hände gefunden: %s | Wesen: %s | Zeit: %s",
		name, status, v.Resonanz, v.Land, found, v.Wesen, v.Zeit)
}

func statusColor(o *termenv.Output, status string) termenv.Color {
	if status == visitor.DefaultStatus {
		return o.Color("6")
	}
	return o.Color("3")
}

func (t *Terminal) Println(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, line)
}

// Banner prints a lifecycle message (startup, farewell).
func (t *Terminal) Banner(msg string) {
	if t.color {
		msg = t.out.String(msg).Faint().String()
	}
	t.Println(msg)
}
