package visitor

import "fmt"

type displayState struct {
	status    string
	resonanz  string
	handFound bool
}

// DisplayFilter suppresses terminal lines for visitors whose
// (status, resonanz, hand_found) triple has not changed since their last render.
// It keeps its own cache and ignores the reconciler's change tracking.
type DisplayFilter struct {
	seen   map[string]displayState
	format func(Visitor) string
}

// NewDisplayFilter returns a filter rendering with format (FormatLine when nil).
func NewDisplayFilter(format func(Visitor) string) *DisplayFilter {
	if format == nil {
		format = FormatLine
	}
	return &DisplayFilter{seen: map[string]displayState{}, format: format}
}

// MaybeRender returns the line to print for v, or false if the last rendered
// state for v.Name is identical.
func (f *DisplayFilter) MaybeRender(v Visitor) (string, bool) {
	cur := displayState{status: v.Status, resonanz: v.Resonanz, handFound: v.HandFound}
	if prev, ok := f.seen[v.Name]; ok && prev == cur {
		return "", false
	}
	f.seen[v.Name] = cur
	return f.format(v), true
}

// FormatLine renders the one-line terminal representation of v.
func FormatLine(v Visitor) string {
	return fmt.Sprintf("Name: %s | Status: %s | Resonanz: %s | Land: %s | Hände gefunden: %t | Wesen: %s | Zeit: %s",
		v.Name, v.Status, v.Resonanz, v.Land, v.HandFound, v.Wesen, v.Zeit)
}
