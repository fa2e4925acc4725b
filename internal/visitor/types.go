package visitor

import (
	"strings"
	"time"
)

const (
	DefaultStatus   = "aktiv"
	DefaultResonanz = "neutral"
	DefaultLand     = "DE"
	DefaultWesen    = "Unbekannt"

	// ForcedIdentity always has its hands found, whatever the source says.
	// Compared case-insensitively.
	ForcedIdentity = "doerkys"

	// TimeLayout is the layout of Visitor.Zeit.
	TimeLayout = "2006-01-02 15:04:05"
)

// DefaultExcluded are the names exempt from notifications.
var DefaultExcluded = []string{"Auriel", "dieu", "Kel-Mah"}

// Visitor is the canonical record kept in the Registry and written to the audit log.
type Visitor struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	Resonanz  string `json:"resonanz"`
	Land      string `json:"land"`
	HandFound bool   `json:"hand_found"`
	Wesen     string `json:"wesen"`
	Zeit      string `json:"zeit"`
}

// RawVisitor is one observation from a snapshot.
// Nil fields were absent in the source and receive defaults.
type RawVisitor struct {
	Name      string  `json:"name,omitempty" yaml:"name"`
	Status    *string `json:"status,omitempty" yaml:"status"`
	Resonanz  *string `json:"resonanz,omitempty" yaml:"resonanz"`
	Land      *string `json:"land,omitempty" yaml:"land"`
	HandFound *bool   `json:"hand_found,omitempty" yaml:"hand_found"`
	Wesen     *string `json:"wesen,omitempty" yaml:"wesen"`
}

// IsForced reports whether name is the fixed identity whose hands are always found.
func IsForced(name string) bool {
	return strings.EqualFold(name, ForcedIdentity)
}

// Normalize applies field defaults and the forcing rule, and stamps Zeit with now.
func Normalize(raw RawVisitor, now time.Time) Visitor {
	v := Visitor{
		Name:     raw.Name,
		Status:   strOr(raw.Status, DefaultStatus),
		Resonanz: strOr(raw.Resonanz, DefaultResonanz),
		Land:     strOr(raw.Land, DefaultLand),
		Wesen:    strOr(raw.Wesen, DefaultWesen),
		Zeit:     now.Format(TimeLayout),
	}
	if raw.HandFound != nil {
		v.HandFound = *raw.HandFound
	}
	if IsForced(v.Name) {
		v.HandFound = true
	}
	return v
}

func strOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

// trackedDiff reports whether a and b differ on status, resonanz or hand_found.
func trackedDiff(a, b Visitor) bool {
	switch {
	case a.Status != b.Status:
		return true
	case a.Resonanz != b.Resonanz:
		return true
	case a.HandFound != b.HandFound:
		return true
	}
	return false
}
