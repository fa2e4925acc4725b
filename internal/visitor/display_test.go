package visitor

import "testing"

func TestDisplayFilterFirstRender(t *testing.T) {
	t.Parallel()
	f := NewDisplayFilter(nil)
	v := Visitor{Name: "Nadia", Status: "aktiv", Resonanz: "hoch", Land: "DE", Wesen: "Mensch", Zeit: "2024-05-01 12:00:00"}

	line, ok := f.MaybeRender(v)
	if !ok {
		t.Fatal("first render suppressed")
	}
	want := "Name: Nadia | Status: aktiv | Resonanz: hoch | Land: DE | Hände gefunden: false | Wesen: Mensch | Zeit: 2024-05-01 12:00:00"
	if line != want {
		t.Fatalf("line = %q\nwant  %q", line, want)
	}
}

func TestDisplayFilterSuppression(t *testing.T) {
	t.Parallel()
	f := NewDisplayFilter(nil)
	v := Visitor{Name: "Nadia", Status: "aktiv", Resonanz: "hoch", Land: "DE", Wesen: "Mensch"}
	f.MaybeRender(v)

	v.Land = "FR"
	v.Wesen = "Katze"
	v.Zeit = "later"
	if _, ok := f.MaybeRender(v); ok {
		t.Fatal("untracked field change re-rendered")
	}

	v.HandFound = true
	if _, ok := f.MaybeRender(v); !ok {
		t.Fatal("hand_found change not rendered")
	}
	if _, ok := f.MaybeRender(v); ok {
		t.Fatal("identical state rendered twice")
	}

	v.Resonanz = "tief"
	if _, ok := f.MaybeRender(v); !ok {
		t.Fatal("resonanz change not rendered")
	}
}

func TestDisplayFilterCustomFormat(t *testing.T) {
	t.Parallel()
	f := NewDisplayFilter(func(v Visitor) string { return "> " + v.Name })
	line, ok := f.MaybeRender(Visitor{Name: "x"})
	if !ok || line != "> x" {
		t.Fatalf("line = %q ok=%v", line, ok)
	}
}
