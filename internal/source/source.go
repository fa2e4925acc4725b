// Package source reads the visitor snapshot polled every cycle.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"

	"vorhof/internal/visitor"
)

// ErrFallback marks a Fetch that returned the synthetic snapshot because the
// file was missing or unreadable. The returned list is still usable.
var ErrFallback = errors.New("snapshot unavailable; using fallback")

// Fallback is the snapshot used when no live source is available.
func Fallback() []visitor.RawVisitor {
	name := "Doerkys"
	status, resonanz, land, wesen := "aktiv", "hoch", "DE", "Mensch"
	found := true
	return []visitor.RawVisitor{{
		Name:      name,
		Status:    &status,
		Resonanz:  &resonanz,
		Land:      &land,
		HandFound: &found,
		Wesen:     &wesen,
	}}
}

// File reads a JSON (or YAML, by extension) list of visitor observations.
type File struct {
	path string
}

func NewFile(path string) *File { return &File{path: path} }

func (f *File) Path() string { return f.path }

// Fetch returns the current snapshot. It never returns a nil list: on any
// read or decode failure it returns Fallback() and an error wrapping ErrFallback.
func (f *File) Fetch(ctx context.Context) ([]visitor.RawVisitor, error) {
	if err := ctx.Err(); err != nil {
		return Fallback(), fmt.Errorf("%w: %w", ErrFallback, err)
	}
	b, err := os.ReadFile(f.path)
	if err != nil {
		return Fallback(), fmt.Errorf("%w: %w", ErrFallback, err)
	}
	list, err := decode(f.path, b)
	if err != nil {
		return Fallback(), fmt.Errorf("%w: %s: %w", ErrFallback, f.path, err)
	}
	return list, nil
}

func decode(path string, b []byte) ([]visitor.RawVisitor, error) {
	var list []visitor.RawVisitor
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &list); err != nil {
			return nil, fmt.Errorf("yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(b, &list); err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
	}
	if list == nil {
		// "null" or an empty YAML document is not a list.
		return nil, errors.New("snapshot is not a list")
	}
	return list, nil
}
