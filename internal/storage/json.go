package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"vorhof/internal/visitor"
	logx "vorhof/pkg/logx"
)

// jsonStore keeps the trail as one indented JSON array.
// Each Append reads the whole file, appends and rewrites it (tmp + rename).
type jsonStore struct {
	log  logx.Logger
	path string

	mu     sync.Mutex
	closed bool
}

func openJSON(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for json driver")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &jsonStore{log: log, path: path}, nil
}

func (s *jsonStore) Append(ctx context.Context, v visitor.Visitor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	trail, err := s.readLocked()
	if err != nil {
		return err
	}
	trail = append(trail, v)
	return s.writeLocked(trail)
}

func (s *jsonStore) Entries(ctx context.Context) ([]visitor.Visitor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

// readLocked returns the current trail. A missing or malformed file is an
// empty trail; only real I/O errors are returned.
func (s *jsonStore) readLocked() ([]visitor.Visitor, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}
	var trail []visitor.Visitor
	if err := json.Unmarshal(b, &trail); err != nil {
		s.log.Warn("audit log malformed; starting a new trail", logx.String("path", s.path), logx.Err(err))
		return nil, nil
	}
	return trail, nil
}

func (s *jsonStore) writeLocked(trail []visitor.Visitor) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(trail); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (s *jsonStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
