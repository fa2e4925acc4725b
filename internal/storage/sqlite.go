package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"vorhof/internal/visitor"
	logx "vorhof/pkg/logx"
)

//go:embed migrations.sql
var migrations string

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(context.Background(), migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) Append(ctx context.Context, v visitor.Visitor) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO visitor_audit(at, cycle, name, status, resonanz, land, hand_found, wesen, zeit)
		 VALUES(?,?,?,?,?,?,?,?,?)`,
		time.Now().Format(time.RFC3339Nano), nullStr(visitor.CycleFrom(ctx)),
		v.Name, v.Status, v.Resonanz, v.Land, v.HandFound, v.Wesen, v.Zeit,
	)
	return err
}

func (s *sqliteStore) Entries(ctx context.Context) ([]visitor.Visitor, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, status, resonanz, land, hand_found, wesen, zeit FROM visitor_audit ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []visitor.Visitor
	for rows.Next() {
		var v visitor.Visitor
		if err := rows.Scan(&v.Name, &v.Status, &v.Resonanz, &v.Land, &v.HandFound, &v.Wesen, &v.Zeit); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
