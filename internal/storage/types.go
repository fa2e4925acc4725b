package storage

import (
	"context"
	"errors"
	"time"

	"vorhof/internal/visitor"
)

var (
	ErrDisabled = errors.New("storage disabled")
	ErrClosed   = errors.New("storage closed")
)

// Config configures storage.
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the audit trail. It satisfies visitor.Auditor.
type Store interface {
	Append(ctx context.Context, v visitor.Visitor) error
	// Entries returns the trail in append order.
	Entries(ctx context.Context) ([]visitor.Visitor, error)
	Close() error
}
