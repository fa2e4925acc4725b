package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"vorhof/internal/config"
	"vorhof/internal/storage"
	"vorhof/internal/visitor"
	"vorhof/pkg/logx"
)

// DumpAudit prints the audit trail configured in cfgPath to w as indented JSON.
func DumpAudit(ctx context.Context, cfgPath string, w io.Writer) error {
	cfg, err := config.NewConfigManager(cfgPath).LoadOrDefault()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	sc, err := storageConfig(cfg)
	if err != nil {
		return err
	}
	st, err := storage.Open(sc, logx.Nop())
	if err != nil {
		return fmt.Errorf("open audit %s: %w", sc.Driver, err)
	}
	if st == nil {
		return storage.ErrDisabled
	}
	entries, err := st.Entries(ctx)
	if cerr := st.Close(); cerr != nil && !errors.Is(cerr, storage.ErrClosed) {
		err = errors.Join(err, cerr)
	}
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []visitor.Visitor{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(entries)
}
