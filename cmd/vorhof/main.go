package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vorhof/internal/app"
	"vorhof/internal/config"
)

func main() {
	var (
		cfgPath   string
		dumpAudit bool
	)
	flag.StringVar(&cfgPath, "config", config.DefaultConfigPath, "path to config (json or yaml)")
	flag.BoolVar(&dumpAudit, "dump-audit", false, "print the audit trail as JSON and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if dumpAudit {
		if err := app.DumpAudit(ctx, cfgPath, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "dump-audit:", err)
			os.Exit(1)
		}
		return
	}

	a := app.New(cfgPath, os.Stdout)
	term := a.Terminal()
	term.Banner(app.StartupBanner)

	if err := a.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "run:", err)
	}
	_ = a.Close()
	term.Banner(app.FarewellMessage)
}
