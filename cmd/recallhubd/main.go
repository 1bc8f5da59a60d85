// Command recallhubd runs the ingestion daemon: feed polling, run
// bookkeeping, and retention pruning, behind a single-instance lock.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"recallhub/internal/config"
	"recallhub/internal/daemon"
	"recallhub/internal/ingest"
	"recallhub/internal/logging"
	"recallhub/internal/notifications"
	"recallhub/internal/recalls"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}

	store, err := recalls.Open(cfg)
	if err != nil {
		return fmt.Errorf("open recall store: %w", err)
	}

	notifier := notifications.NewService(cfg)
	orchestrator := ingest.NewOrchestrator(store, cfg, logger, notifier)
	scheduler := daemon.NewScheduler(cfg, store, orchestrator, logger)

	d, err := daemon.New(cfg, store, logger, scheduler)
	if err != nil {
		store.Close()
		return err
	}
	defer d.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	d.Stop()
	return nil
}
