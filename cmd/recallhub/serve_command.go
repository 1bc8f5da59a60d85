package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"recallhub/internal/daemon"
	"recallhub/internal/ingest"
	"recallhub/internal/logging"
	"recallhub/internal/notifications"
	"recallhub/internal/recalls"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ingestion daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
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

			runCtx, cancel := signalContext()
			defer cancel()

			if err := d.Start(runCtx); err != nil {
				return err
			}
			<-runCtx.Done()
			d.Stop()
			return nil
		},
	}
}
