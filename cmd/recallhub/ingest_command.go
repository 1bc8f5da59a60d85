package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"recallhub/internal/config"
	"recallhub/internal/ingest"
	"recallhub/internal/logging"
	"recallhub/internal/notifications"
	"recallhub/internal/recalls"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "ingest [agency]",
		Short: "Run ingestion for one configured agency feed, or all with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("specify an agency or pass --all")
			}

			return ctx.withStore(func(cfg *config.Config, store *recalls.Store) error {
				feeds, err := selectFeeds(cfg, args, all)
				if err != nil {
					return err
				}

				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return fmt.Errorf("initialize logging: %w", err)
				}
				orchestrator := ingest.NewOrchestrator(store, cfg, logger, notifications.NewService(cfg))

				runCtx, cancel := signalContext()
				defer cancel()

				rows := make([][]string, 0, len(feeds))
				var failures int
				for _, feed := range feeds {
					connector := ingest.NewFeedConnector(feed, time.Duration(cfg.Ingest.FetchTimeout)*time.Second)
					report, runErr := orchestrator.Run(runCtx, connector, feed.Mode, "cli")
					rows = append(rows, ingestRow(feed, report))
					if runErr != nil {
						failures++
					}
					if runCtx.Err() != nil {
						break
					}
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Agency", "Mode", "Status", "Inserted", "Updated", "Skipped", "Failed"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
				))
				if failures > 0 {
					return fmt.Errorf("%d of %d feeds failed", failures, len(feeds))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Ingest every configured feed")
	return cmd
}

func selectFeeds(cfg *config.Config, args []string, all bool) ([]config.Feed, error) {
	if len(cfg.Ingest.Feeds) == 0 {
		return nil, fmt.Errorf("no feeds configured; add [[ingest.feeds]] entries to the config")
	}
	if all {
		return cfg.Ingest.Feeds, nil
	}

	agency := strings.ToUpper(strings.TrimSpace(args[0]))
	var feeds []config.Feed
	for _, feed := range cfg.Ingest.Feeds {
		if feed.Agency == agency {
			feeds = append(feeds, feed)
		}
	}
	if len(feeds) == 0 {
		return nil, fmt.Errorf("no feed configured for agency %q", agency)
	}
	return feeds, nil
}

func ingestRow(feed config.Feed, report *ingest.Report) []string {
	status := "failed"
	counts := recalls.RunCounts{}
	switch {
	case report != nil && report.AlreadyRunning:
		status = "already running"
	case report != nil:
		status = string(report.Status)
		counts = report.Counts
	}
	return []string{
		feed.Agency,
		feed.Mode,
		status,
		strconv.Itoa(counts.Inserted),
		strconv.Itoa(counts.Updated),
		strconv.Itoa(counts.Skipped),
		strconv.Itoa(counts.Failed),
	}
}
