package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"recallhub/internal/config"
	"recallhub/internal/recalls"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent ingestion runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *recalls.Store) error {
				runCtx, cancel := signalContext()
				defer cancel()

				runs, err := store.ListRuns(runCtx, limit)
				if err != nil {
					return fmt.Errorf("list runs: %w", err)
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No ingestion runs recorded.")
					return nil
				}

				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						run.Agency,
						run.Mode,
						string(run.Status),
						formatTime(run.StartedAt),
						strconv.Itoa(run.Counts.Inserted),
						strconv.Itoa(run.Counts.Updated),
						strconv.Itoa(run.Counts.Skipped),
						strconv.Itoa(run.Counts.Failed),
						orDash(run.ErrorText),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Run", "Agency", "Mode", "Status", "Started", "Ins", "Upd", "Skip", "Fail", "Error"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}
