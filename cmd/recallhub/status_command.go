package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"recallhub/internal/config"
	"recallhub/internal/recalls"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show recall database health and per-agency counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *recalls.Store) error {
				runCtx, cancel := signalContext()
				defer cancel()

				health, err := store.CheckHealth(runCtx)
				if err != nil {
					return fmt.Errorf("check health: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, [][]string{
					{"Database", health.DBPath},
					{"Readable", yesNo(health.DatabaseReadable)},
					{"Integrity", yesNo(health.IntegrityCheck)},
					{"Recall records", strconv.Itoa(health.TotalRecords)},
					{"Ingestion runs", strconv.Itoa(health.TotalRuns)},
				}, nil))

				active, err := store.ActiveRuns(runCtx)
				if err != nil {
					return fmt.Errorf("list active runs: %w", err)
				}
				if len(active) > 0 {
					rows := make([][]string, 0, len(active))
					for _, run := range active {
						rows = append(rows, []string{shortID(run.ID), run.Agency, run.Mode, string(run.Status)})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"Active Run", "Agency", "Mode", "Status"},
						rows, nil))
				}

				counts, err := store.CountByAgency(runCtx)
				if err != nil {
					return fmt.Errorf("count by agency: %w", err)
				}
				if len(counts) == 0 {
					fmt.Fprintln(out, "No recall records ingested yet.")
					return nil
				}

				agencies := make([]string, 0, len(counts))
				for agency := range counts {
					agencies = append(agencies, agency)
				}
				sort.Strings(agencies)

				rows := make([][]string, 0, len(agencies))
				for _, agency := range agencies {
					rows = append(rows, []string{agency, strconv.Itoa(counts[agency])})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Agency", "Records"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}
