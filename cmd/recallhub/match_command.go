package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"recallhub/internal/config"
	"recallhub/internal/logging"
	"recallhub/internal/match"
	"recallhub/internal/recalls"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var req match.Request

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Resolve identifiers against the recall store and list candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *recalls.Store) error {
				runCtx, cancel := signalContext()
				defer cancel()

				engine := match.NewEngine(store, cfg, logging.NewNop())
				result, err := engine.Resolve(runCtx, req)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if !result.Matched {
					fmt.Fprintln(out, "No recalls matched.")
					return nil
				}

				fmt.Fprintf(out, "Matched via %s (confidence %s)\n", result.MatchType, result.Confidence)
				rows := make([][]string, 0, len(result.Candidates))
				for _, candidate := range result.Candidates {
					record := candidate.Record
					rows = append(rows, []string{
						record.RecallID,
						record.ProductName,
						record.SourceAgency,
						formatDate(record.RecallDate),
						orDash(string(record.Severity)),
						fmt.Sprintf("%.2f", candidate.Score),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Recall ID", "Product", "Agency", "Date", "Severity", "Score"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Barcode, "barcode", "", "Product barcode/UPC")
	cmd.Flags().StringVar(&req.ModelNumber, "model", "", "Model number")
	cmd.Flags().StringVar(&req.ProductName, "name", "", "Product name")
	cmd.Flags().StringVar(&req.LotNumber, "lot", "", "Lot number")
	return cmd
}
