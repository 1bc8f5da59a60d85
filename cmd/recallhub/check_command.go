package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"recallhub/internal/commander"
	"recallhub/internal/config"
	"recallhub/internal/recalls"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var req commander.Request

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a product is recalled",
		Long: "Check runs the full lookup workflow: plan, execute, and " +
			"classify. Supply whatever identifiers you have; more precise " +
			"identifiers produce higher-confidence answers.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *recalls.Store) error {
				runCtx, cancel := signalContext()
				defer cancel()

				resp, err := newCommander(cfg, store).Run(runCtx, req)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Status: %s\n", resp.Status)
				switch resp.Status {
				case commander.StateFailed:
					fmt.Fprintf(out, "Error: %s\n", resp.Error)
				case commander.StateCompleted, commander.StateInconclusive:
					printFinding(cmd, resp.Data)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Barcode, "barcode", "", "Product barcode/UPC")
	cmd.Flags().StringVar(&req.ModelNumber, "model", "", "Model number")
	cmd.Flags().StringVar(&req.ProductName, "name", "", "Product name")
	cmd.Flags().StringVar(&req.LotNumber, "lot", "", "Lot number")
	cmd.Flags().StringVar(&req.ImageReference, "image", "", "Image reference from an upstream capture step")
	return cmd
}

func printFinding(cmd *cobra.Command, finding *commander.Finding) {
	out := cmd.OutOrStdout()
	if finding == nil {
		return
	}
	if finding.Summary != "" {
		fmt.Fprintf(out, "Summary: %s\n", finding.Summary)
	}
	record := finding.Record
	if record == nil {
		return
	}

	rows := [][]string{
		{"Recall ID", record.RecallID},
		{"Product", record.ProductName},
		{"Agency", record.SourceAgency},
		{"Recall date", formatDate(record.RecallDate)},
		{"Identifier", recordIdentifier(record)},
		{"Risk level", orDash(finding.RiskLevel)},
		{"Hazard", orDash(record.Hazard)},
		{"Remedy", orDash(record.Remedy)},
		{"Confidence", orDash(finding.Confidence)},
		{"Match type", orDash(finding.MatchType)},
	}
	if strings.TrimSpace(record.URL) != "" {
		rows = append(rows, []string{"URL", record.URL})
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
}
