package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"sori/internal/api"
	"sori/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync and merge runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			res, err := api.History(cmd.Context(), api.HistoryRequest{Config: cfg, Limit: limit})
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, res)
			}

			out := cmd.OutOrStdout()
			if len(res.Runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}

			header := []string{"Started", "Kind", "Planned", "Copied", "Generated", "Failed", "Removed", "Outcome"}
			rows := make([][]string, 0, len(res.Runs))
			for _, run := range res.Runs {
				rows = append(rows, []string{
					run.StartedAt.Local().Format("2006-01-02 15:04"),
					string(run.Kind),
					strconv.Itoa(run.Planned),
					strconv.Itoa(run.Copied),
					strconv.Itoa(run.Generated),
					strconv.Itoa(run.Failed),
					strconv.Itoa(run.Removed),
					formatRunOutcome(run),
				})
			}
			alignments := []columnAlignment{
				alignLeft, alignLeft,
				alignRight, alignRight, alignRight, alignRight, alignRight,
				alignLeft,
			}
			fmt.Fprintln(out, renderTable(header, rows, alignments))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit history as JSON")
	return cmd
}

func formatRunOutcome(run ledger.Run) string {
	if run.Error != "" {
		return "failed: " + run.Error
	}
	if run.FinishedAt.IsZero() {
		return "incomplete"
	}
	return "ok in " + run.Elapsed().Round(100*time.Millisecond).String()
}
