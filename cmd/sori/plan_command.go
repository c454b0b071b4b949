package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sori/internal/api"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var detail bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview what a sync would copy, synthesize, and remove",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			res, err := api.BuildPlan(cmd.Context(), api.PlanRequest{Config: cfg})
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, res)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Plan for %d texts\n", res.Texts)
			fmt.Fprintf(out, "  Copy from reference: %d\n", res.Copies)
			fmt.Fprintf(out, "  Synthesize:          %d\n", res.Syntheses)
			fmt.Fprintf(out, "  Sweep orphans:       %d\n", len(res.Orphans))
			if res.ReferenceEntries > 0 {
				fmt.Fprintf(out, "  Reference entries:   %d\n", res.ReferenceEntries)
			}
			if len(res.Orphans) > 0 {
				fmt.Fprintln(out, "Orphans:")
				for _, name := range res.Orphans {
					fmt.Fprintf(out, "  - %s\n", name)
				}
			}
			if detail {
				rows := make([][]string, 0, len(res.Items))
				for _, item := range res.Items {
					rows = append(rows, []string{
						strconv.Itoa(item.Index),
						string(item.Action),
						item.Text,
						item.Artifact,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Action", "Text", "Artifact"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&detail, "detail", false, "List every planned item")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the plan as JSON")
	return cmd
}
