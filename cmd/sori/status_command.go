package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sori/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report store and environment health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			res, err := api.Status(cmd.Context(), api.StatusRequest{Config: cfg})
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, res)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range storeSection(res.Store, colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out)
			for _, line := range environmentSection(res, colorize) {
				fmt.Fprintln(out, line)
			}
			if res.LastRun != nil {
				fmt.Fprintln(out)
				for _, line := range lastRunSection(res.LastRun, colorize) {
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit status as JSON")
	return cmd
}
