package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sori/internal/api"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var outputPath string

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Aggregate student vocabularies into the hub document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.runLogger()
			if err != nil {
				return err
			}

			res, err := api.Merge(cmd.Context(), api.MergeRequest{
				Config:     cfg,
				Logger:     logger,
				OutputPath: outputPath,
				DryRun:     dryRun,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			stats := res.Stats
			fmt.Fprintf(out, "Merged %d of %d repositories\n", stats.ReposFetched, stats.ReposConfigured)
			for _, repo := range stats.ReposSkipped {
				fmt.Fprintf(out, "  Skipped: %s\n", repo)
			}
			fmt.Fprintf(out, "  Objects: %d, verbs: %d, flashcards: %d\n", stats.Objects, stats.Verbs, stats.Cards)
			fmt.Fprintf(out, "  Audio texts: %d\n", res.Texts)
			if res.Written {
				fmt.Fprintf(out, "Wrote %s\n", res.OutputPath)
			} else {
				fmt.Fprintf(out, "Dry run; %s left untouched\n", res.OutputPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Merge without writing the document")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the merged document to this path")
	return cmd
}
