package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"sori/internal/api"
	"sori/internal/preflight"
	"sori/internal/store"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Bring the audio store in line with the practice documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.runLogger()
			if err != nil {
				return err
			}

			res, err := api.Sync(cmd.Context(), api.SyncRequest{
				Config:   cfg,
				Logger:   logger,
				Progress: newProgressRenderer(),
			})
			if err != nil {
				return describeFailedChecks(cmd.OutOrStdout(), res.Checks, err)
			}

			printSyncSummary(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

// newProgressRenderer returns a per-item progress callback rendering a
// terminal bar, or nil when stderr is not a terminal.
func newProgressRenderer() func(store.ProgressUpdate) {
	fd := os.Stderr.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil
	}

	var mu sync.Mutex
	var bar *progressbar.ProgressBar
	phase := ""
	return func(update store.ProgressUpdate) {
		mu.Lock()
		defer mu.Unlock()
		if update.Phase == store.PhaseSweep {
			if bar != nil {
				_ = bar.Finish()
				bar = nil
			}
			return
		}
		if bar == nil || update.Phase != phase {
			if bar != nil {
				_ = bar.Finish()
			}
			phase = update.Phase
			bar = progressbar.NewOptions(update.Total,
				progressbar.OptionSetDescription(progressLabel(update.Phase)),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(update.Done)
	}
}

func progressLabel(phase string) string {
	switch phase {
	case store.PhaseCopy:
		return "copying from reference"
	case store.PhaseSynthesize:
		return "synthesizing"
	default:
		return phase
	}
}

func printSyncSummary(out io.Writer, res api.SyncResult) {
	st := res.Store
	fmt.Fprintf(out, "Synced %d texts\n", res.Texts)
	fmt.Fprintf(out, "  Copied:     %d\n", st.Copied)
	fmt.Fprintf(out, "  Generated:  %d\n", st.Generated)
	fmt.Fprintf(out, "  Removed:    %d\n", st.Removed)
	fmt.Fprintf(out, "  Store size: %s\n", humanize.IBytes(uint64(st.TotalBytes)))
	fmt.Fprintf(out, "  Elapsed:    %s\n", st.Elapsed.Round(100*time.Millisecond))
	if len(st.Failures) > 0 {
		fmt.Fprintf(out, "Failed %d texts; they stay out of the manifest and retry on the next sync:\n", len(st.Failures))
		for _, failure := range st.Failures {
			fmt.Fprintf(out, "  - %s: %v\n", failure.Text, failure.Err)
		}
	}
}

// describeFailedChecks prints the preflight table when that is what
// stopped the run, then hands the error back for normal reporting.
func describeFailedChecks(out io.Writer, checks []preflight.Result, err error) error {
	if preflight.Passed(checks) || len(checks) == 0 {
		return err
	}
	colorize := shouldColorize(out)
	for _, check := range checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	return err
}
