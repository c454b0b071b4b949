package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sori/internal/api"
	"sori/internal/logging"
	"sori/internal/watcher"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var settle time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sync on every vocabulary or sentence document change",
		Long: `Watch runs one sync immediately, then keeps watching the data
directory and re-syncs whenever the vocabulary or sentences document
changes. Changes are debounced so a burst of writes triggers one run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			signalCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (settle %s); press Ctrl-C to stop\n",
				cfg.Paths.DataDir, settleOrDefault(settle))

			runSync := func(runCtx context.Context) {
				res, err := api.Sync(runCtx, api.SyncRequest{Config: cfg, Logger: logger})
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return
					}
					logging.ErrorWithContext(logger, "watched sync failed", "watch_sync_failed",
						logging.Error(err),
						logging.String(logging.FieldImpact, "audio store is stale until the next change or manual sync"))
					return
				}
				logger.Info("watched sync finished",
					logging.String("run_id", res.RunID),
					logging.Int("texts", res.Texts))
			}

			runSync(signalCtx)
			if signalCtx.Err() != nil {
				return nil
			}

			w, err := watcher.New(watcher.Options{
				Dir: cfg.Paths.DataDir,
				Names: []string{
					filepath.Base(cfg.VocabPath()),
					filepath.Base(cfg.SentencesPath()),
				},
				Settle:   settle,
				OnChange: runSync,
				Logger:   logger,
			})
			if err != nil {
				return err
			}
			if err := w.Run(signalCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&settle, "settle", watcher.DefaultSettle,
		"Quiet period after a change before syncing")
	return cmd
}

func settleOrDefault(settle time.Duration) time.Duration {
	if settle <= 0 {
		return watcher.DefaultSettle
	}
	return settle
}
