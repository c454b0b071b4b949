package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"sori/internal/config"
	"sori/internal/fileutil"
	"sori/internal/ledger"
	"sori/internal/logging"
	"sori/internal/merge"
	"sori/internal/notifications"
	"sori/internal/services"
	"sori/internal/vocab"
)

// MergeRequest configures a vocabulary aggregation run.
type MergeRequest struct {
	Config *config.Config
	Logger *slog.Logger
	// RunID labels the run in logs and the ledger. Empty generates one.
	RunID string
	// Fetcher overrides the HTTP fetcher. Tests use this to avoid the
	// network.
	Fetcher merge.Fetcher
	// OutputPath overrides where the merged document lands. Empty means
	// the configured vocabulary path.
	OutputPath string
	// DryRun merges without writing the document.
	DryRun bool
}

// MergeResult reports a completed merge.
type MergeResult struct {
	RunID      string
	Stats      *merge.Stats
	OutputPath string
	Written    bool
	// Texts is how many audio texts the merged document implies, which
	// is what the next sync will plan against.
	Texts int
}

// Merge pulls every configured student vocabulary, combines them in
// configured order, and writes the hub document.
func Merge(ctx context.Context, req MergeRequest) (MergeResult, error) {
	cfg := req.Config
	if cfg == nil {
		return MergeResult{}, fmt.Errorf("configuration is required")
	}
	logger := req.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	runID := strings.TrimSpace(req.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}
	started := time.Now().UTC()

	ctx = services.WithRunID(ctx, runID)
	logger = logging.WithContext(ctx, logger)
	notifier := notifications.NewService(cfg)

	result := MergeResult{RunID: runID}

	if len(cfg.Merge.Repos) == 0 {
		return result, services.Wrap(services.ErrConfiguration, "merge", "configure",
			"no repositories configured, set merge.repos", nil)
	}

	fetcher := req.Fetcher
	if fetcher == nil {
		timeout := time.Duration(cfg.Merge.RequestTimeout) * time.Second
		f, err := merge.NewHTTPFetcher(cfg.Merge.BaseURL, cfg.Merge.User, cfg.Merge.Branches, timeout, logger)
		if err != nil {
			return result, notifyError(ctx, notifier, logger, "merge",
				services.Wrap(services.ErrConfiguration, "merge", "configure", "fetcher", err))
		}
		fetcher = f
	}

	merger, err := merge.New(fetcher, cfg.Merge.Repos, cfg.Merge.Concurrency, logger)
	if err != nil {
		return result, notifyError(ctx, notifier, logger, "merge",
			services.Wrap(services.ErrConfiguration, "merge", "configure", "", err))
	}

	doc, stats, err := merger.Run(ctx)
	if err != nil {
		recordRun(ctx, cfg, logger, ledger.Run{
			RunID: runID, Kind: ledger.KindMerge, StartedAt: started, Error: err.Error(),
		})
		return result, notifyError(ctx, notifier, logger, "merge", err)
	}
	result.Stats = stats
	result.Texts = len(vocab.Texts(doc, nil))

	outputPath := strings.TrimSpace(req.OutputPath)
	if outputPath == "" {
		outputPath = cfg.VocabPath()
	}
	result.OutputPath = outputPath

	if !req.DryRun {
		data, err := vocab.EncodeDocument(doc)
		if err != nil {
			recordRun(ctx, cfg, logger, ledger.Run{
				RunID: runID, Kind: ledger.KindMerge, StartedAt: started, Error: err.Error(),
			})
			return result, notifyError(ctx, notifier, logger, "merge", err)
		}
		if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
			err = services.Wrap(services.ErrConfiguration, "merge", "write", "create data directory", err)
			recordRun(ctx, cfg, logger, ledger.Run{
				RunID: runID, Kind: ledger.KindMerge, StartedAt: started, Error: err.Error(),
			})
			return result, notifyError(ctx, notifier, logger, "merge", err)
		}
		if err := fileutil.WriteFileAtomic(outputPath, append(data, '\n'), 0o644); err != nil {
			err = services.Wrap(nil, "merge", "write", "persist merged document", err)
			recordRun(ctx, cfg, logger, ledger.Run{
				RunID: runID, Kind: ledger.KindMerge, StartedAt: started, Error: err.Error(),
			})
			return result, notifyError(ctx, notifier, logger, "merge", err)
		}
		result.Written = true
		logger.Info("merged document written",
			logging.String("path", outputPath),
			logging.Int("texts", result.Texts))
	}

	recordRun(ctx, cfg, logger, ledger.Run{
		RunID:      runID,
		Kind:       ledger.KindMerge,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Planned:    stats.ReposConfigured,
		Generated:  stats.ReposFetched,
		Failed:     len(stats.ReposSkipped),
	})

	publish(ctx, notifier, logger, notifications.EventMergeCompleted, notifications.Payload{
		"fetched":    strconv.Itoa(stats.ReposFetched),
		"configured": strconv.Itoa(stats.ReposConfigured),
		"skipped":    strconv.Itoa(len(stats.ReposSkipped)),
	})
	return result, nil
}
