package api

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"sori/internal/config"
	"sori/internal/ledger"
	"sori/internal/logging"
	"sori/internal/notifications"
	"sori/internal/preflight"
	"sori/internal/refstore"
	"sori/internal/services"
	"sori/internal/services/edgetts"
	"sori/internal/store"
)

// lockFilename is the advisory lock inside the store directory that keeps
// concurrent syncs from interleaving writes.
const lockFilename = ".sori.lock"

// SyncRequest configures a full store synchronization.
type SyncRequest struct {
	Config *config.Config
	Logger *slog.Logger
	// RunID labels the run in logs and the ledger. Empty generates one.
	RunID string
	// Synthesizer overrides the edge-tts client. Tests use this to avoid
	// shelling out.
	Synthesizer store.Synthesizer
	// Progress, when set, receives one update per finished item.
	Progress func(store.ProgressUpdate)
}

// SyncResult reports what a sync run did. Checks are populated even when
// the run aborts in preflight, so callers can show which check failed.
type SyncResult struct {
	RunID  string
	Texts  int
	Store  *store.Result
	Checks []preflight.Result
}

// Sync computes the required texts and brings the audio store in line
// with them. The run holds an exclusive store lock, so concurrent syncs
// fail fast instead of interleaving. Per-text failures do not fail the
// run; they are reported in the result and retried next time.
func Sync(ctx context.Context, req SyncRequest) (SyncResult, error) {
	cfg := req.Config
	if cfg == nil {
		return SyncResult{}, fmt.Errorf("configuration is required")
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

	result := SyncResult{RunID: runID}

	if err := cfg.EnsureDirectories(); err != nil {
		return result, notifyError(ctx, notifier, logger, "sync",
			services.Wrap(services.ErrConfiguration, "sync", "prepare", "ensure directories", err))
	}

	result.Checks = preflight.RunAll(ctx, cfg)
	if !preflight.Passed(result.Checks) {
		err := services.Wrap(services.ErrConfiguration, "sync", "preflight", failedCheckSummary(result.Checks), nil)
		return result, notifyError(ctx, notifier, logger, "sync", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.StoreDir, lockFilename))
	locked, err := lock.TryLock()
	if err != nil {
		return result, notifyError(ctx, notifier, logger, "sync",
			services.Wrap(nil, "sync", "lock", "acquire store lock", err))
	}
	if !locked {
		return result, notifyError(ctx, notifier, logger, "sync",
			services.Wrap(services.ErrLocked, "sync", "lock", "another run holds the store lock", nil))
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logging.WarnWithContext(logger, "store unlock failed", "store_unlock_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "stale lock file may block the next run"))
		}
	}()

	texts, err := requiredTexts(cfg, "sync")
	if err != nil {
		recordRun(ctx, cfg, logger, ledger.Run{
			RunID: runID, Kind: ledger.KindSync, StartedAt: started, Error: err.Error(),
		})
		return result, notifyError(ctx, notifier, logger, "sync", err)
	}
	result.Texts = len(texts)
	logger.Info("sync starting",
		logging.Int("texts", result.Texts),
		logging.String("store_dir", cfg.Paths.StoreDir))

	synth := req.Synthesizer
	if synth == nil {
		client, err := edgetts.New(cfg.TTS.Command, cfg.TTS.Voice, cfg.TTS.TimeoutSeconds, cfg.TTS.RequestsPerSecond)
		if err != nil {
			err = services.Wrap(services.ErrConfiguration, "sync", "synthesizer", "configure edge-tts", err)
			recordRun(ctx, cfg, logger, ledger.Run{
				RunID: runID, Kind: ledger.KindSync, StartedAt: started, Error: err.Error(),
			})
			return result, notifyError(ctx, notifier, logger, "sync", err)
		}
		synth = client
	}

	builder, err := store.New(store.Options{
		Dir:         cfg.Paths.StoreDir,
		Extension:   cfg.Store.Extension,
		Concurrency: cfg.TTS.Concurrency,
		References:  refstore.Open(cfg.Paths.ReferenceDir, logger),
		Synthesizer: synth,
		Logger:      logger,
		Progress:    req.Progress,
	})
	if err != nil {
		err = services.Wrap(services.ErrConfiguration, "sync", "builder", "", err)
		return result, notifyError(ctx, notifier, logger, "sync", err)
	}

	storeResult, err := builder.Sync(ctx, texts)
	if err != nil {
		recordRun(ctx, cfg, logger, ledger.Run{
			RunID: runID, Kind: ledger.KindSync,
			StartedAt: started, FinishedAt: time.Now().UTC(),
			Planned: result.Texts, Error: err.Error(),
		})
		return result, notifyError(ctx, notifier, logger, "sync", err)
	}
	result.Store = storeResult

	recordRun(ctx, cfg, logger, ledger.Run{
		RunID:      runID,
		Kind:       ledger.KindSync,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Planned:    storeResult.Planned,
		Copied:     storeResult.Copied,
		Generated:  storeResult.Generated,
		Failed:     len(storeResult.Failures),
		Removed:    storeResult.Removed,
		StoreBytes: storeResult.TotalBytes,
	})

	publish(ctx, notifier, logger, notifications.EventSyncCompleted, notifications.Payload{
		"copied":    strconv.Itoa(storeResult.Copied),
		"generated": strconv.Itoa(storeResult.Generated),
		"removed":   strconv.Itoa(storeResult.Removed),
		"failed":    strconv.Itoa(len(storeResult.Failures)),
		"elapsed":   storeResult.Elapsed.Round(100 * time.Millisecond).String(),
	})
	return result, nil
}
