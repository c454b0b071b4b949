package api

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"sori/internal/config"
	"sori/internal/deps"
	"sori/internal/ledger"
	"sori/internal/logging"
	"sori/internal/preflight"
	"sori/internal/services"
	"sori/internal/store"
)

// StatusRequest configures a status report.
type StatusRequest struct {
	Config *config.Config
	Logger *slog.Logger
}

// StatusResult aggregates everything `sori status` renders.
type StatusResult struct {
	Store  *store.Status
	Checks []preflight.Result
	Deps   []deps.Status
	Tool   preflight.ToolProbe
	// LastRun is the most recent ledger entry, nil when there is none or
	// the ledger is unavailable.
	LastRun *ledger.Run
}

// Status inspects the store and the environment without changing either,
// beyond creating the configured directories.
func Status(ctx context.Context, req StatusRequest) (StatusResult, error) {
	cfg := req.Config
	if cfg == nil {
		return StatusResult{}, fmt.Errorf("configuration is required")
	}
	logger := req.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return StatusResult{}, services.Wrap(services.ErrConfiguration, "status", "prepare", "ensure directories", err)
	}

	checks := preflight.RunAll(ctx, cfg)
	if strings.TrimSpace(cfg.Paths.ReferenceDir) == "" {
		// RunAll skips the reference store when unconfigured; the status
		// table should still say so.
		checks = append(checks, preflight.CheckReferenceFromConfig(cfg))
	}

	result := StatusResult{
		Checks: checks,
		Deps:   preflight.CheckSystemDeps(cfg),
		Tool:   preflight.ProbeSynthesisTool(cfg.SynthesisBinary()),
	}

	st, err := store.Inspect(cfg.Paths.StoreDir, cfg.Store.Extension)
	if err != nil {
		return result, services.Wrap(nil, "status", "inspect store", "", err)
	}
	result.Store = st

	if l, err := ledger.Open(cfg); err == nil {
		runs, recentErr := l.Recent(ctx, 1)
		_ = l.Close()
		if recentErr == nil && len(runs) > 0 {
			result.LastRun = &runs[0]
		}
	} else {
		logger.Debug("ledger unavailable", logging.Error(err))
	}

	return result, nil
}
