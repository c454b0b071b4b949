package api

import (
	"context"
	"fmt"

	"sori/internal/config"
	"sori/internal/ledger"
)

// HistoryRequest configures a run history query.
type HistoryRequest struct {
	Config *config.Config
	// Limit bounds how many runs come back, newest first. Zero means the
	// ledger default.
	Limit int
}

// HistoryResult carries recent runs, newest first.
type HistoryResult struct {
	Runs       []ledger.Run
	LedgerPath string
}

// History reads recent runs from the ledger.
func History(ctx context.Context, req HistoryRequest) (HistoryResult, error) {
	cfg := req.Config
	if cfg == nil {
		return HistoryResult{}, fmt.Errorf("configuration is required")
	}

	l, err := ledger.Open(cfg)
	if err != nil {
		return HistoryResult{}, fmt.Errorf("open ledger: %w", err)
	}
	defer l.Close()

	runs, err := l.Recent(ctx, req.Limit)
	if err != nil {
		return HistoryResult{}, err
	}
	return HistoryResult{Runs: runs, LedgerPath: l.Path()}, nil
}
