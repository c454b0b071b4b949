package api

import (
	"context"
	"fmt"
	"log/slog"

	"sori/internal/config"
	"sori/internal/logging"
	"sori/internal/refstore"
	"sori/internal/services"
	"sori/internal/store"
)

// PlanRequest configures a read-only sync preview.
type PlanRequest struct {
	Config *config.Config
	Logger *slog.Logger
}

// PlanResult is what a sync of the current documents would do.
type PlanResult struct {
	Texts     int
	Copies    int
	Syntheses int
	Items     []store.PlannedItem
	// Orphans are store files a successful sync would sweep away.
	Orphans []string
	// ReferenceEntries is the size of the reference manifest consulted.
	ReferenceEntries int
}

// BuildPlan computes the sync plan without touching the store.
func BuildPlan(ctx context.Context, req PlanRequest) (PlanResult, error) {
	cfg := req.Config
	if cfg == nil {
		return PlanResult{}, fmt.Errorf("configuration is required")
	}
	logger := req.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	texts, err := requiredTexts(cfg, "plan")
	if err != nil {
		return PlanResult{}, err
	}

	refs := refstore.Open(cfg.Paths.ReferenceDir, logger)
	plan := store.Preview(texts, refs, cfg.Store.Extension)
	orphans, err := store.OrphanCandidates(cfg.Paths.StoreDir, cfg.Store.Extension, plan)
	if err != nil {
		return PlanResult{}, services.Wrap(nil, "plan", "scan store", "list orphan candidates", err)
	}

	return PlanResult{
		Texts:            len(texts),
		Copies:           plan.Copies,
		Syntheses:        plan.Syntheses,
		Items:            plan.Items,
		Orphans:          orphans,
		ReferenceEntries: refs.Len(),
	}, nil
}
