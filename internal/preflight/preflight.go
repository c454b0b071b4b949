package preflight

import (
	"context"

	"sori/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// The data directory and vocabulary document must be readable, the store
// directory must be writable, and the reference store is checked only
// when one is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryReadable("Data directory", cfg.Paths.DataDir),
		CheckFileReadable("Vocabulary document", cfg.VocabPath()),
		CheckDirectoryAccess("Store directory", cfg.Paths.StoreDir),
		CheckDiskSpace("Store free space", cfg.Paths.StoreDir, minStoreFree),
	}

	if cfg.Paths.ReferenceDir != "" {
		results = append(results, CheckDirectoryReadable("Reference store", cfg.Paths.ReferenceDir))
	}

	return results
}

// Passed reports whether every check in results succeeded.
func Passed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
