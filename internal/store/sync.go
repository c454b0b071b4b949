package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"sori/internal/fileutil"
	"sori/internal/logging"
	"sori/internal/manifest"
	"sori/internal/services"
)

// Sync brings the store in line with the required texts. Copies happen
// first and synchronously; syntheses run concurrently up to the
// configured limit. The manifest records only items that were actually
// produced, and the sweep runs last so it only ever consults the freshly
// written manifest. Cancellation aborts before the manifest is touched;
// per-item failures do not.
func (b *Builder) Sync(ctx context.Context, texts []string) (*Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "sync", "prepare store", "create store directory", err)
	}

	plan := b.Plan(texts)
	b.logger.Info("sync planned",
		logging.Int("texts", len(plan.Items)),
		logging.Int("copies", plan.Copies),
		logging.Int("syntheses", plan.Syntheses),
		logging.Int("reference_entries", b.refs.Len()))

	result := &Result{
		Planned:      len(plan.Items),
		ManifestPath: filepath.Join(b.dir, manifest.Filename),
	}
	succeeded := make([]bool, len(plan.Items))
	b.sampler.Reset()

	toSynthesize, err := b.copyPhase(ctx, plan, succeeded, result)
	if err != nil {
		return nil, err
	}
	if err := b.synthesizePhase(ctx, toSynthesize, succeeded, result); err != nil {
		return nil, err
	}

	m := manifest.New()
	for i, item := range plan.Items {
		if succeeded[i] {
			m.Set(item.Text, item.Artifact)
		}
	}
	if err := m.WriteFile(result.ManifestPath); err != nil {
		return nil, services.Wrap(nil, "sync", "write manifest", "persist manifest", err)
	}

	b.sweep(m, result)

	result.Elapsed = time.Since(start)
	b.logger.Info("sync complete",
		logging.Int("planned", result.Planned),
		logging.Int("copied", result.Copied),
		logging.Int("generated", result.Generated),
		logging.Int("failed", len(result.Failures)),
		logging.Int("orphans_removed", result.Removed),
		logging.Int64("store_bytes", result.TotalBytes),
		logging.Duration("elapsed", result.Elapsed))
	return result, nil
}

// copyPhase copies reference hits into the store. A failed copy demotes
// the item to synthesis instead of failing the run.
func (b *Builder) copyPhase(ctx context.Context, plan *Plan, succeeded []bool, result *Result) ([]PlannedItem, error) {
	toSynthesize := make([]PlannedItem, 0, plan.Syntheses)
	done := 0
	for _, item := range plan.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if item.Action != ActionCopy {
			toSynthesize = append(toSynthesize, item)
			continue
		}
		if err := fileutil.CopyFileVerified(item.RefPath, b.artifactPath(item.Artifact)); err != nil {
			logging.WarnWithContext(b.logger, "reference copy failed", "reference_copy_failed",
				logging.String(logging.FieldText, item.Text),
				logging.Error(err),
				logging.String(logging.FieldImpact, "text will be synthesized instead"))
			item.Action = ActionSynthesize
			item.RefPath = ""
			toSynthesize = append(toSynthesize, item)
			continue
		}
		succeeded[item.Index] = true
		result.Copied++
		done++
		b.emit(ProgressUpdate{Phase: PhaseCopy, Done: done, Total: plan.Copies, Text: item.Text})
	}
	return toSynthesize, nil
}

// synthesizePhase renders the remaining items concurrently. Item
// failures are recorded and the rest keep going; only cancellation stops
// the phase early.
func (b *Builder) synthesizePhase(ctx context.Context, items []PlannedItem, succeeded []bool, result *Result) error {
	if len(items) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	var mu sync.Mutex
	done := 0
	for _, item := range items {
		item := item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := b.synth.Synthesize(gctx, item.Text, b.artifactPath(item.Artifact))
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				mu.Lock()
				result.Failures = append(result.Failures, Failure{Text: item.Text, Artifact: item.Artifact, Err: err})
				mu.Unlock()
				logging.ErrorWithContext(b.logger, "synthesis failed", "synthesis_failed",
					logging.String(logging.FieldText, item.Text),
					logging.String(logging.FieldAsset, item.Artifact),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "text stays out of the manifest and is retried on the next sync"))
				return nil
			}
			mu.Lock()
			succeeded[item.Index] = true
			result.Generated++
			done++
			current := done
			percent := float64(current) / float64(len(items)) * 100
			if b.sampler.ShouldLog(percent, PhaseSynthesize) {
				b.logger.Info("synthesis progress",
					logging.Int("done", current),
					logging.Int("total", len(items)))
			}
			mu.Unlock()
			b.emit(ProgressUpdate{Phase: PhaseSynthesize, Done: current, Total: len(items), Text: item.Text})
			return nil
		})
	}
	return g.Wait()
}

// sweep removes artifact files the manifest no longer claims and tallies
// the size of what remains. Sweep problems are warnings, never fatal,
// because the manifest on disk is already correct at this point.
func (b *Builder) sweep(m *manifest.Manifest, result *Result) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		logging.WarnWithContext(b.logger, "sweep skipped", "sweep_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "orphaned audio files may remain"))
		return
	}
	valid := m.ArtifactSet()
	removed := 0
	var kept int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == manifest.Filename || !strings.HasSuffix(name, b.extension) {
			continue
		}
		if _, ok := valid[name]; ok {
			if info, err := entry.Info(); err == nil {
				kept += info.Size()
			}
			continue
		}
		if err := os.Remove(filepath.Join(b.dir, name)); err != nil {
			logging.WarnWithContext(b.logger, "orphan removal failed", "sweep_failed",
				logging.String(logging.FieldAsset, name),
				logging.Error(err),
				logging.String(logging.FieldImpact, "orphaned audio file remains in the store"))
			continue
		}
		removed++
		b.logger.Debug("removed orphan", logging.String(logging.FieldAsset, name))
	}
	result.Removed = removed
	result.TotalBytes = kept
	b.emit(ProgressUpdate{Phase: PhaseSweep, Done: removed, Total: removed})
}
