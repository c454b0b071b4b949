// Package store builds and maintains the audio store: a flat directory of
// speech files plus a manifest mapping each text to its file. A sync
// copies what the reference store already has, synthesizes the rest,
// rewrites the manifest, and finally sweeps files the manifest no longer
// claims. Failed texts are skipped rather than fatal; they stay out of
// the manifest so the next run picks them up again.
package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sori/internal/logging"
	"sori/internal/refstore"
)

// Synthesizer renders one text into an audio file at destPath.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, destPath string) error
}

// ProgressUpdate reports sync progress, one update per finished item.
type ProgressUpdate struct {
	Phase string
	Done  int
	Total int
	Text  string
}

// Phase names carried by progress updates and log records.
const (
	PhaseCopy       = "copy"
	PhaseSynthesize = "synthesize"
	PhaseSweep      = "sweep"
)

// Failure records one text that could not be produced.
type Failure struct {
	Text     string
	Artifact string
	Err      error
}

// Result summarizes a completed sync.
type Result struct {
	Planned      int
	Copied       int
	Generated    int
	Removed      int
	Failures     []Failure
	TotalBytes   int64
	Elapsed      time.Duration
	ManifestPath string
}

// Options configures a Builder.
type Options struct {
	// Dir is the store directory. Created on first sync.
	Dir string
	// Extension is the artifact file suffix, ".mp3" by default.
	Extension string
	// Concurrency bounds simultaneous synthesis calls.
	Concurrency int
	// References resolves texts against a read-only reference store.
	// Nil disables copying.
	References *refstore.Store
	// Synthesizer produces audio for texts the reference cannot supply.
	Synthesizer Synthesizer
	Logger      *slog.Logger
	// Progress, when set, receives one update per finished item.
	Progress func(ProgressUpdate)
}

// Builder synchronizes the audio store with a set of required texts.
type Builder struct {
	dir         string
	extension   string
	concurrency int
	refs        *refstore.Store
	synth       Synthesizer
	logger      *slog.Logger
	progress    func(ProgressUpdate)
	sampler     *logging.ProgressSampler
}

// New constructs a Builder.
func New(opts Options) (*Builder, error) {
	if opts.Dir == "" {
		return nil, errors.New("store directory required")
	}
	if opts.Synthesizer == nil {
		return nil, errors.New("synthesizer required")
	}
	extension := opts.Extension
	if extension == "" {
		extension = ".mp3"
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	refs := opts.References
	if refs == nil {
		refs = refstore.Open("", nil)
	}
	return &Builder{
		dir:         opts.Dir,
		extension:   extension,
		concurrency: concurrency,
		refs:        refs,
		synth:       opts.Synthesizer,
		logger:      logging.NewComponentLogger(opts.Logger, "store"),
		progress:    opts.Progress,
		sampler:     logging.NewProgressSampler(10),
	}, nil
}

func (b *Builder) emit(update ProgressUpdate) {
	if b.progress != nil {
		b.progress(update)
	}
}
