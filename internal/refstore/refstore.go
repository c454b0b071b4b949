// Package refstore probes a read-only reference store for audio files
// that can be copied instead of synthesized.
package refstore

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"sori/internal/logging"
	"sori/internal/manifest"
)

// AudioDirName is the subdirectory of the reference root that holds the
// audio files the reference manifest points at.
const AudioDirName = "audio"

// Store resolves texts against a reference manifest. A store is always
// usable; when the reference is absent or unreadable every lookup misses.
type Store struct {
	root    string
	entries *manifest.Manifest
}

// Open loads the reference store rooted at root. An empty root disables
// resolution. A missing or corrupt reference manifest logs a warning and
// yields an empty store rather than an error, since the reference is an
// optimization and never required for a sync to succeed.
func Open(root string, logger *slog.Logger) *Store {
	store := &Store{root: root, entries: manifest.New()}
	if root == "" {
		return store
	}

	log := logging.NewComponentLogger(logger, "refstore")
	path := filepath.Join(root, manifest.Filename)
	entries, err := manifest.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info("no reference manifest, every text will be synthesized",
				logging.String("path", path))
		} else {
			logging.WarnWithContext(log, "reference manifest unreadable", "refstore_unreadable",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "all texts will be synthesized"))
		}
		return store
	}

	store.entries = entries
	log.Info("reference store loaded",
		logging.String("path", root),
		logging.Int("entries", entries.Len()))
	return store
}

// Len returns the number of reference manifest entries.
func (s *Store) Len() int {
	return s.entries.Len()
}

// Resolve returns the absolute path of the reference audio for text. It
// reports a hit only when the manifest lists the text and the file is
// actually present, so a stale manifest entry degrades to a miss instead
// of a failed copy later.
func (s *Store) Resolve(text string) (string, bool) {
	artifact, ok := s.entries.Get(text)
	if !ok {
		return "", false
	}
	path := filepath.Join(s.root, AudioDirName, artifact)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}
