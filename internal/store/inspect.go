package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sori/internal/manifest"
)

// Status describes the store directory as it sits on disk.
type Status struct {
	// ManifestPresent is false when no manifest has ever been written.
	ManifestPresent bool
	// Entries is the number of manifest entries.
	Entries int
	// Artifacts is the number of audio files present.
	Artifacts int
	// Missing counts manifest entries whose audio file is absent.
	Missing int
	// Orphans counts audio files the manifest does not claim.
	Orphans    int
	TotalBytes int64
}

// Inspect reports the state of the store at dir without changing it.
// A store that does not exist yet inspects as empty.
func Inspect(dir, extension string) (*Status, error) {
	if extension == "" {
		extension = ".mp3"
	}
	status := &Status{}

	m, err := manifest.ReadFile(filepath.Join(dir, manifest.Filename))
	switch {
	case err == nil:
		status.ManifestPresent = true
		status.Entries = m.Len()
	case errors.Is(err, fs.ErrNotExist):
		m = manifest.New()
	default:
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			status.Missing = status.Entries
			return status, nil
		}
		return nil, err
	}

	present := make(map[string]struct{})
	valid := m.ArtifactSet()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), extension) {
			continue
		}
		status.Artifacts++
		present[entry.Name()] = struct{}{}
		if info, err := entry.Info(); err == nil {
			status.TotalBytes += info.Size()
		}
		if _, ok := valid[entry.Name()]; !ok {
			status.Orphans++
		}
	}
	for artifact := range valid {
		if _, ok := present[artifact]; !ok {
			status.Missing++
		}
	}
	return status, nil
}

// OrphanCandidates lists the artifact files in dir that plan does not
// claim, sorted. These are the files a successful sync of the same texts
// would sweep away. A store directory that does not exist yields none.
func OrphanCandidates(dir, extension string, plan *Plan) ([]string, error) {
	if extension == "" {
		extension = ".mp3"
	}
	planned := make(map[string]struct{}, len(plan.Items))
	for _, item := range plan.Items {
		planned[item.Artifact] = struct{}{}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var orphans []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == manifest.Filename || !strings.HasSuffix(name, extension) {
			continue
		}
		if _, ok := planned[name]; !ok {
			orphans = append(orphans, name)
		}
	}
	sort.Strings(orphans)
	return orphans, nil
}
