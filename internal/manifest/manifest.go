// Package manifest reads and writes the store manifest, a JSON object
// mapping each spoken text to the audio file that voices it.
//
// Entries keep insertion order and the encoder output is stable byte for
// byte, so a run over unchanged input rewrites an identical file and
// directory diffs stay quiet.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"sori/internal/fileutil"
)

// Filename is the manifest file name inside a store directory.
const Filename = "manifest.json"

// Entry is one text-to-artifact pair.
type Entry struct {
	Text     string
	Artifact string
}

// Manifest is an ordered mapping from text to artifact file name.
type Manifest struct {
	keys   []string
	values map[string]string
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{values: make(map[string]string)}
}

// Set records the artifact for text. A repeated text keeps its original
// position and takes the new artifact name.
func (m *Manifest) Set(text, artifact string) {
	if _, ok := m.values[text]; !ok {
		m.keys = append(m.keys, text)
	}
	m.values[text] = artifact
}

// Get returns the artifact recorded for text.
func (m *Manifest) Get(text string) (string, bool) {
	artifact, ok := m.values[text]
	return artifact, ok
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.keys)
}

// Texts returns the texts in insertion order.
func (m *Manifest) Texts() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Entries returns all pairs in insertion order.
func (m *Manifest) Entries() []Entry {
	out := make([]Entry, 0, len(m.keys))
	for _, text := range m.keys {
		out = append(out, Entry{Text: text, Artifact: m.values[text]})
	}
	return out
}

// ArtifactSet returns the set of artifact file names the manifest claims.
// The sweep uses it to decide which files in the store are orphans.
func (m *Manifest) ArtifactSet() map[string]struct{} {
	set := make(map[string]struct{}, len(m.keys))
	for _, artifact := range m.values {
		set[artifact] = struct{}{}
	}
	return set
}

// Encode renders the manifest as a two-space-indented JSON object with
// keys in insertion order and no trailing newline. Non-ASCII text is
// written raw rather than as escape sequences.
func (m *Manifest) Encode() []byte {
	var buf bytes.Buffer
	if len(m.keys) == 0 {
		buf.WriteString("{}")
		return buf.Bytes()
	}
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	buf.WriteString("{\n")
	for i, text := range m.keys {
		buf.WriteString("  ")
		_ = enc.Encode(text)
		buf.Truncate(buf.Len() - 1)
		buf.WriteString(": ")
		_ = enc.Encode(m.values[text])
		buf.Truncate(buf.Len() - 1)
		if i < len(m.keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

// WriteFile writes the encoded manifest to path atomically.
func (m *Manifest) WriteFile(path string) error {
	if err := fileutil.WriteFileAtomic(path, m.Encode(), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Parse decodes manifest bytes. Keys come back sorted, which matches the
// writer's order because the builder inserts texts in sorted order.
func Parse(data []byte) (*Manifest, error) {
	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	texts := make([]string, 0, len(entries))
	for text := range entries {
		texts = append(texts, text)
	}
	sort.Strings(texts)
	m := New()
	for _, text := range texts {
		m.Set(text, entries[text])
	}
	return m, nil
}

// ReadFile loads and decodes the manifest at path.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
