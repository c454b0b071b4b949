package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sori/internal/logging"
	"sori/internal/manifest"
	"sori/internal/refstore"
)

type fakeSynth struct {
	mu      sync.Mutex
	calls   []string
	fail    map[string]bool
	delay   time.Duration
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, destPath string) error {
	current := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		max := f.maxSeen.Load()
		if current <= max || f.maxSeen.CompareAndSwap(max, current) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, text)
	shouldFail := f.fail[text]
	f.mu.Unlock()
	if shouldFail {
		return errors.New("synthesis exploded")
	}
	return os.WriteFile(destPath, []byte("audio:"+text), 0o644)
}

func (f *fakeSynth) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	sort.Strings(out)
	return out
}

func newTestBuilder(t *testing.T, dir string, synth Synthesizer, refs *refstore.Store) *Builder {
	t.Helper()
	b, err := New(Options{
		Dir:         dir,
		Extension:   ".mp3",
		Concurrency: 3,
		References:  refs,
		Synthesizer: synth,
		Logger:      logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return b
}

func writeReference(t *testing.T, entries map[string]string, contents map[string]string) *refstore.Store {
	t.Helper()
	root := t.TempDir()
	m := manifest.New()
	for text, artifact := range entries {
		m.Set(text, artifact)
	}
	if err := m.WriteFile(filepath.Join(root, manifest.Filename)); err != nil {
		t.Fatal(err)
	}
	audioDir := filepath.Join(root, refstore.AudioDirName)
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for artifact, content := range contents {
		if err := os.WriteFile(filepath.Join(audioDir, artifact), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return refstore.Open(root, logging.NewNop())
}

func TestSyncGeneratesEverything(t *testing.T) {
	dir := t.TempDir()
	synth := &fakeSynth{}
	b := newTestBuilder(t, dir, synth, nil)

	result, err := b.Sync(context.Background(), []string{"안녕", "학교", "사랑해요"})
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if result.Planned != 3 || result.Copied != 0 || result.Generated != 3 || len(result.Failures) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	data, err := os.ReadFile(filepath.Join(dir, manifest.Filename))
	if err != nil {
		t.Fatalf("manifest missing: %v", err)
	}
	want := "{\n" +
		"  \"사랑해요\": \"0000_137a01.mp3\",\n" +
		"  \"안녕\": \"0001_ef1c51.mp3\",\n" +
		"  \"학교\": \"0002_09b9db.mp3\"\n" +
		"}"
	if string(data) != want {
		t.Fatalf("manifest mismatch:\n got %q\nwant %q", data, want)
	}

	for _, artifact := range []string{"0000_137a01.mp3", "0001_ef1c51.mp3", "0002_09b9db.mp3"} {
		if _, err := os.Stat(filepath.Join(dir, artifact)); err != nil {
			t.Errorf("artifact %s missing: %v", artifact, err)
		}
	}
}

func TestSyncCopiesFromReference(t *testing.T) {
	dir := t.TempDir()
	synth := &fakeSynth{}
	refs := writeReference(t,
		map[string]string{"안녕": "0042_ef1c51.mp3"},
		map[string]string{"0042_ef1c51.mp3": "reference-audio"})
	b := newTestBuilder(t, dir, synth, refs)

	result, err := b.Sync(context.Background(), []string{"안녕", "학교", "사랑해요"})
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if result.Copied != 1 || result.Generated != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}

	copied, err := os.ReadFile(filepath.Join(dir, "0001_ef1c51.mp3"))
	if err != nil {
		t.Fatalf("copied artifact missing: %v", err)
	}
	if string(copied) != "reference-audio" {
		t.Fatalf("copied content = %q", copied)
	}
	if got := synth.texts(); !reflect.DeepEqual(got, []string{"사랑해요", "학교"}) {
		t.Fatalf("synthesized texts = %v", got)
	}
}

func TestSyncIdempotentManifest(t *testing.T) {
	dir := t.TempDir()
	b := newTestBuilder(t, dir, &fakeSynth{}, nil)
	texts := []string{"안녕", "학교", "사랑해요"}

	if _, err := b.Sync(context.Background(), texts); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(dir, manifest.Filename))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := b.Sync(context.Background(), texts); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(dir, manifest.Filename))
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Fatalf("manifest not stable across runs:\nfirst %q\nsecond %q", first, second)
	}
}

func TestSyncSweepsOrphansAfterTextRemoval(t *testing.T) {
	dir := t.TempDir()
	b := newTestBuilder(t, dir, &fakeSynth{}, nil)

	if _, err := b.Sync(context.Background(), []string{"안녕", "학교", "사랑해요"}); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	result, err := b.Sync(context.Background(), []string{"안녕", "학교"})
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if result.Removed != 2 {
		t.Fatalf("Removed = %d, want 2", result.Removed)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	want := []string{"0000_ef1c51.mp3", "0001_09b9db.mp3", manifest.Filename}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("store contents = %v, want %v", names, want)
	}
}

func TestSyncLeavesForeignFilesAlone(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep me"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "9999_deadbe.mp3"), []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	b := newTestBuilder(t, dir, &fakeSynth{}, nil)

	result, err := b.Sync(context.Background(), []string{"안녕"})
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if result.Removed != 1 {
		t.Fatalf("Removed = %d, want 1", result.Removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Fatal("foreign file should survive the sweep")
	}
	if _, err := os.Stat(filepath.Join(dir, "9999_deadbe.mp3")); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("stale artifact should have been removed")
	}
}

func TestSyncFailedTextStaysOutOfManifest(t *testing.T) {
	dir := t.TempDir()
	synth := &fakeSynth{fail: map[string]bool{"학교": true}}
	b := newTestBuilder(t, dir, synth, nil)

	result, err := b.Sync(context.Background(), []string{"안녕", "학교", "사랑해요"})
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if result.Generated != 2 || len(result.Failures) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Failures[0].Text != "학교" {
		t.Fatalf("failure text = %q", result.Failures[0].Text)
	}

	m, err := manifest.ReadFile(filepath.Join(dir, manifest.Filename))
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 2 {
		t.Fatalf("manifest entries = %d, want 2", m.Len())
	}
	if _, ok := m.Get("학교"); ok {
		t.Fatal("failed text must stay out of the manifest")
	}
	if _, ok := m.Get("안녕"); !ok {
		t.Fatal("successful text missing from manifest")
	}
}

func TestSyncStaleReferenceFallsBackToSynthesis(t *testing.T) {
	dir := t.TempDir()
	synth := &fakeSynth{}
	refs := writeReference(t,
		map[string]string{"안녕": "0042_ef1c51.mp3"},
		map[string]string{})
	b := newTestBuilder(t, dir, synth, refs)

	result, err := b.Sync(context.Background(), []string{"안녕"})
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if result.Copied != 0 || result.Generated != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := synth.texts(); !reflect.DeepEqual(got, []string{"안녕"}) {
		t.Fatalf("synthesized texts = %v", got)
	}
}

func TestSyncHonorsConcurrencyLimit(t *testing.T) {
	dir := t.TempDir()
	synth := &fakeSynth{delay: 2 * time.Millisecond}
	b, err := New(Options{
		Dir:         dir,
		Concurrency: 5,
		Synthesizer: synth,
		Logger:      logging.NewNop(),
	})
	if err != nil {
		t.Fatal(err)
	}

	texts := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		texts = append(texts, fmt.Sprintf("문장 번호 %d입니다", i))
	}
	result, err := b.Sync(context.Background(), texts)
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if result.Generated != 100 {
		t.Fatalf("Generated = %d, want 100", result.Generated)
	}
	if max := synth.maxSeen.Load(); max > 5 {
		t.Fatalf("observed %d concurrent syntheses, limit is 5", max)
	}

	m, err := manifest.ReadFile(filepath.Join(dir, manifest.Filename))
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 100 {
		t.Fatalf("manifest entries = %d, want 100", m.Len())
	}
}

func TestSyncCancelledBeforeStart(t *testing.T) {
	dir := t.TempDir()
	b := newTestBuilder(t, dir, &fakeSynth{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.Sync(ctx, []string{"안녕"}); err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if _, err := os.Stat(filepath.Join(dir, manifest.Filename)); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("cancelled sync must not write a manifest")
	}
}

func TestSyncEmptyTextsWritesEmptyManifest(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "0000_aaaaaa.mp3"), []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	b := newTestBuilder(t, dir, &fakeSynth{}, nil)

	result, err := b.Sync(context.Background(), nil)
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if result.Planned != 0 || result.Removed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	data, err := os.ReadFile(filepath.Join(dir, manifest.Filename))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{}" {
		t.Fatalf("manifest = %q, want {}", data)
	}
}

func TestSyncProgressUpdates(t *testing.T) {
	dir := t.TempDir()
	refs := writeReference(t,
		map[string]string{"안녕": "0042_ef1c51.mp3"},
		map[string]string{"0042_ef1c51.mp3": "reference-audio"})

	var mu sync.Mutex
	counts := make(map[string]int)
	b, err := New(Options{
		Dir:         dir,
		References:  refs,
		Synthesizer: &fakeSynth{},
		Logger:      logging.NewNop(),
		Progress: func(update ProgressUpdate) {
			mu.Lock()
			counts[update.Phase]++
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := b.Sync(context.Background(), []string{"안녕", "학교", "사랑해요"}); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if counts[PhaseCopy] != 1 {
		t.Fatalf("copy updates = %d, want 1", counts[PhaseCopy])
	}
	if counts[PhaseSynthesize] != 2 {
		t.Fatalf("synthesize updates = %d, want 2", counts[PhaseSynthesize])
	}
	if counts[PhaseSweep] != 1 {
		t.Fatalf("sweep updates = %d, want 1", counts[PhaseSweep])
	}
}

func TestPlanPartition(t *testing.T) {
	refs := writeReference(t,
		map[string]string{"안녕": "0042_ef1c51.mp3"},
		map[string]string{"0042_ef1c51.mp3": "reference-audio"})
	b := newTestBuilder(t, t.TempDir(), &fakeSynth{}, refs)

	plan := b.Plan([]string{"학교", "안녕", "안녕", ""})
	if len(plan.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(plan.Items))
	}
	if plan.Copies != 1 || plan.Syntheses != 1 {
		t.Fatalf("partition = %d copies, %d syntheses", plan.Copies, plan.Syntheses)
	}
	first := plan.Items[0]
	if first.Text != "안녕" || first.Artifact != "0000_ef1c51.mp3" || first.Action != ActionCopy {
		t.Fatalf("unexpected first item: %+v", first)
	}
	second := plan.Items[1]
	if second.Text != "학교" || second.Artifact != "0001_09b9db.mp3" || second.Action != ActionSynthesize {
		t.Fatalf("unexpected second item: %+v", second)
	}
}

func TestCopyPhaseFallsBackWhenCopyFails(t *testing.T) {
	b := newTestBuilder(t, t.TempDir(), &fakeSynth{}, nil)
	plan := &Plan{
		Items: []PlannedItem{{
			Index:    0,
			Text:     "안녕",
			Artifact: "0000_ef1c51.mp3",
			Action:   ActionCopy,
			RefPath:  filepath.Join(t.TempDir(), "missing.mp3"),
		}},
		Copies: 1,
	}
	succeeded := make([]bool, 1)
	result := &Result{}

	toSynthesize, err := b.copyPhase(context.Background(), plan, succeeded, result)
	if err != nil {
		t.Fatalf("copyPhase returned error: %v", err)
	}
	if len(toSynthesize) != 1 || toSynthesize[0].Action != ActionSynthesize {
		t.Fatalf("expected demotion to synthesis, got %+v", toSynthesize)
	}
	if succeeded[0] || result.Copied != 0 {
		t.Fatalf("failed copy must not count as success: %+v", result)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Options{Synthesizer: &fakeSynth{}}); err == nil {
		t.Fatal("expected error for missing dir")
	}
	if _, err := New(Options{Dir: "/tmp/x"}); err == nil {
		t.Fatal("expected error for missing synthesizer")
	}
}
