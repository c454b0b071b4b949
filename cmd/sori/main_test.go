package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sori/internal/manifest"
)

func TestCLISyncStatusAndHistory(t *testing.T) {
	env := setupCLIEnv(t)
	stubEdgeTTS(t)
	writeCLIVocab(t, env, "사랑해요", "안녕")

	out, _, err := runCLI(t, []string{"sync"}, env.configPath)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	requireContains(t, out, "Synced 2 texts")
	requireContains(t, out, "Generated:  2")

	m, err := manifest.ReadFile(filepath.Join(env.storeDir, manifest.Filename))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("manifest entries = %d, want 2", m.Len())
	}
	artifact, ok := m.Get("사랑해요")
	if !ok {
		t.Fatal("manifest has no entry for 사랑해요")
	}
	audio, err := os.ReadFile(filepath.Join(env.storeDir, artifact))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(audio) != "audio:사랑해요" {
		t.Fatalf("artifact content = %q", audio)
	}

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "2 entries")
	requireContains(t, out, "Ready (command: edge-tts)")
	requireContains(t, out, "edge-tts 7.0.0")
	requireContains(t, out, "planned 2, copied 0, generated 2, failed 0, removed 0")

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "sync")
	requireContains(t, out, "ok in")
}

func TestCLISyncFailsWithoutDocuments(t *testing.T) {
	env := setupCLIEnv(t)
	stubEdgeTTS(t)

	out, _, err := runCLI(t, []string{"sync"}, env.configPath)
	if err == nil {
		t.Fatal("expected sync to fail without a vocabulary document")
	}
	requireContains(t, out, "[ERROR]")
	requireContains(t, out, "Data directory")
}

func TestCLIPlanListsWork(t *testing.T) {
	env := setupCLIEnv(t)
	writeCLIVocab(t, env, "사랑해요", "안녕")

	out, _, err := runCLI(t, []string{"plan"}, env.configPath)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	requireContains(t, out, "Plan for 2 texts")
	requireContains(t, out, "Synthesize:          2")

	if _, err := os.Stat(filepath.Join(env.storeDir, manifest.Filename)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("plan must not write the manifest, stat err = %v", err)
	}

	out, _, err = runCLI(t, []string{"plan", "--detail"}, env.configPath)
	if err != nil {
		t.Fatalf("plan --detail: %v", err)
	}
	requireContains(t, out, "사랑해요")
	requireContains(t, out, "synthesize")

	out, _, err = runCLI(t, []string{"plan", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("plan --json: %v", err)
	}
	requireContains(t, out, `"Texts": 2`)
	requireContains(t, out, `"Syntheses": 2`)
}

func TestCLIMergeDryRun(t *testing.T) {
	env := setupCLIEnv(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/data/vocab.json") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"action": {"subjects": [], "times": [], "places": [], "objects": [{"kr": "책"}], "verbs": []}}`)
	}))
	defer server.Close()

	writeCLIConfig(t, env, fmt.Sprintf(`[merge]
user = "mia"
repos = ["vocab-mia"]
branches = ["master"]
base_url = %q
`, server.URL))

	out, _, err := runCLI(t, []string{"merge", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	requireContains(t, out, "Merged 1 of 1 repositories")
	requireContains(t, out, "Objects: 1")
	requireContains(t, out, "Audio texts: 2")
	requireContains(t, out, "Dry run;")

	if _, err := os.Stat(filepath.Join(env.dataDir, "vocab.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("dry run must not write the document, stat err = %v", err)
	}
}

func TestCLIHistoryEmpty(t *testing.T) {
	env := setupCLIEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded yet")
}

func TestCLITestNotifyWithoutTopic(t *testing.T) {
	env := setupCLIEnv(t)

	_, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err == nil {
		t.Fatal("expected test-notify to fail without a topic")
	}
	requireContains(t, err.Error(), "ntfy_topic")
}

func TestCLIWatchSyncsOnChange(t *testing.T) {
	env := setupCLIEnv(t)
	stubEdgeTTS(t)
	writeCLIVocab(t, env, "안녕")

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--config", env.configPath, "watch", "--settle", "50ms"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	manifestPath := filepath.Join(env.storeDir, manifest.Filename)
	waitFor(t, 10*time.Second, func() bool {
		m, err := manifest.ReadFile(manifestPath)
		return err == nil && m.Len() == 1
	})

	writeCLIVocab(t, env, "안녕", "학교")
	waitFor(t, 10*time.Second, func() bool {
		m, err := manifest.ReadFile(manifestPath)
		return err == nil && m.Len() == 2
	})

	cancel()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("watch: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
	requireContains(t, stdout.String(), "Watching "+env.dataDir)
}
