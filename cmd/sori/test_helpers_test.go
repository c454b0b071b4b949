package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	dataDir    string
	storeDir   string
}

func setupCLIEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		dataDir:    filepath.Join(base, "data"),
		storeDir:   filepath.Join(base, "tts"),
	}
	writeCLIConfig(t, env, "")
	return env
}

func writeCLIConfig(t *testing.T, env *cliTestEnv, extra string) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
data_dir = %q
store_dir = %q
log_dir = %q
ledger_path = %q

[tts]
concurrency = 2
`,
		env.dataDir,
		env.storeDir,
		filepath.Join(env.baseDir, "logs"),
		filepath.Join(env.baseDir, "ledger", "ledger.db"),
	)
	if extra != "" {
		content += "\n" + extra
	}
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func writeCLIVocab(t *testing.T, env *cliTestEnv, texts ...string) {
	t.Helper()
	if err := os.MkdirAll(env.dataDir, 0o755); err != nil {
		t.Fatalf("mkdir data dir: %v", err)
	}
	cards := make([]string, 0, len(texts))
	for _, text := range texts {
		cards = append(cards, fmt.Sprintf(`{"kr": %q}`, text))
	}
	doc := fmt.Sprintf(`{"flashcards": {"categories": [{"name": "기초", "cards": [%s]}]}}`,
		strings.Join(cards, ", "))
	if err := os.WriteFile(filepath.Join(env.dataDir, "vocab.json"), []byte(doc), 0o644); err != nil {
		t.Fatalf("write vocab: %v", err)
	}
}

// stubEdgeTTS puts a fake edge-tts on PATH that writes "audio:<text>" to
// the --write-media destination, so sync tests run without the real tool.
func stubEdgeTTS(t *testing.T) {
	t.Helper()
	binDir := filepath.Join(t.TempDir(), "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("create stub bin dir: %v", err)
	}
	script := `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "edge-tts 7.0.0"
  exit 0
fi
dest=""
text=""
prev=""
for arg in "$@"; do
  case "$prev" in
    --write-media) dest="$arg" ;;
    --text) text="$arg" ;;
  esac
  prev="$arg"
done
if [ -z "$dest" ]; then
  exit 1
fi
printf 'audio:%s' "$text" > "$dest"
`
	if err := os.WriteFile(filepath.Join(binDir, "edge-tts"), []byte(script), 0o755); err != nil {
		t.Fatalf("write stub edge-tts: %v", err)
	}
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
