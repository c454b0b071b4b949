package preflight

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"sori/internal/config"
)

// CheckReferenceFromConfig evaluates reference store status from config.
// An unconfigured reference store passes; the pipeline simply synthesizes
// everything.
func CheckReferenceFromConfig(cfg *config.Config) Result {
	const name = "Reference store"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Paths.ReferenceDir) == "" {
		return Result{Name: name, Passed: true, Detail: "Not configured"}
	}
	return CheckDirectoryReadable(name, cfg.Paths.ReferenceDir)
}

// ToolProbe reports the detected synthesis CLI snapshot.
type ToolProbe struct {
	Detected bool
	Command  string
	Version  string
}

// ProbeSynthesisTool attempts to detect the synthesis CLI and read its
// version. Version detection is best effort; not every release of the
// tool supports --version.
func ProbeSynthesisTool(command string) ToolProbe {
	command = strings.TrimSpace(command)
	if command == "" {
		command = "edge-tts"
	}
	if _, err := exec.LookPath(command); err != nil {
		return ToolProbe{Command: command}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, command, "--version")
	output, err := cmd.Output()
	if err != nil {
		return ToolProbe{Detected: true, Command: command}
	}
	return ToolProbe{
		Detected: true,
		Command:  command,
		Version:  strings.TrimSpace(string(output)),
	}
}

// Detail renders a display-friendly summary for status UIs.
func (p ToolProbe) Detail() string {
	if !p.Detected {
		return fmt.Sprintf("%s not found on PATH", p.Command)
	}
	if p.Version == "" {
		return p.Command
	}
	return fmt.Sprintf("%s (%s)", p.Command, p.Version)
}
