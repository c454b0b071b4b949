package edgetts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (string, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client invokes edge-tts to synthesize one audio file per call.
type Client struct {
	binary  string
	prefix  []string
	voice   string
	timeout time.Duration
	limiter *rate.Limiter
	exec    Executor
}

// New constructs an edge-tts client. command may carry a launcher prefix
// ("uvx edge-tts"); voice is a full Edge voice name such as
// ko-KR-SunHiNeural. requestsPerSecond of zero disables throttling.
func New(command, voice string, timeoutSeconds int, requestsPerSecond float64, opts ...Option) (*Client, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("edge-tts command required")
	}
	if strings.TrimSpace(voice) == "" {
		return nil, errors.New("edge-tts voice required")
	}
	client := &Client{
		binary:  fields[0],
		prefix:  fields[1:],
		voice:   voice,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	if requestsPerSecond > 0 {
		client.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Voice returns the configured voice name.
func (c *Client) Voice() string {
	return c.voice
}

// Synthesize renders text into an audio file at destPath. On failure no
// file is left behind, so a later sweep never mistakes a partial write
// for a finished artifact.
func (c *Client) Synthesize(ctx context.Context, text, destPath string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("text required")
	}
	if destPath == "" {
		return errors.New("destination path required")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("throttle synthesis: %w", err)
		}
	}

	synthCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		synthCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := append(append([]string{}, c.prefix...),
		"--voice", c.voice,
		"--text", text,
		"--write-media", destPath,
	)
	output, err := c.exec.Run(synthCtx, c.binary, args)
	if err != nil {
		_ = os.Remove(destPath)
		if synthCtx.Err() != nil && ctx.Err() == nil {
			return fmt.Errorf("synthesis timed out after %s: %w", c.timeout, context.DeadlineExceeded)
		}
		return fmt.Errorf("edge-tts: %w%s", err, outputTail(output))
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return fmt.Errorf("edge-tts produced no output file%s", outputTail(output))
	}
	if info.Size() == 0 {
		_ = os.Remove(destPath)
		return fmt.Errorf("edge-tts wrote an empty file%s", outputTail(output))
	}
	return nil
}

// outputTail renders the last lines of tool output for error messages.
func outputTail(output string) string {
	output = strings.TrimSpace(output)
	if output == "" {
		return ""
	}
	lines := strings.Split(output, "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return ": " + strings.TrimSpace(strings.Join(lines, " "))
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.String(), err
}
