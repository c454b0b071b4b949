package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	StoreDir     string `toml:"store_dir"`
	ReferenceDir string `toml:"reference_dir"`
	LogDir       string `toml:"log_dir"`
	LedgerPath   string `toml:"ledger_path"`
}

// Store contains configuration for the audio store layout.
type Store struct {
	Extension string `toml:"extension"`
}

// TTS contains configuration for speech synthesis.
type TTS struct {
	Command           string  `toml:"command"`
	Voice             string  `toml:"voice"`
	Concurrency       int     `toml:"concurrency"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Merge contains configuration for pulling student vocabularies together.
type Merge struct {
	User           string   `toml:"user"`
	Repos          []string `toml:"repos"`
	Branches       []string `toml:"branches"`
	BaseURL        string   `toml:"base_url"`
	RequestTimeout int      `toml:"request_timeout"`
	Concurrency    int      `toml:"concurrency"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Sync           bool   `toml:"sync"`
	Merge          bool   `toml:"merge"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Sori.
//
// Configuration sections by subsystem:
//   - Paths: data, store, reference, log, and ledger locations
//   - Store: audio artifact naming
//   - TTS: external synthesis command, voice, and throttling
//   - Merge: student vocabulary repositories to aggregate
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Store         Store         `toml:"store"`
	TTS           TTS           `toml:"tts"`
	Merge         Merge         `toml:"merge"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/sori/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/sori/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("sori.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a sync run writes to. The data and
// reference directories are inputs and are never created here.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StoreDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.LedgerPath) != "" {
		if err := os.MkdirAll(filepath.Dir(c.Paths.LedgerPath), 0o755); err != nil {
			return fmt.Errorf("create ledger directory %q: %w", filepath.Dir(c.Paths.LedgerPath), err)
		}
	}
	return nil
}

// VocabPath returns the location of the vocabulary document.
func (c *Config) VocabPath() string {
	return filepath.Join(c.Paths.DataDir, "vocab.json")
}

// SentencesPath returns the location of the optional sentences document.
func (c *Config) SentencesPath() string {
	return filepath.Join(c.Paths.DataDir, "sentences.json")
}

// SynthesisBinary returns the executable name of the configured TTS command.
func (c *Config) SynthesisBinary() string {
	fields := strings.Fields(c.TTS.Command)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// VoiceLocale returns the BCP-47 locale prefix of the configured voice,
// e.g. "ko-KR" for "ko-KR-SunHiNeural".
func (c *Config) VoiceLocale() string {
	parts := strings.SplitN(c.TTS.Voice, "-", 3)
	if len(parts) < 2 {
		return c.TTS.Voice
	}
	return parts[0] + "-" + parts[1]
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultLedgerPath() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "sori", "ledger.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.local/share/sori/ledger.db"
	}
	return filepath.Join(home, ".local", "share", "sori", "ledger.db")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
