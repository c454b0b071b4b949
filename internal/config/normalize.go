package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStore()
	c.normalizeTTS()
	c.normalizeMerge()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.StoreDir, err = expandPath(c.Paths.StoreDir); err != nil {
		return fmt.Errorf("paths.store_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ReferenceDir) == "" {
		if value, ok := os.LookupEnv("SORI_REFERENCE_DIR"); ok {
			c.Paths.ReferenceDir = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Paths.ReferenceDir) != "" {
		if c.Paths.ReferenceDir, err = expandPath(c.Paths.ReferenceDir); err != nil {
			return fmt.Errorf("paths.reference_dir: %w", err)
		}
	} else {
		c.Paths.ReferenceDir = ""
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LedgerPath) == "" {
		c.Paths.LedgerPath = defaultLedgerPath()
	}
	if c.Paths.LedgerPath, err = expandPath(c.Paths.LedgerPath); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeStore() {
	c.Store.Extension = strings.ToLower(strings.TrimSpace(c.Store.Extension))
	if c.Store.Extension == "" {
		c.Store.Extension = defaultExtension
	}
	if !strings.HasPrefix(c.Store.Extension, ".") {
		c.Store.Extension = "." + c.Store.Extension
	}
}

func (c *Config) normalizeTTS() {
	c.TTS.Command = strings.TrimSpace(c.TTS.Command)
	if c.TTS.Command == "" {
		c.TTS.Command = defaultTTSCommand
	}
	c.TTS.Voice = strings.TrimSpace(c.TTS.Voice)
	if c.TTS.Voice == "" {
		c.TTS.Voice = defaultVoice
	}
	if c.TTS.Concurrency <= 0 {
		c.TTS.Concurrency = defaultConcurrency
	}
	if c.TTS.TimeoutSeconds <= 0 {
		c.TTS.TimeoutSeconds = defaultSynthesisTimeout
	}
	if c.TTS.RequestsPerSecond < 0 {
		c.TTS.RequestsPerSecond = 0
	}
}

func (c *Config) normalizeMerge() {
	c.Merge.User = strings.TrimSpace(c.Merge.User)
	if c.Merge.User == "" {
		if value, ok := os.LookupEnv("SORI_MERGE_USER"); ok {
			c.Merge.User = strings.TrimSpace(value)
		}
	}
	c.Merge.BaseURL = strings.TrimRight(strings.TrimSpace(c.Merge.BaseURL), "/")
	if c.Merge.BaseURL == "" {
		c.Merge.BaseURL = defaultMergeBaseURL
	}
	repos := make([]string, 0, len(c.Merge.Repos))
	seen := make(map[string]struct{}, len(c.Merge.Repos))
	for _, repo := range c.Merge.Repos {
		trimmed := strings.TrimSpace(repo)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		repos = append(repos, trimmed)
	}
	c.Merge.Repos = repos
	branches := make([]string, 0, len(c.Merge.Branches))
	for _, branch := range c.Merge.Branches {
		if trimmed := strings.TrimSpace(branch); trimmed != "" {
			branches = append(branches, trimmed)
		}
	}
	if len(branches) == 0 {
		branches = []string{"master", "main"}
	}
	c.Merge.Branches = branches
	if c.Merge.RequestTimeout <= 0 {
		c.Merge.RequestTimeout = defaultMergeTimeout
	}
	if c.Merge.Concurrency <= 0 {
		c.Merge.Concurrency = defaultMergeConcurrency
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
