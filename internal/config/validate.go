package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateTTS(); err != nil {
		return err
	}
	if err := c.validateMerge(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StoreDir) == "" {
		return errors.New("paths.store_dir must be set")
	}
	if c.Paths.StoreDir == c.Paths.DataDir {
		return errors.New("paths.store_dir must differ from paths.data_dir")
	}
	if c.Paths.ReferenceDir != "" && c.Paths.ReferenceDir == c.Paths.StoreDir {
		return errors.New("paths.reference_dir must differ from paths.store_dir")
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.Extension == "." {
		return errors.New("store.extension must name a file suffix, e.g. \".mp3\"")
	}
	return nil
}

func (c *Config) validateTTS() error {
	if c.SynthesisBinary() == "" {
		return errors.New("tts.command must be set")
	}
	if c.TTS.Voice == "" {
		return errors.New("tts.voice must be set")
	}
	if _, err := language.Parse(c.VoiceLocale()); err != nil {
		return fmt.Errorf("tts.voice %q: locale prefix is not a valid BCP-47 tag: %w", c.TTS.Voice, err)
	}
	if err := ensurePositiveMap(map[string]int{
		"tts.concurrency":     c.TTS.Concurrency,
		"tts.timeout_seconds": c.TTS.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.TTS.RequestsPerSecond < 0 {
		return errors.New("tts.requests_per_second must not be negative (zero disables throttling)")
	}
	return nil
}

func (c *Config) validateMerge() error {
	if len(c.Merge.Repos) > 0 && c.Merge.User == "" {
		return errors.New("merge.user must be set when merge.repos is configured (or set SORI_MERGE_USER)")
	}
	if err := ensurePositiveMap(map[string]int{
		"merge.request_timeout": c.Merge.RequestTimeout,
		"merge.concurrency":     c.Merge.Concurrency,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
