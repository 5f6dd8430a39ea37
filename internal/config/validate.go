package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"streamscout/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateEmbed(); err != nil {
		return err
	}
	if err := c.validateSniffer(); err != nil {
		return err
	}
	if c.Cache.TTLSeconds <= 0 {
		return errors.New("cache.ttl_seconds must be positive")
	}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return errors.New("history.path must be set when history.enabled is true")
	}
	if c.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be >= 0")
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'streamscout config init')", defaultPath)
	}
	if c.TMDB.RequestsPerSecond < 0 {
		return errors.New("tmdb.requests_per_second must be >= 0")
	}
	return nil
}

func (c *Config) validateEmbed() error {
	parsed, err := url.Parse(c.Embed.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("embed.base_url %q must be an absolute URL", c.Embed.BaseURL)
	}
	if !language.IsSupported(c.Embed.DefaultLanguage) {
		return fmt.Errorf("embed.default_language %q must be one of %s", c.Embed.DefaultLanguage, strings.Join(language.Supported(), ", "))
	}
	return nil
}

func (c *Config) validateSniffer() error {
	if err := ensurePositiveMap(map[string]int{
		"sniffer.navigation_timeout_seconds": c.Sniffer.NavigationTimeoutSeconds,
		"sniffer.poll_attempts":              c.Sniffer.PollAttempts,
		"sniffer.poll_interval_ms":           c.Sniffer.PollIntervalMillis,
		"sniffer.max_sessions":               c.Sniffer.MaxSessions,
		"sniffer.viewport_width":             c.Sniffer.ViewportWidth,
		"sniffer.viewport_height":            c.Sniffer.ViewportHeight,
	}); err != nil {
		return err
	}
	if c.Sniffer.ManifestSuffix == "" {
		return errors.New("sniffer.manifest_suffix must be set")
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
