package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"streamscout/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizeServer(); err != nil {
		return err
	}
	c.normalizeTMDB()
	c.normalizeEmbed()
	c.normalizeSniffer()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeServer() error {
	var err error
	if strings.TrimSpace(c.Server.StateDir) == "" {
		c.Server.StateDir = defaultStateDir
	}
	if c.Server.StateDir, err = expandPath(c.Server.StateDir); err != nil {
		return fmt.Errorf("server.state_dir: %w", err)
	}
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	if value, ok := os.LookupEnv("STREAMSCOUT_API_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.Server.APIToken = value
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	return nil
}

func (c *Config) normalizeTMDB() {
	if value, ok := os.LookupEnv("TMDB_API_KEY"); ok && strings.TrimSpace(value) != "" {
		c.TMDB.APIKey = value
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	if c.TMDB.TimeoutSeconds <= 0 {
		c.TMDB.TimeoutSeconds = defaultTMDBTimeoutSeconds
	}
}

func (c *Config) normalizeEmbed() {
	c.Embed.BaseURL = strings.TrimRight(strings.TrimSpace(c.Embed.BaseURL), "/")
	if c.Embed.BaseURL == "" {
		c.Embed.BaseURL = defaultEmbedBaseURL
	}
	c.Embed.DefaultLanguage = strings.TrimSpace(c.Embed.DefaultLanguage)
	if c.Embed.DefaultLanguage == "" {
		c.Embed.DefaultLanguage = defaultEmbedLanguage
	}
	if name, ok := language.Canonical(c.Embed.DefaultLanguage); ok {
		c.Embed.DefaultLanguage = name
	}
}

func (c *Config) normalizeSniffer() {
	c.Sniffer.ManifestSuffix = strings.TrimSpace(c.Sniffer.ManifestSuffix)
	c.Sniffer.BrowserBin = strings.TrimSpace(c.Sniffer.BrowserBin)
	if c.Sniffer.BrowserBin != "" {
		if expanded, err := expandPath(c.Sniffer.BrowserBin); err == nil && strings.ContainsRune(c.Sniffer.BrowserBin, filepath.Separator) {
			c.Sniffer.BrowserBin = expanded
		}
	}
	if len(c.Sniffer.BlockedResourceTypes) == 0 {
		return
	}
	types := make([]string, 0, len(c.Sniffer.BlockedResourceTypes))
	seen := make(map[string]struct{}, len(c.Sniffer.BlockedResourceTypes))
	for _, value := range c.Sniffer.BlockedResourceTypes {
		normalized := canonicalResourceType(value)
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		types = append(types, normalized)
	}
	c.Sniffer.BlockedResourceTypes = types
}

// canonicalResourceType maps user spellings ("image", "STYLESHEET") onto the
// DevTools resource type names ("Image", "Stylesheet").
func canonicalResourceType(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	switch value {
	case "xhr":
		return "XHR"
	case "eventsource":
		return "EventSource"
	case "websocket":
		return "WebSocket"
	case "texttrack":
		return "TextTrack"
	case "signedexchange":
		return "SignedExchange"
	case "cspviolationreport":
		return "CSPViolationReport"
	case "preflight":
		return "Preflight"
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Server.StateDir, defaultHistoryFile)
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "auto":
		c.Logging.Format = "auto"
	case "console", "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if strings.TrimSpace(c.Logging.Dir) == "" {
		c.Logging.Dir = filepath.Join(c.Server.StateDir, defaultLogDirName)
	}
	if c.Logging.Dir, err = expandPath(c.Logging.Dir); err != nil {
		return fmt.Errorf("logging.log_dir: %w", err)
	}
	return nil
}
