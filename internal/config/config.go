package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains the HTTP listener and local state configuration.
type Server struct {
	Bind     string `toml:"bind"`
	APIToken string `toml:"api_token"`
	StateDir string `toml:"state_dir"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Embed contains configuration for the third-party embed pages that are sniffed.
type Embed struct {
	BaseURL         string `toml:"base_url"`
	DefaultLanguage string `toml:"default_language"`
}

// Sniffer contains the browser session policy used for manifest discovery.
type Sniffer struct {
	NavigationTimeoutSeconds int      `toml:"navigation_timeout_seconds"`
	PollAttempts             int      `toml:"poll_attempts"`
	PollIntervalMillis       int      `toml:"poll_interval_ms"`
	ManifestSuffix           string   `toml:"manifest_suffix"`
	BlockedResourceTypes     []string `toml:"blocked_resource_types"`
	MaxSessions              int      `toml:"max_sessions"`
	BrowserBin               string   `toml:"browser_bin"`
	Headless                 bool     `toml:"headless"`
	ViewportWidth            int      `toml:"viewport_width"`
	ViewportHeight           int      `toml:"viewport_height"`
}

// Cache contains configuration for the resolved manifest cache.
type Cache struct {
	TTLSeconds int `toml:"ttl_seconds"`
}

// History contains configuration for the resolution history database.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`

	// RetentionDays drops older entries when the pipeline starts. 0 keeps everything.
	RetentionDays int `toml:"retention_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"log_dir"`
}

// Config encapsulates all configuration values for streamscout.
//
// Configuration sections by subsystem:
//   - Server: HTTP bind address, admin token, state directory
//   - TMDB: canonical ID lookups via The Movie Database
//   - Embed: embed page host and default language
//   - Sniffer: browser session limits, navigation timeout, polling policy
//   - Cache: resolved manifest TTL
//   - History: sqlite log of resolution attempts
//   - Logging: log format, level, and directory
type Config struct {
	Server  Server  `toml:"server"`
	TMDB    TMDB    `toml:"tmdb"`
	Embed   Embed   `toml:"embed"`
	Sniffer Sniffer `toml:"sniffer"`
	Cache   Cache   `toml:"cache"`
	History History `toml:"history"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
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

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("streamscout.toml")
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

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Server.StateDir, c.Logging.Dir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) != "" {
		if err := os.MkdirAll(filepath.Dir(c.History.Path), 0o755); err != nil {
			return fmt.Errorf("create history directory: %w", err)
		}
	}
	return nil
}

// LockPath returns the path of the single-instance server lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Server.StateDir, "streamscout.lock")
}

// NavigationTimeout returns the sniffer navigation ceiling.
func (c *Config) NavigationTimeout() time.Duration {
	return time.Duration(c.Sniffer.NavigationTimeoutSeconds) * time.Second
}

// PollInterval returns the delay between manifest detection polls.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Sniffer.PollIntervalMillis) * time.Millisecond
}

// CacheTTL returns how long resolved manifests stay cached.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// TMDBTimeout returns the HTTP timeout for TMDB requests.
func (c *Config) TMDBTimeout() time.Duration {
	return time.Duration(c.TMDB.TimeoutSeconds) * time.Second
}

// HistoryRetention returns how long history entries are kept, or 0 for forever.
func (c *Config) HistoryRetention() time.Duration {
	return time.Duration(c.History.RetentionDays) * 24 * time.Hour
}

// WriteTOML encodes the effective configuration.
func (c *Config) WriteTOML(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
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

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
