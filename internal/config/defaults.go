package config

const (
	defaultConfigPath            = "~/.config/streamscout/config.toml"
	defaultBind                  = "127.0.0.1:3007"
	defaultStateDir              = "~/.local/share/streamscout"
	defaultTMDBBaseURL           = "https://api.themoviedb.org/3"
	defaultTMDBTimeoutSeconds    = 10
	defaultTMDBRequestsPerSecond = 20
	defaultEmbedBaseURL          = "https://embed.vidsrc.pk"
	defaultEmbedLanguage         = "Hindi"
	defaultNavigationTimeout     = 20
	defaultPollAttempts          = 4
	defaultPollIntervalMillis    = 1000
	defaultManifestSuffix        = ".m3u8"
	defaultMaxSessions           = 4
	defaultViewportWidth         = 1280
	defaultViewportHeight        = 720
	defaultCacheTTLSeconds       = 3600
	defaultHistoryFile           = "history.db"
	defaultHistoryRetentionDays  = 30
	defaultLogDirName            = "logs"
	defaultLogFormat             = "auto"
	defaultLogLevel              = "info"
)

var defaultBlockedResourceTypes = []string{"Image", "Stylesheet", "Font"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	blocked := make([]string, len(defaultBlockedResourceTypes))
	copy(blocked, defaultBlockedResourceTypes)
	return Config{
		Server: Server{
			Bind:     defaultBind,
			StateDir: defaultStateDir,
		},
		TMDB: TMDB{
			BaseURL:           defaultTMDBBaseURL,
			TimeoutSeconds:    defaultTMDBTimeoutSeconds,
			RequestsPerSecond: defaultTMDBRequestsPerSecond,
		},
		Embed: Embed{
			BaseURL:         defaultEmbedBaseURL,
			DefaultLanguage: defaultEmbedLanguage,
		},
		Sniffer: Sniffer{
			NavigationTimeoutSeconds: defaultNavigationTimeout,
			PollAttempts:             defaultPollAttempts,
			PollIntervalMillis:       defaultPollIntervalMillis,
			ManifestSuffix:           defaultManifestSuffix,
			BlockedResourceTypes:     blocked,
			MaxSessions:              defaultMaxSessions,
			Headless:                 true,
			ViewportWidth:            defaultViewportWidth,
			ViewportHeight:           defaultViewportHeight,
		},
		Cache: Cache{
			TTLSeconds: defaultCacheTTLSeconds,
		},
		History: History{
			Enabled:       true,
			RetentionDays: defaultHistoryRetentionDays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
