package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Covers
		Reader
		Library
		Tasks
		Spotify
		Tokens
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Covers struct {
		Dir string // Cached covers and playlist artwork
	}
	Reader struct {
		ChromeHeight   int // Pixels of app chrome subtracted from the viewport
		SpineCacheSize int // Rendered spine documents kept per open book
		SpineCacheTTL  time.Duration
	}
	Library struct {
		// Watch enables the filesystem watcher on the library directory.
		// The directory and scan schedule are runtime settings, see settingsstore.
		Watch       bool
		WatchSettle time.Duration
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Spotify struct {
		APIURL        string
		RetryAttempts uint
		RetryDelay    time.Duration
		RateLimit     float64 // Requests per second
		RateBurst     int
	}
	Tokens struct {
		EncryptionKey string // base64, 32 bytes
		KeyFilePath   string // Generated on first run when EncryptionKey is empty; defaults to ~/.wave-token-key
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("covers_dir", DefaultCoversDir)

	// Reader defaults
	v.SetDefault("reader_chrome_height", 24)
	v.SetDefault("reader_spine_cache_size", 16)
	v.SetDefault("reader_spine_cache_ttl", "30m")

	// Library watcher defaults
	v.SetDefault("library_watch", false)
	v.SetDefault("library_watch_settle", "2s")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Spotify defaults
	v.SetDefault("spotify_api_url", "https://api.spotify.com/v1/")
	v.SetDefault("spotify_retry_attempts", 3)
	v.SetDefault("spotify_retry_delay", "500ms")
	v.SetDefault("spotify_rate_limit", 10)
	v.SetDefault("spotify_rate_burst", 5)

	// Token encryption defaults
	v.SetDefault("token_encryption_key", "")
	v.SetDefault("token_key_file", "")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Covers: Covers{
			Dir: v.GetString("COVERS_DIR"),
		},
		Reader: Reader{
			ChromeHeight:   v.GetInt("READER_CHROME_HEIGHT"),
			SpineCacheSize: v.GetInt("READER_SPINE_CACHE_SIZE"),
			SpineCacheTTL:  v.GetDuration("READER_SPINE_CACHE_TTL"),
		},
		Library: Library{
			Watch:       v.GetBool("LIBRARY_WATCH"),
			WatchSettle: v.GetDuration("LIBRARY_WATCH_SETTLE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Spotify: Spotify{
			APIURL:        v.GetString("SPOTIFY_API_URL"),
			RetryAttempts: v.GetUint("SPOTIFY_RETRY_ATTEMPTS"),
			RetryDelay:    v.GetDuration("SPOTIFY_RETRY_DELAY"),
			RateLimit:     v.GetFloat64("SPOTIFY_RATE_LIMIT"),
			RateBurst:     v.GetInt("SPOTIFY_RATE_BURST"),
		},
		Tokens: Tokens{
			EncryptionKey: v.GetString("TOKEN_ENCRYPTION_KEY"),
			KeyFilePath:   v.GetString("TOKEN_KEY_FILE"),
		},
	}
}
