package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ProfileStatic is the no-backend deployment: durability only via exported artifacts.
	ProfileStatic = "static"
	// ProfileBackend drives the management API of a running blog backend.
	ProfileBackend = "backend"
)

type Config struct {
	Profile string // "static" | "backend"

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	IndexURL     string // static profile: URL of blogs.json
	PostsBaseURL string // static profile: base URL of the posts directory
	BackendURL   string // backend profile: base URL of the management API

	ExportDir       string        // directory receiving exported artifacts
	CredentialsFile string        // path of the local credential record
	DefaultAuthor   string        // author prefilled on new posts
	DefaultPassword string        // password the credential store is seeded with
	HTTPTimeout     time.Duration // timeout for index/markdown fetches

	ListenAddr      string        // preview server address, empty = preview disabled
	ShutdownTimeout time.Duration // ex: 5s

	// Redis render cache (optional, empty addr = disabled)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration // timeout for each ping attempt
	RedisWarnThreshold  int           // warn after this many attempts
	RenderCacheTTL      time.Duration // TTL for cached rendered HTML
}

// fileConfig mirrors the optional YAML config file. Env vars win over file values.
type fileConfig struct {
	Profile         string `yaml:"profile"`
	LogLevel        string `yaml:"log_level"`
	IndexURL        string `yaml:"index_url"`
	PostsBaseURL    string `yaml:"posts_base_url"`
	BackendURL      string `yaml:"backend_url"`
	ExportDir       string `yaml:"export_dir"`
	CredentialsFile string `yaml:"credentials_file"`
	DefaultAuthor   string `yaml:"default_author"`
	ListenAddr      string `yaml:"listen_addr"`
	RedisAddr       string `yaml:"redis_addr"`
}

func Load() *Config {
	file := loadFile(getenv("BLOGCTL_CONFIG", ""))

	cfg := &Config{
		Profile: getenv("BLOGCTL_PROFILE", fallback(file.Profile, ProfileStatic)),

		// Logging
		LogLevel:  getenv("BLOGCTL_LOG_LEVEL", fallback(file.LogLevel, "info")),
		PrettyLog: mustBool("BLOGCTL_PRETTY_LOG", true),

		// Content sources
		IndexURL:     getenv("BLOGCTL_INDEX_URL", file.IndexURL),
		PostsBaseURL: getenv("BLOGCTL_POSTS_BASE_URL", file.PostsBaseURL),
		BackendURL:   getenv("BLOGCTL_BACKEND_URL", file.BackendURL),

		// Local workspace
		ExportDir:       getenv("BLOGCTL_EXPORT_DIR", fallback(file.ExportDir, "export")),
		CredentialsFile: getenv("BLOGCTL_CREDENTIALS_FILE", fallback(file.CredentialsFile, defaultCredentialsFile())),
		DefaultAuthor:   getenv("BLOGCTL_DEFAULT_AUTHOR", fallback(file.DefaultAuthor, "YewFence")),
		DefaultPassword: getenv("BLOGCTL_DEFAULT_PASSWORD", "123456"),
		HTTPTimeout:     mustDuration("BLOGCTL_HTTP_TIMEOUT", 10*time.Second),

		// Preview server
		ListenAddr:      getenv("BLOGCTL_LISTEN_ADDR", file.ListenAddr),
		ShutdownTimeout: mustDuration("BLOGCTL_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Redis render cache
		RedisAddr:           getenv("BLOGCTL_REDIS_ADDR", file.RedisAddr),
		RedisUser:           getenv("BLOGCTL_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("BLOGCTL_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("BLOGCTL_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),
		RenderCacheTTL:      mustDuration("BLOGCTL_RENDER_CACHE_TTL", 24*time.Hour),
	}

	// Per-profile required settings
	switch cfg.Profile {
	case ProfileStatic:
		if cfg.IndexURL == "" {
			panic("❌ FATAL: BLOGCTL_INDEX_URL is required for the static profile")
		}
		if cfg.PostsBaseURL == "" {
			panic("❌ FATAL: BLOGCTL_POSTS_BASE_URL is required for the static profile")
		}
	case ProfileBackend:
		if cfg.BackendURL == "" {
			panic("❌ FATAL: BLOGCTL_BACKEND_URL is required for the backend profile")
		}
	default:
		panic(fmt.Sprintf("❌ FATAL: Unknown profile %q (want %q or %q)", cfg.Profile, ProfileStatic, ProfileBackend))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.DefaultPassword = "***REDACTED***"
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// loadFile parses the optional YAML config file. A missing path is fine;
// an unreadable or malformed file is fatal, a half-applied config is worse.
func loadFile(path string) fileConfig {
	var fc fileConfig
	if path == "" {
		return fc
	}
	data, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Cannot read config file %s: %v", path, err))
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		panic(fmt.Sprintf("❌ FATAL: Cannot parse config file %s: %v", path, err))
	}
	return fc
}

func defaultCredentialsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".blogctl-auth.json"
	}
	return home + "/.blogctl-auth.json"
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fallback(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
