// file: internal/config/config.go
// version: 2.0.0
// guid: 7b8c9d0e-1f2a-3b4c-5d6e-7f8a9b0c1d2e

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// LookupConfig controls ISBN metadata lookups.
type LookupConfig struct {
	Enabled           bool
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	UserAgent         string
	// CachePath is the local lookup store directory; empty disables it.
	CachePath      string
	CacheMaxAge    time.Duration
	AuthorCacheTTL time.Duration
}

// ServerConfig controls the web API.
type ServerConfig struct {
	Host               string
	Port               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
	MaxBodyBytes       int64
	WatchLibrary       bool
}

// BackupConfig controls library backups.
type BackupConfig struct {
	Dir        string
	MaxBackups int
}

// Config holds application configuration
type Config struct {
	LibraryPath string
	Lookup      LookupConfig
	Server      ServerConfig
	Backup      BackupConfig
}

var AppConfig Config

// SetDefaults registers default values for every key.
func SetDefaults() {
	viper.SetDefault("library_path", "library.json")

	viper.SetDefault("lookup.enabled", true)
	viper.SetDefault("lookup.base_url", "https://openlibrary.org")
	viper.SetDefault("lookup.timeout", "10s")
	viper.SetDefault("lookup.requests_per_second", 3)
	viper.SetDefault("lookup.user_agent", "bookshelf/1.0 (+https://github.com/jdfalk/bookshelf)")
	viper.SetDefault("lookup.cache_path", "")
	viper.SetDefault("lookup.cache_max_age", "720h")
	viper.SetDefault("lookup.author_cache_ttl", "1h")

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.rate_limit_per_minute", 120)
	viper.SetDefault("server.rate_limit_burst", 20)
	viper.SetDefault("server.max_body_bytes", 1<<20)
	viper.SetDefault("server.watch_library", true)

	viper.SetDefault("backup.dir", "backups")
	viper.SetDefault("backup.max_backups", 10)
}

// BindEnv maps BOOKSHELF_* variables onto config keys, so that
// BOOKSHELF_LOOKUP_TIMEOUT sets lookup.timeout. OPENLIBRARY_BASE_URL is
// accepted as an alias for lookup.base_url.
func BindEnv() {
	viper.SetEnvPrefix("bookshelf")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("lookup.base_url", "BOOKSHELF_LOOKUP_BASE_URL", "OPENLIBRARY_BASE_URL")
}

// LoadDotEnv loads variables from .env files into the process environment.
// Missing files are skipped and existing variables are never overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

// InitConfig initializes the application configuration
func InitConfig() {
	SetDefaults()
	BindEnv()

	AppConfig = Config{
		LibraryPath: viper.GetString("library_path"),
		Lookup: LookupConfig{
			Enabled:           viper.GetBool("lookup.enabled"),
			BaseURL:           strings.TrimRight(viper.GetString("lookup.base_url"), "/"),
			Timeout:           viper.GetDuration("lookup.timeout"),
			RequestsPerSecond: viper.GetFloat64("lookup.requests_per_second"),
			UserAgent:         viper.GetString("lookup.user_agent"),
			CachePath:         viper.GetString("lookup.cache_path"),
			CacheMaxAge:       viper.GetDuration("lookup.cache_max_age"),
			AuthorCacheTTL:    viper.GetDuration("lookup.author_cache_ttl"),
		},
		Server: ServerConfig{
			Host:               viper.GetString("server.host"),
			Port:               viper.GetString("server.port"),
			ReadTimeout:        viper.GetDuration("server.read_timeout"),
			WriteTimeout:       viper.GetDuration("server.write_timeout"),
			IdleTimeout:        viper.GetDuration("server.idle_timeout"),
			RateLimitPerMinute: viper.GetInt("server.rate_limit_per_minute"),
			RateLimitBurst:     viper.GetInt("server.rate_limit_burst"),
			MaxBodyBytes:       viper.GetInt64("server.max_body_bytes"),
			WatchLibrary:       viper.GetBool("server.watch_library"),
		},
		Backup: BackupConfig{
			Dir:        viper.GetString("backup.dir"),
			MaxBackups: viper.GetInt("backup.max_backups"),
		},
	}
}

// Validate checks the values the commands depend on.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.LibraryPath) == "" {
		problems = append(problems, "library_path must not be empty")
	}
	if c.Lookup.Enabled {
		if c.Lookup.BaseURL == "" {
			problems = append(problems, "lookup.base_url must not be empty")
		}
		if c.Lookup.Timeout <= 0 {
			problems = append(problems, "lookup.timeout must be positive")
		}
	}
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 0 || port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %q is not a valid port", c.Server.Port))
	}
	if c.Server.MaxBodyBytes < 0 {
		problems = append(problems, "server.max_body_bytes must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
