package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// MasterKeyEnv holds the store sealing key when no key file is configured.
const MasterKeyEnv = "CONSOLE_MASTER_KEY"

type Config struct {
	APIBaseURL string // Backend base URL (default: http://localhost:8080)

	StoreDriver   string // Optional: sqlite, redis or memory (default: sqlite)
	DatabaseFile  string // Optional: path to SQLite database file (default: ./console.db)
	RedisAddr     string // Required for the redis driver
	RedisPrefix   string // Optional: key prefix in Redis (default: bartab-console:)
	MasterKeyPath string // Optional: file holding the key that seals stored values

	RefreshThreshold time.Duration // Refresh when the access token expires within this (default: 5m)
	RefreshTimeout   time.Duration // Upper bound on one refresh call (default: 15s)
	HTTPTimeout      time.Duration // Backend request timeout (default: 10s)
	KeeperInterval   time.Duration // How often the session keeper checks expiry (default: 1m)
	DefaultLanding   string        // Where signed-in users land from guest pages (default: /dashboard)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8090)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		APIBaseURL: getEnvOrDefault("CONSOLE_API_BASE_URL", "http://localhost:8080"),

		StoreDriver:   strings.ToLower(getEnvOrDefault("CONSOLE_STORE_DRIVER", DriverSQLite)),
		DatabaseFile:  getEnvOrDefault("CONSOLE_DATABASE_FILE", "console.db"),
		RedisAddr:     os.Getenv("CONSOLE_REDIS_ADDR"),
		RedisPrefix:   getEnvOrDefault("CONSOLE_REDIS_PREFIX", "bartab-console:"),
		MasterKeyPath: os.Getenv("CONSOLE_MASTER_KEY_PATH"),

		RefreshThreshold: getEnvDurationOrDefault("CONSOLE_REFRESH_THRESHOLD", 5*time.Minute),
		RefreshTimeout:   getEnvDurationOrDefault("CONSOLE_REFRESH_TIMEOUT", 15*time.Second),
		HTTPTimeout:      getEnvDurationOrDefault("CONSOLE_HTTP_TIMEOUT", 10*time.Second),
		KeeperInterval:   getEnvDurationOrDefault("CONSOLE_KEEPER_INTERVAL", time.Minute),
		DefaultLanding:   getEnvOrDefault("CONSOLE_DEFAULT_LANDING", "/dashboard"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8090),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// Validate reports every problem with cfg at once.
func (cfg Config) Validate() error {
	var errs []error

	u, err := url.Parse(cfg.APIBaseURL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("CONSOLE_API_BASE_URL: %w", err))
	case u.Scheme != "http" && u.Scheme != "https", u.Host == "":
		errs = append(errs, fmt.Errorf("CONSOLE_API_BASE_URL: %q is not an http(s) URL", cfg.APIBaseURL))
	}

	switch cfg.StoreDriver {
	case DriverSQLite:
		if cfg.DatabaseFile == "" {
			errs = append(errs, errors.New("CONSOLE_DATABASE_FILE is required for the sqlite driver"))
		}
	case DriverRedis:
		if cfg.RedisAddr == "" {
			errs = append(errs, errors.New("CONSOLE_REDIS_ADDR is required for the redis driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("CONSOLE_STORE_DRIVER: unknown driver %q", cfg.StoreDriver))
	}

	if !strings.HasPrefix(cfg.DefaultLanding, "/") || strings.HasPrefix(cfg.DefaultLanding, "//") {
		errs = append(errs, fmt.Errorf("CONSOLE_DEFAULT_LANDING: %q is not a local path", cfg.DefaultLanding))
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT: %d out of range", cfg.Port))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
