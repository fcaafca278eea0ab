// Package config handles application configuration loading from environment
// variables, an optional config file and a development .env file. It
// provides a centralized Config struct used across the application.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ConfigFileEnv names the environment variable that points at an optional
// YAML, TOML or .env style config file. Keys match the environment names.
const ConfigFileEnv = "SHOPADMIN_CONFIG"

// Config holds all application configuration values.
type Config struct {
	// Server settings
	Host     string
	Port     string
	Env      string // "development", "production", "testing"
	LogLevel string // "debug", "info", "warn", "error"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// S3-compatible object storage for product and main images
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	// HTTP behaviour
	SecureCookies   bool
	LoginRateLimit  int
	LoginRateWindow time.Duration
	CacheTTL        time.Duration

	// Orphaned blob cleanup
	JanitorSchedule string        // cron spec; empty disables the janitor
	JanitorGrace    time.Duration // minimum age before an unreferenced blob is removed
}

// defaults lists every key Load reads with its development default.
var defaults = map[string]any{
	"app_host":  "0.0.0.0",
	"app_port":  "8080",
	"app_env":   "development",
	"log_level": "info",

	"postgres_host":     "localhost",
	"postgres_port":     "5432",
	"postgres_user":     "shopadmin",
	"postgres_password": "changeme",
	"postgres_db":       "shopadmin",

	"valkey_host":     "localhost",
	"valkey_port":     "6379",
	"valkey_password": "",

	"s3_endpoint":   "",
	"s3_region":     "us-east-1",
	"s3_access_key": "",
	"s3_secret_key": "",
	"s3_bucket":     "product-images",
	"s3_public_url": "",

	"cookie_secure":     false,
	"login_rate_limit":  10,
	"login_rate_window": "1m",
	"cache_ttl":         "10m",

	"janitor_schedule": "@every 6h",
	"janitor_grace":    "24h",
}

// Load reads configuration, applying defaults for development where
// appropriate. Precedence: process environment, then .env (outside
// production, exported into the environment without overriding variables
// already set), then the config file, then defaults. Returns an error if
// critical values are missing in production mode.
func Load() (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if v.GetString("app_env") != "production" {
		if err := loadDotEnv(".env"); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Host:     v.GetString("app_host"),
		Port:     v.GetString("app_port"),
		Env:      v.GetString("app_env"),
		LogLevel: v.GetString("log_level"),

		DBHost:     v.GetString("postgres_host"),
		DBPort:     v.GetString("postgres_port"),
		DBUser:     v.GetString("postgres_user"),
		DBPassword: v.GetString("postgres_password"),
		DBName:     v.GetString("postgres_db"),

		ValkeyHost:     v.GetString("valkey_host"),
		ValkeyPort:     v.GetString("valkey_port"),
		ValkeyPassword: v.GetString("valkey_password"),

		S3Endpoint:  v.GetString("s3_endpoint"),
		S3Region:    v.GetString("s3_region"),
		S3AccessKey: v.GetString("s3_access_key"),
		S3SecretKey: v.GetString("s3_secret_key"),
		S3Bucket:    v.GetString("s3_bucket"),
		S3PublicURL: v.GetString("s3_public_url"),

		SecureCookies:   v.GetBool("cookie_secure"),
		LoginRateLimit:  v.GetInt("login_rate_limit"),
		LoginRateWindow: v.GetDuration("login_rate_window"),
		CacheTTL:        v.GetDuration("cache_ttl"),

		JanitorSchedule: v.GetString("janitor_schedule"),
		JanitorGrace:    v.GetDuration("janitor_grace"),
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		// Production is always served over TLS.
		cfg.SecureCookies = true
	}
	if cfg.LoginRateLimit <= 0 || cfg.LoginRateWindow <= 0 {
		return nil, fmt.Errorf("LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW must be positive")
	}

	return cfg, nil
}

// loadDotEnv exports the variables of a .env file into the process
// environment without overriding variables that are already set. A
// missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// StorageEnabled reports whether enough S3 settings are present to talk
// to object storage.
func (c *Config) StorageEnabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}
