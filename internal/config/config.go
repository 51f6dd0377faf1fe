package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Identity store backends.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds all configuration for the application
type Config struct {
	TelegramToken string `yaml:"telegram_token"`

	APIBaseURL     string        `yaml:"api_base_url"`
	UploadsBaseURL string        `yaml:"uploads_base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	IdentityStore string `yaml:"identity_store"`
	SQLitePath    string `yaml:"sqlite_path"`
	DatabaseURL   string `yaml:"database_url"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	AutoStatusSchedule string `yaml:"auto_status_schedule"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	Port      string `yaml:"port"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		APIBaseURL:         "https://deco3801-foundjesse.uqcloud.net/restapi",
		UploadsBaseURL:     "https://deco3801-foundjesse.uqcloud.net/uploads",
		RequestTimeout:     20 * time.Second,
		IdentityStore:      StoreSQLite,
		SQLitePath:         "insync.db",
		RedisAddr:          "localhost:6379",
		AutoStatusSchedule: "@every 1m",
		LogLevel:           "info",
		LogFormat:          "text",
		Port:               "8080",
	}
}

// Load loads configuration from the optional YAML file named by
// INSYNC_CONFIG_FILE, then from environment variables (a .env file in the
// working directory is honoured). Environment values win.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := Defaults()

	if path := os.Getenv("INSYNC_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	setString(&c.TelegramToken, "TELEGRAM_TOKEN")
	setString(&c.APIBaseURL, "INSYNC_API_BASE_URL")
	setString(&c.UploadsBaseURL, "INSYNC_UPLOADS_BASE_URL")
	setString(&c.IdentityStore, "IDENTITY_STORE")
	setString(&c.SQLitePath, "SQLITE_PATH")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.RedisPassword, "REDIS_PASSWORD")
	setString(&c.AutoStatusSchedule, "AUTO_STATUS_SCHEDULE")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.Port, "PORT")

	if v := os.Getenv("INSYNC_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("INSYNC_REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = d
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		c.RedisDB = n
	}
	return nil
}

// Validate checks required settings and cross-field constraints.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN environment variable is required")
	}
	if c.APIBaseURL == "" {
		return fmt.Errorf("INSYNC_API_BASE_URL must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}

	c.IdentityStore = strings.ToLower(strings.TrimSpace(c.IdentityStore))
	switch c.IdentityStore {
	case StoreMemory, StoreRedis:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite identity store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres identity store")
		}
	default:
		return fmt.Errorf("unsupported identity store: %s", c.IdentityStore)
	}
	return nil
}

// setString overwrites dst with the environment value when it is set
func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}
