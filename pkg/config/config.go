package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. HIRELANE_STORE_DRIVER.
const EnvPrefix = "HIRELANE"

// Supported local store drivers.
const (
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string `mapstructure:"app_env"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	UserID    string `mapstructure:"user_id"`

	// Remote API
	APIBaseURL string `mapstructure:"api_base_url"`
	// RequestTimeout bounds a single gateway call. Zero means no client timeout.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	Store     StoreConfig     `mapstructure:"store"`
	Breaker   BreakerConfig   `mapstructure:"breaker"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Events    EventsConfig    `mapstructure:"events"`
}

// StoreConfig selects where the token and quota records live.
type StoreConfig struct {
	Driver      string `mapstructure:"driver"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	RedisURL    string `mapstructure:"redis_url"`
	PostgresURL string `mapstructure:"postgres_url"`
	// TokenKey is a base64 AES-256 key. When set the bearer token is
	// encrypted at rest.
	TokenKey string `mapstructure:"token_key"`
}

// BreakerConfig configures the optional gateway circuit breaker.
type BreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// EventsConfig selects where ledger change events go. With no RabbitMQ URL
// they are delivered in process to the audit log.
type EventsConfig struct {
	RabbitMQURL string `mapstructure:"rabbitmq_url"`
}

// RateLimitConfig configures the optional client-side request limiter.
// PerSecond of zero disables limiting.
type RateLimitConfig struct {
	PerSecond float64 `mapstructure:"per_second"`
	Burst     int     `mapstructure:"burst"`
}

// Load loads configuration from .env, an optional hirelane.yaml and the environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration like Load but reads the given config file
// instead of searching the default locations.
func LoadFile(path string) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("hirelane")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(defaultHomeDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("user_id", "")
	v.SetDefault("api_base_url", "http://localhost:8080")
	v.SetDefault("request_timeout", time.Duration(0))

	v.SetDefault("store.driver", StoreSQLite)
	v.SetDefault("store.sqlite_path", filepath.Join(defaultHomeDir(), "state.db"))
	v.SetDefault("store.redis_url", "redis://localhost:6379/0")
	v.SetDefault("store.postgres_url", "")
	v.SetDefault("store.token_key", "")

	v.SetDefault("breaker.enabled", false)
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.timeout", 30*time.Second)

	v.SetDefault("rate_limit.per_second", 0.0)
	v.SetDefault("rate_limit.burst", 1)

	v.SetDefault("events.rabbitmq_url", "")
}

// Validate reports configuration that cannot produce a working client.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return errors.New("api_base_url is required")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout)
	}
	switch c.Store.Driver {
	case StoreSQLite, StoreMemory:
	case StoreRedis:
		if c.Store.RedisURL == "" {
			return errors.New("store.redis_url is required for the redis driver")
		}
	case StorePostgres:
		if c.Store.PostgresURL == "" {
			return errors.New("store.postgres_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.RateLimit.PerSecond < 0 {
		return errors.New("rate_limit.per_second must not be negative")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func defaultHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hirelane"
	}
	return filepath.Join(home, ".hirelane")
}
