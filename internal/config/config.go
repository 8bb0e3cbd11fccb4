// Package config provides configuration loading and validation for the match agent.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. INTERNX_SERVER_PORT.
const EnvPrefix = "INTERNX"

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Reasoning service providers.
const (
	ProviderGemini = "gemini"
	ProviderGenAI  = "genai"
)

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Accuracy  AccuracyConfig  `mapstructure:"accuracy"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// StoreConfig selects and configures the persistent store.
type StoreConfig struct {
	Driver      string `mapstructure:"driver"`
	DatabaseURL string `mapstructure:"database_url"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	MaxConns    int32  `mapstructure:"max_conns"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// LLMConfig configures the reasoning service that rates responses.
type LLMConfig struct {
	Provider     string        `mapstructure:"provider"`
	APIKey       string        `mapstructure:"api_key"`
	Model        string        `mapstructure:"model"`
	RescoreModel string        `mapstructure:"rescore_model"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	Concurrency  int           `mapstructure:"concurrency"`
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	JWTSecret       string `mapstructure:"jwt_secret"`
	Issuer          string `mapstructure:"issuer"`
	ExpirationHours int    `mapstructure:"expiration_hours"`
}

// RateLimitConfig holds request rate limiting settings.
type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DefaultLimit    int           `mapstructure:"default_limit"`
	DefaultWindow   time.Duration `mapstructure:"default_window"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Whitelist       []string      `mapstructure:"whitelist"`
	Blacklist       []string      `mapstructure:"blacklist"`
}

// SchedulerConfig controls the periodic accuracy snapshot run.
type SchedulerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("store.driver", DriverPostgres)
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.sqlite_path", "internx.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.auto_migrate", false)

	v.SetDefault("llm.provider", ProviderGemini)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.rescore_model", "")
	v.SetDefault("llm.timeout", "20s")
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.concurrency", 4)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "internx")
	v.SetDefault("auth.expiration_hours", 24)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.default_limit", 1000)
	v.SetDefault("rate_limit.default_window", "1m")
	v.SetDefault("rate_limit.cleanup_interval", "5m")
	v.SetDefault("rate_limit.whitelist", []string{})
	v.SetDefault("rate_limit.blacklist", []string{})

	setScoringDefaults(v)

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.interval", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 7)
	v.SetDefault("logging.compress", true)
}

// Load reads configuration from defaults, an optional YAML file, and
// INTERNX_* environment variables, in increasing order of precedence.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hooks); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	cfg.Scoring.applyDefaults()
	cfg.Accuracy.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration has valid values. Secrets are not
// required here; commands that need them check with RequireJWTSecret or
// RequireLLM.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Store.Driver {
	case DriverPostgres:
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("config error: 'store.sqlite_path' is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("config error: unknown store driver %q", c.Store.Driver)
	}

	switch c.LLM.Provider {
	case ProviderGemini, ProviderGenAI:
	default:
		return fmt.Errorf("config error: unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.MaxRetries < 0 {
		return errors.New("config error: 'llm.max_retries' must be non-negative")
	}
	if c.LLM.Concurrency < 1 {
		return errors.New("config error: 'llm.concurrency' must be at least 1")
	}

	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		return errors.New("config error: 'scheduler.interval' must be positive when the scheduler is enabled")
	}

	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	return c.Accuracy.Validate()
}

// RequireDatabaseURL returns an error if the postgres driver is selected without a URL.
func (c *Config) RequireDatabaseURL() error {
	if c.Store.Driver == DriverPostgres && c.Store.DatabaseURL == "" {
		return errors.New("config error: 'store.database_url' is required for the postgres driver (set INTERNX_STORE_DATABASE_URL)")
	}
	return nil
}

// RequireLLM returns an error if no reasoning service API key is configured.
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey == "" {
		return errors.New("config error: 'llm.api_key' is required (set INTERNX_LLM_API_KEY)")
	}
	return nil
}
