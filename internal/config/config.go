// Package config provides configuration management for the prediction core.
package config

import (
	"fmt"
	"time"

	"github.com/novatitan/prediction-core/internal/engine"
	"github.com/novatitan/prediction-core/internal/service"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig                `mapstructure:"app" validate:"required"`
	Sources    SourcesConfig            `mapstructure:"sources" validate:"required"`
	Cache      CacheConfig              `mapstructure:"cache" validate:"required"`
	Engine     engine.Config            `mapstructure:"engine" validate:"required"`
	Validator  service.ValidatorConfig  `mapstructure:"validator"`
	Aggregator service.AggregatorConfig `mapstructure:"aggregator"`
	Store      StoreConfig              `mapstructure:"store" validate:"required"`
	Server     ServerConfig             `mapstructure:"server" validate:"required"`
	Scheduler  SchedulerConfig          `mapstructure:"scheduler"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// SourcesConfig groups the external data source configurations
type SourcesConfig struct {
	HTTP    HTTPConfig   `mapstructure:"http"`
	Odds    SourceConfig `mapstructure:"odds" validate:"required"`
	Stats   SourceConfig `mapstructure:"stats"`
	Context SourceConfig `mapstructure:"context"`
	Stream  StreamConfig `mapstructure:"stream"`
}

// HTTPConfig tunes the shared outbound HTTP client
type HTTPConfig struct {
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"omitempty,gt=0"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit         float64 `mapstructure:"rate_limit" validate:"omitempty,gt=0"`
	CircuitBreakerMax int     `mapstructure:"circuit_breaker_max" validate:"omitempty,gt=0"`
}

// SourceConfig represents a single upstream API
type SourceConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey  string `mapstructure:"api_key"`
	Enabled bool   `mapstructure:"enabled"`
}

// StreamConfig represents the live odds update stream
type StreamConfig struct {
	URL     string `mapstructure:"url"`
	APIKey  string `mapstructure:"api_key"`
	Enabled bool   `mapstructure:"enabled"`
}

// CacheConfig tunes the in-process cache manager
type CacheConfig struct {
	MaxEntries int `mapstructure:"max_entries" validate:"required,gt=0"`
}

// StoreConfig selects and configures the snapshot persistence backend
type StoreConfig struct {
	Backend  string         `mapstructure:"backend" validate:"required,oneof=memory postgres redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig represents Postgres connection configuration
type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
}

// RedisConfig represents Redis connection configuration
type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db" validate:"gte=0"`
	TTLMinutes int    `mapstructure:"ttl_minutes" validate:"gte=0"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Port        int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	MetricsPath string `mapstructure:"metrics_path" validate:"required"`
}

// SchedulerConfig represents background job scheduling
type SchedulerConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	GenerateSchedule string `mapstructure:"generate_schedule" validate:"omitempty,cronspec"`
	SweepSchedule    string `mapstructure:"sweep_schedule" validate:"omitempty,cronspec"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// HTTPTimeout returns the configured outbound request timeout
func (c *HTTPConfig) HTTPTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	p := c.Store.Postgres
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Name, p.SSLMode,
	)
}
