// Package config provides configuration management for the prediction core.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/novatitan/prediction-core/internal/engine"
	"github.com/novatitan/prediction-core/internal/service"
)

const envPrefix = "PREDICTION_CORE"

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional
// fields. A missing config file is not an error; defaults and environment
// variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "prediction-core")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("sources.http.timeout_seconds", 10)
	v.SetDefault("sources.http.max_retries", 3)
	v.SetDefault("sources.http.rate_limit", 10.0)
	v.SetDefault("sources.http.circuit_breaker_max", 5)

	v.SetDefault("cache.max_entries", 10000)

	engineDefaults := engine.DefaultConfig()
	v.SetDefault("engine.sports", engineDefaults.Sports)
	v.SetDefault("engine.max_concurrent_games", engineDefaults.MaxConcurrentGames)
	v.SetDefault("engine.game_timeout", engineDefaults.GameTimeout)
	v.SetDefault("engine.odds_ttl", engineDefaults.OddsTTL)
	v.SetDefault("engine.synthetic_confidence_cap", engineDefaults.SyntheticConfidenceCap)
	v.SetDefault("engine.max_leg_confidence", engineDefaults.MaxLegConfidence)
	v.SetDefault("engine.validation_floor", engineDefaults.ValidationFloor)

	validatorDefaults := service.DefaultValidatorConfig()
	v.SetDefault("validator.high_confidence", validatorDefaults.HighConfidence)
	v.SetDefault("validator.low_confidence", validatorDefaults.LowConfidence)
	v.SetDefault("validator.min_source_reliability", validatorDefaults.MinSourceReliability)
	v.SetDefault("validator.staleness_window", validatorDefaults.StalenessWindow)
	v.SetDefault("validator.future_skew", validatorDefaults.FutureSkew)
	v.SetDefault("validator.min_reasoning_length", validatorDefaults.MinReasoningLength)

	aggregatorDefaults := service.DefaultAggregatorConfig()
	v.SetDefault("aggregator.stats_ttl", aggregatorDefaults.StatsTTL)
	v.SetDefault("aggregator.context_ttl", aggregatorDefaults.ContextTTL)

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.postgres.ssl_mode", "require")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_path", "/metrics")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.generate_schedule", "*/5 * * * *")
	v.SetDefault("scheduler.sweep_schedule", "*/30 * * * *")
}
