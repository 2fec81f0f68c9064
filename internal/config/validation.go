// Package config provides configuration management for the prediction core.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Registration only fails for empty tags or nil funcs
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("cronspec", validateCronSpec)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateCronSpec validates standard 5-field cron expressions
func validateCronSpec(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if !cfg.Sources.Odds.Enabled {
		return fmt.Errorf("odds source must be enabled: predictions cannot be generated without market data")
	}
	if cfg.Sources.Odds.Enabled && cfg.Sources.Odds.BaseURL == "" {
		return fmt.Errorf("sources.odds.base_url is required when the odds source is enabled")
	}
	if cfg.Sources.Stats.Enabled && cfg.Sources.Stats.BaseURL == "" {
		return fmt.Errorf("sources.stats.base_url is required when the stats source is enabled")
	}
	if cfg.Sources.Context.Enabled && cfg.Sources.Context.BaseURL == "" {
		return fmt.Errorf("sources.context.base_url is required when the context source is enabled")
	}
	if cfg.Sources.Stream.Enabled && cfg.Sources.Stream.URL == "" {
		return fmt.Errorf("sources.stream.url is required when the stream is enabled")
	}

	switch cfg.Store.Backend {
	case "postgres":
		p := cfg.Store.Postgres
		if p.Host == "" || p.Name == "" || p.User == "" {
			return fmt.Errorf("store.postgres requires host, name and user when backend is postgres")
		}
		if cfg.IsProduction() && p.SSLMode == "disable" {
			return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
		}
	case "redis":
		if cfg.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required when backend is redis")
		}
	}

	if len(cfg.Engine.Sports) == 0 {
		return fmt.Errorf("engine.sports must list at least one sport")
	}
	if cfg.Engine.SyntheticConfidenceCap > cfg.Engine.MaxLegConfidence {
		return fmt.Errorf("engine.synthetic_confidence_cap cannot exceed engine.max_leg_confidence")
	}
	if cfg.Engine.ValidationFloor < 0 || cfg.Engine.ValidationFloor > 1 {
		return fmt.Errorf("engine.validation_floor must be between 0 and 1")
	}

	if cfg.Validator.LowConfidence >= cfg.Validator.HighConfidence {
		return fmt.Errorf("validator.low_confidence must be below validator.high_confidence")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "cronspec":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid cron expression, got '%v'\n", field, value)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}
