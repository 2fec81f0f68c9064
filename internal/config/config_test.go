package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
app:
  name: prediction-core
  environment: development
  log_level: debug
sources:
  odds:
    base_url: https://odds.example.com/v4
    api_key: test-key
    enabled: true
`

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := LoadWithDefaults(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "prediction-core", cfg.App.Name)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.True(t, cfg.IsDevelopment())

	// Defaults fill everything the file omits
	assert.Equal(t, 10000, cfg.Cache.MaxEntries)
	assert.Equal(t, 8, cfg.Engine.MaxConcurrentGames)
	assert.Equal(t, 75.0, cfg.Engine.SyntheticConfidenceCap)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 95.0, cfg.Validator.HighConfidence)
	assert.NotEmpty(t, cfg.Engine.Sports)
}

func TestLoadWithDefaultsMissingFile(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err, "missing file falls back to defaults")
	assert.Equal(t, "development", cfg.App.Environment)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_ODDS_KEY", "expanded-secret")

	cfg, err := LoadWithDefaults(writeConfig(t, `
app:
  name: prediction-core
  environment: development
  log_level: info
sources:
  odds:
    base_url: https://odds.example.com/v4
    api_key: ${TEST_ODDS_KEY}
    enabled: true
`))
	require.NoError(t, err)
	assert.Equal(t, "expanded-secret", cfg.Sources.Odds.APIKey)
}

func TestValidateMinimalConfig(t *testing.T) {
	cfg, err := LoadWithDefaults(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.NoError(t, Validate(cfg))
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad environment", func(c *Config) { c.App.Environment = "prod" }},
		{"bad log level", func(c *Config) { c.App.LogLevel = "verbose" }},
		{"odds disabled", func(c *Config) { c.Sources.Odds.Enabled = false }},
		{"odds without url", func(c *Config) { c.Sources.Odds.BaseURL = "" }},
		{"no sports", func(c *Config) { c.Engine.Sports = nil }},
		{"cap above max", func(c *Config) { c.Engine.SyntheticConfidenceCap = 99 }},
		{"floor above one", func(c *Config) { c.Engine.ValidationFloor = 1.5 }},
		{"inverted confidence bands", func(c *Config) { c.Validator.LowConfidence = 96 }},
		{"postgres missing host", func(c *Config) { c.Store.Backend = "postgres" }},
		{"redis missing addr", func(c *Config) { c.Store.Backend = "redis" }},
		{"bad cron spec", func(c *Config) { c.Scheduler.GenerateSchedule = "every five minutes" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadWithDefaults(writeConfig(t, minimalConfig))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestValidateProductionRequiresSSL(t *testing.T) {
	cfg, err := LoadWithDefaults(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	cfg.App.Environment = "production"
	cfg.Store.Backend = "postgres"
	cfg.Store.Postgres.Host = "db.internal"
	cfg.Store.Postgres.Name = "predictions"
	cfg.Store.Postgres.User = "svc"
	cfg.Store.Postgres.SSLMode = "disable"

	assert.Error(t, Validate(cfg))

	cfg.Store.Postgres.SSLMode = "require"
	assert.NoError(t, Validate(cfg))
}

func TestOverlaySecrets(t *testing.T) {
	cfg, err := LoadWithDefaults(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	overlaySecretsOnConfig(cfg, &SecretsOverlay{
		OddsAPIKey:       "vault-odds",
		DatabasePassword: "vault-db",
	})

	assert.Equal(t, "vault-odds", cfg.Sources.Odds.APIKey)
	assert.Equal(t, "vault-db", cfg.Store.Postgres.Password)
	// Untouched fields keep their config values
	assert.Equal(t, "https://odds.example.com/v4", cfg.Sources.Odds.BaseURL)
}
