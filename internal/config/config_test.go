package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "America/New_York", cfg.DefaultTimezone)
	assert.Equal(t, 30, cfg.Payment.DefaultDepositPercent)
	assert.Equal(t, 10*time.Minute, cfg.HoldTTL())
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadLayersFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
server_port: "9090"
default_timezone: Europe/Lisbon
payment:
  gateway: local
  currency: eur
  hold_ttl_minutes: 5
  local:
    webhook_secret: ${TEST_LOCAL_SECRET}
kafka:
  brokers: ["k1:9092"]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TEST_LOCAL_SECRET", "s3cret")
	t.Setenv("HOLD_TTL_MINUTES", "15")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092 ,")
	t.Setenv("PAYMENT_GATEWAY", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("DEFAULT_TIMEZONE", "")
	t.Setenv("PAYMENT_CURRENCY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "Europe/Lisbon", cfg.DefaultTimezone)
	assert.Equal(t, "local", cfg.Payment.Gateway)
	assert.Equal(t, "eur", cfg.Payment.Currency)
	assert.Equal(t, "s3cret", cfg.Payment.Local.WebhookSecret)
	assert.Equal(t, 15, cfg.Payment.HoldTTLMinutes, "env wins over file")
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"timezone", func(c *Config) { c.DefaultTimezone = "Mars/Base" }, "DEFAULT_TIMEZONE"},
		{"deposit", func(c *Config) { c.Payment.DefaultDepositPercent = 120 }, "DEFAULT_DEPOSIT_PERCENT"},
		{"ttl", func(c *Config) { c.Payment.HoldTTLMinutes = 0 }, "HOLD_TTL_MINUTES"},
		{"gateway", func(c *Config) { c.Payment.Gateway = "paypal" }, "PAYMENT_GATEWAY"},
		{"port", func(c *Config) { c.ServerPort = "http" }, "SERVER_PORT"},
		{"currency", func(c *Config) { c.Payment.Currency = "dollars" }, "PAYMENT_CURRENCY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEnvHelpersIgnoreGarbage(t *testing.T) {
	t.Setenv("X_INT", "ten")
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_FLOAT", "")
	assert.Equal(t, 7, getEnvInt("X_INT", 7))
	assert.True(t, getEnvBool("X_BOOL", true))
	assert.Equal(t, 0.5, getEnvFloat("X_FLOAT", 0.5))
}
