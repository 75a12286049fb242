package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, 3, cfg.MaxActivations)
	assert.Equal(t, 15*time.Minute, cfg.PaymentWindow)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 1000, cfg.Log.JournalSize)
	assert.Equal(t, []string{"*"}, cfg.Security.AllowedOrigins)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SHOP_PORT", "8081")
	t.Setenv("SHOP_MAX_ACTIVATIONS", "5")
	t.Setenv("SHOP_LOG_LEVEL", "debug")
	t.Setenv("SHOP_SECURITY_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("SHOP_LOCATION", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, 5, cfg.MaxActivations)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Security.AllowedOrigins)
	loc, err := cfg.TimeLocation()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("SHOP_MAX_ACTIVATIONS", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_BadLocation(t *testing.T) {
	cfg := Config{MaxActivations: 1, PaymentWindow: time.Minute, ReaperInterval: time.Minute, AdminPassword: "x", Location: "Mars/Olympus"}
	assert.Error(t, cfg.Validate())
}
