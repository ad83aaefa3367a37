package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Empty values read as unset
	for _, key := range []string{"APP_ENV", "PORT", "LOG_LEVEL", "MAX_CONNECTIONS", "MAX_CONNECTIONS_PER_IP", "CONNECTION_RATE", "FRAME_RATE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(10000), cfg.MaxConnections)
	assert.Equal(t, 20, cfg.MaxConnectionsPerIP)
	assert.Equal(t, 10.0, cfg.ConnectionRate)
	assert.Equal(t, 20.0, cfg.FrameRate)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_CONNECTIONS", "500")
	t.Setenv("FRAME_RATE", "5.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, int64(500), cfg.MaxConnections)
	assert.Equal(t, 5.5, cfg.FrameRate)
}

func TestLoad_ProductionRequiresAppURL(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PUBLISH_TOKEN", "a-long-enough-token")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_URL is required")
}

func TestLoad_ProductionRequiresPublishToken(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_URL", "https://umunsiapp.example.com")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PUBLISH_TOKEN is required")
}

func TestLoad_ShortPublishTokenRejected(t *testing.T) {
	t.Setenv("PUBLISH_TOKEN", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 16 characters")
}

func TestLoad_InvalidNumbersRejected(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric max connections", "MAX_CONNECTIONS", "lots"},
		{"non-numeric per-ip limit", "MAX_CONNECTIONS_PER_IP", "x"},
		{"non-numeric rate", "CONNECTION_RATE", "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_NonPositiveLimitsRejected(t *testing.T) {
	t.Setenv("MAX_CONNECTIONS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_CONNECTIONS must be positive")
}
